package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/handlers"
	"fuelsync-backend/internal/middleware"
	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[string]*models.User

func (s stubUsers) Get(ctx context.Context, tenantID, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

// Requests in these tests are all rejected before a handler runs, so the
// handlers carry no services.
func newTestRouter(t *testing.T) (http.Handler, *auth.JWTManager, stubUsers) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test"
	cfg.JWT.ExpirationHours = 1
	cfg.Server.CorsAllowedOrigins = []string{"*"}
	cfg.Server.CorsAllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.Server.CorsAllowedHeaders = []string{"Content-Type", "Authorization", "x-tenant-id"}

	jwtManager := auth.NewJWTManager(cfg)
	users := stubUsers{}
	hs := &Handlers{
		Auth:           &handlers.AuthHandler{},
		Users:          &handlers.UserHandler{},
		Stations:       &handlers.StationHandler{},
		Readings:       &handlers.ReadingHandler{},
		Prices:         &handlers.FuelPriceHandler{},
		Creditors:      &handlers.CreditorHandler{},
		Razorpay:       &handlers.RazorpayHandler{},
		Deliveries:     &handlers.DeliveryHandler{},
		Reconciliation: &handlers.ReconciliationHandler{},
		Alerts:         &handlers.AlertHandler{},
		Dashboard:      &handlers.DashboardHandler{},
		Monitoring:     &handlers.MonitoringHandler{},
		Reports:        &handlers.ReportHandler{},
		Tenants:        &handlers.TenantHandler{},
		Selection:      &handlers.SelectionHandler{},
		Health:         &handlers.HealthHandler{},
		Audit:          handlers.NewAuditHandler(services.NewAuditService(emptyAudit{}, emptyAudit{})),
	}
	router := NewRouter(hs, middleware.NewAuthMiddleware(jwtManager, users),
		middleware.NewRateLimiter(60), middleware.NewCORS(cfg))
	return router, jwtManager, users
}

type emptyAudit struct{}

func (emptyAudit) CreateLoginLog(ctx context.Context, l *models.LoginLog) error { return nil }
func (emptyAudit) ListLoginLogs(ctx context.Context, tenantID string, limit int) ([]models.LoginLog, error) {
	return []models.LoginLog{}, nil
}
func (emptyAudit) CreateActionLog(ctx context.Context, l *models.AdminActionLog) error { return nil }
func (emptyAudit) ListActionLogs(ctx context.Context, tenantID string, limit int) ([]models.AdminActionLog, error) {
	return []models.AdminActionLog{}, nil
}

func serve(router http.Handler, method, path, token, tenant string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if tenant != "" {
		req.Header.Set(middleware.TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	router, _, _ := newTestRouter(t)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "", "").Code)
}

func TestAPIMountedUnderBothPrefixes(t *testing.T) {
	router, _, _ := newTestRouter(t)
	for _, path := range []string{"/v1/stations", "/api/v1/stations", "/v1/nozzle-readings", "/api/v1/dashboard"} {
		assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, path, "", "").Code, path)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := serve(router, http.MethodGet, "/v2/stations", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRoleAndTenantGates(t *testing.T) {
	router, j, users := newTestRouter(t)
	tenant := uuid.NewString()
	attendant := &models.User{ID: uuid.NewString(), TenantID: tenant, Role: models.RoleAttendant, IsActive: true}
	root := &models.User{ID: uuid.NewString(), Role: models.RoleSuperAdmin, IsActive: true}
	users[attendant.ID], users[root.ID] = attendant, root

	attendantToken, err := j.GenerateToken(attendant)
	require.NoError(t, err)
	rootToken, err := j.GenerateToken(root)
	require.NoError(t, err)

	t.Run("attendant cannot create stations", func(t *testing.T) {
		rec := serve(router, http.MethodPost, "/v1/stations", attendantToken, tenant)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("attendant cannot reach admin routes", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/v1/admin/tenants", attendantToken, tenant)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("attendant cannot void readings", func(t *testing.T) {
		rec := serve(router, http.MethodPost, "/api/v1/nozzle-readings/"+uuid.NewString()+"/void", attendantToken, tenant)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("superadmin needs a tenant for tenant routes", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/v1/stations", rootToken, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	t.Run("attendant cannot read the audit trail", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/v1/audit/logins", attendantToken, tenant)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("superadmin reads audit without a tenant", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/v1/audit/actions", rootToken, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	t.Run("tenant header must match token", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/v1/stations", attendantToken, uuid.NewString())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/nozzle-readings", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rec.Code, 300)
}
