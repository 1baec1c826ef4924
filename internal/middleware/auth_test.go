package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[string]*models.User

func (s stubUsers) Get(ctx context.Context, tenantID, id string) (*models.User, error) {
	u, ok := s[id]
	if !ok || u.TenantID != tenantID {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func setup(t *testing.T) (*AuthMiddleware, *auth.JWTManager, stubUsers) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-test"
	cfg.JWT.ExpirationHours = 1
	jwtManager := auth.NewJWTManager(cfg)
	users := stubUsers{}
	return NewAuthMiddleware(jwtManager, users), jwtManager, users
}

func tokenFor(t *testing.T, j *auth.JWTManager, u *models.User) string {
	t.Helper()
	token, err := j.GenerateToken(u)
	require.NoError(t, err)
	return token
}

// echoActor reports the actor the middleware attached.
var echoActor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	w.Header().Set("X-Actor-Tenant", actor.TenantID)
	w.Header().Set("X-Actor-Role", actor.Role)
	w.WriteHeader(http.StatusOK)
})

func TestAuthenticate(t *testing.T) {
	m, j, users := setup(t)
	tenant := uuid.NewString()
	owner := &models.User{ID: uuid.NewString(), TenantID: tenant, Email: "o@x.test", Role: models.RoleOwner, IsActive: true}
	root := &models.User{ID: uuid.NewString(), Email: "root@x.test", Role: models.RoleSuperAdmin, IsActive: true}
	disabled := &models.User{ID: uuid.NewString(), TenantID: tenant, Email: "d@x.test", Role: models.RoleAttendant}
	users[owner.ID], users[root.ID], users[disabled.ID] = owner, root, disabled

	handler := m.Authenticate(echoActor)
	do := func(token, tenantHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/stations", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if tenantHeader != "" {
			req.Header.Set(TenantHeader, tenantHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("tenant user with matching header", func(t *testing.T) {
		rec := do(tokenFor(t, j, owner), tenant)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tenant, rec.Header().Get("X-Actor-Tenant"))
		assert.Equal(t, models.RoleOwner, rec.Header().Get("X-Actor-Role"))
	})

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("", tenant).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("not-a-jwt", tenant).Code)
	})

	t.Run("missing tenant header", func(t *testing.T) {
		rec := do(tokenFor(t, j, owner), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing tenant context")
	})

	t.Run("tenant mismatch", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(tokenFor(t, j, owner), uuid.NewString()).Code)
	})

	t.Run("superadmin may address any tenant", func(t *testing.T) {
		other := uuid.NewString()
		rec := do(tokenFor(t, j, root), other)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, other, rec.Header().Get("X-Actor-Tenant"))

		rec = do(tokenFor(t, j, root), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Actor-Tenant"))
	})

	t.Run("deactivated user", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(tokenFor(t, j, disabled), tenant).Code)
	})

	t.Run("empty role is rejected", func(t *testing.T) {
		noRole := &models.User{ID: uuid.NewString(), TenantID: tenant, Email: "n@x.test", IsActive: true}
		users[noRole.ID] = noRole
		assert.Equal(t, http.StatusUnauthorized, do(tokenFor(t, j, noRole), tenant).Code)
	})
}

func TestAuthenticate_WebsocketQueryToken(t *testing.T) {
	m, j, users := setup(t)
	tenant := uuid.NewString()
	u := &models.User{ID: uuid.NewString(), TenantID: tenant, Email: "a@x.test", Role: models.RoleAttendant, IsActive: true}
	users[u.ID] = u

	req := httptest.NewRequest(http.MethodGet, "/v1/alerts/stream?token="+tokenFor(t, j, u)+"&tenantId="+tenant, nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	m.Authenticate(echoActor).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// plain requests must use the header
	req = httptest.NewRequest(http.MethodGet, "/v1/stations?token="+tokenFor(t, j, u), nil)
	req.Header.Set(TenantHeader, tenant)
	rec = httptest.NewRecorder()
	m.Authenticate(echoActor).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(models.RoleOwner, models.RoleManager)(echoActor)

	serve := func(actor *models.Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if actor != nil {
			req = req.WithContext(WithActor(req.Context(), *actor))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(&models.Actor{Role: models.RoleManager}))
	assert.Equal(t, http.StatusForbidden, serve(&models.Actor{Role: models.RoleAttendant}))
	assert.Equal(t, http.StatusUnauthorized, serve(nil))
}

func TestRequireTenant(t *testing.T) {
	handler := RequireTenant(echoActor)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithActor(req.Context(), models.Actor{Role: models.RoleSuperAdmin}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
