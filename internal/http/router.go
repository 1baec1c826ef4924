package http

import (
	"net/http"

	"fuelsync-backend/internal/handlers"
	"fuelsync-backend/internal/metrics"
	"fuelsync-backend/internal/middleware"
	"fuelsync-backend/internal/models"

	"github.com/gorilla/mux"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth           *handlers.AuthHandler
	Users          *handlers.UserHandler
	Stations       *handlers.StationHandler
	Readings       *handlers.ReadingHandler
	Prices         *handlers.FuelPriceHandler
	Creditors      *handlers.CreditorHandler
	Razorpay       *handlers.RazorpayHandler
	Deliveries     *handlers.DeliveryHandler
	Reconciliation *handlers.ReconciliationHandler
	Alerts         *handlers.AlertHandler
	Dashboard      *handlers.DashboardHandler
	Monitoring     *handlers.MonitoringHandler
	Reports        *handlers.ReportHandler
	Tenants        *handlers.TenantHandler
	Selection      *handlers.SelectionHandler
	Health         *handlers.HealthHandler
	Audit          *handlers.AuditHandler
}

// NewRouter mounts the API under /v1 and /api/v1 and wraps it with panic
// recovery, request metrics and CORS.
func NewRouter(h *Handlers, authMiddleware *middleware.AuthMiddleware, loginLimiter *middleware.RateLimiter, corsHandler func(http.Handler) http.Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.MetricsMiddleware)

	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", metrics.Handler())

	for _, prefix := range []string{"/v1", "/api/v1"} {
		registerAPI(r.PathPrefix(prefix).Subrouter(), h, authMiddleware, loginLimiter)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"Not found"}`))
	})

	return corsHandler(r)
}

func registerAPI(api *mux.Router, h *Handlers, authMiddleware *middleware.AuthMiddleware, loginLimiter *middleware.RateLimiter) {
	limited := func(fn http.HandlerFunc) http.Handler { return loginLimiter.Handler(fn) }

	// Public
	api.Handle("/auth/login", limited(h.Auth.Login)).Methods("POST")
	api.Handle("/auth/verify-2fa", limited(h.Auth.VerifyTOTP)).Methods("POST")
	api.HandleFunc("/payments/webhook", h.Razorpay.HandleWebhook).Methods("POST")

	// Any authenticated caller
	authed := api.NewRoute().Subrouter()
	authed.Use(authMiddleware.Authenticate)
	authed.HandleFunc("/auth/me", h.Auth.Me).Methods("GET")
	authed.HandleFunc("/auth/change-password", h.Auth.ChangePassword).Methods("POST")
	authed.HandleFunc("/auth/2fa/setup", h.Auth.SetupTOTP).Methods("POST")
	authed.HandleFunc("/auth/2fa/enable", h.Auth.EnableTOTP).Methods("POST")
	authed.HandleFunc("/auth/2fa/disable", h.Auth.DisableTOTP).Methods("POST")
	authed.HandleFunc("/plans", h.Tenants.ListPlans).Methods("GET")
	authed.HandleFunc("/dashboard", h.Dashboard.Dashboard).Methods("GET")

	// Superadmin platform administration
	superadmin := middleware.RequireRole(models.RoleSuperAdmin)
	admin := authed.PathPrefix("/admin").Subrouter()
	admin.Use(superadmin)
	admin.HandleFunc("/tenants", h.Tenants.CreateTenant).Methods("POST")
	admin.HandleFunc("/tenants", h.Tenants.ListTenants).Methods("GET")
	admin.HandleFunc("/tenants/{id}", h.Tenants.GetTenant).Methods("GET")
	admin.HandleFunc("/tenants/{id}/status", h.Tenants.UpdateTenantStatus).Methods("PATCH")
	admin.HandleFunc("/plans", h.Tenants.CreatePlan).Methods("POST")
	admin.HandleFunc("/plans/{id}", h.Tenants.UpdatePlan).Methods("PUT")
	admin.HandleFunc("/plans/{id}", h.Tenants.DeletePlan).Methods("DELETE")
	authed.Handle("/analytics/system-health", superadmin(http.HandlerFunc(h.Monitoring.SystemHealth))).Methods("GET")

	managers := middleware.RequireRole(models.RoleOwner, models.RoleManager, models.RoleSuperAdmin)
	manage := func(fn http.HandlerFunc) http.Handler { return managers(fn) }

	// Audit history; the superadmin without a tenant header sees every tenant
	authed.Handle("/audit/logins", manage(h.Audit.ListLoginLogs)).Methods("GET")
	authed.Handle("/audit/actions", manage(h.Audit.ListActionLogs)).Methods("GET")

	// Tenant scoped
	t := authed.NewRoute().Subrouter()
	t.Use(middleware.RequireTenant)

	t.HandleFunc("/tenant/usage", h.Tenants.Usage).Methods("GET")

	t.Handle("/users", manage(h.Users.CreateUser)).Methods("POST")
	t.Handle("/users", manage(h.Users.ListUsers)).Methods("GET")
	t.Handle("/users/{id}", manage(h.Users.GetUser)).Methods("GET")
	t.Handle("/users/{id}", manage(h.Users.UpdateUser)).Methods("PUT")
	t.Handle("/users/{id}", manage(h.Users.DeleteUser)).Methods("DELETE")
	t.Handle("/users/{id}/reset-password", manage(h.Users.ResetPassword)).Methods("POST")

	t.Handle("/stations", manage(h.Stations.CreateStation)).Methods("POST")
	t.HandleFunc("/stations", h.Stations.ListStations).Methods("GET")
	t.Handle("/stations/ranking", manage(h.Stations.StationRanking)).Methods("GET")
	t.HandleFunc("/stations/{id}", h.Stations.GetStation).Methods("GET")
	t.Handle("/stations/{id}", manage(h.Stations.UpdateStation)).Methods("PUT")
	t.Handle("/stations/{id}", manage(h.Stations.DeleteStation)).Methods("DELETE")
	t.HandleFunc("/stations/{id}/metrics", h.Stations.StationMetrics).Methods("GET")

	t.Handle("/pumps", manage(h.Stations.CreatePump)).Methods("POST")
	t.HandleFunc("/pumps", h.Stations.ListPumps).Methods("GET")
	t.HandleFunc("/pumps/{id}", h.Stations.GetPump).Methods("GET")
	t.Handle("/pumps/{id}", manage(h.Stations.UpdatePump)).Methods("PUT")
	t.Handle("/pumps/{id}", manage(h.Stations.DeletePump)).Methods("DELETE")

	t.Handle("/nozzles", manage(h.Stations.CreateNozzle)).Methods("POST")
	t.HandleFunc("/nozzles", h.Stations.ListNozzles).Methods("GET")
	t.HandleFunc("/nozzles/{id}", h.Stations.GetNozzle).Methods("GET")
	t.Handle("/nozzles/{id}", manage(h.Stations.UpdateNozzle)).Methods("PUT")
	t.Handle("/nozzles/{id}", manage(h.Stations.DeleteNozzle)).Methods("DELETE")

	t.HandleFunc("/nozzle-readings", h.Readings.CreateReading).Methods("POST")
	t.HandleFunc("/nozzle-readings", h.Readings.ListReadings).Methods("GET")
	t.HandleFunc("/nozzle-readings/preview", h.Readings.PreviewReading).Methods("POST")
	t.HandleFunc("/nozzle-readings/can-create/{nozzleId}", h.Readings.CanCreate).Methods("GET")
	t.HandleFunc("/nozzle-readings/{id}", h.Readings.GetReading).Methods("GET")
	t.Handle("/nozzle-readings/{id}/void", manage(h.Readings.VoidReading)).Methods("POST")

	t.HandleFunc("/attendant/selection", h.Selection.Resolve).Methods("GET")

	t.Handle("/fuel-prices", manage(h.Prices.CreatePrice)).Methods("POST")
	t.HandleFunc("/fuel-prices", h.Prices.ListPrices).Methods("GET")
	t.HandleFunc("/fuel-prices/current", h.Prices.CurrentPrice).Methods("GET")
	t.Handle("/fuel-prices/{id}", manage(h.Prices.UpdatePrice)).Methods("PUT")
	t.Handle("/fuel-prices/{id}", manage(h.Prices.DeletePrice)).Methods("DELETE")

	t.Handle("/creditors", manage(h.Creditors.CreateCreditor)).Methods("POST")
	t.HandleFunc("/creditors", h.Creditors.ListCreditors).Methods("GET")
	t.HandleFunc("/creditors/{id}", h.Creditors.GetCreditor).Methods("GET")
	t.Handle("/creditors/{id}", manage(h.Creditors.UpdateCreditor)).Methods("PUT")
	t.Handle("/creditors/{id}", manage(h.Creditors.DeleteCreditor)).Methods("DELETE")
	t.Handle("/credit-payments", manage(h.Creditors.RecordPayment)).Methods("POST")
	t.Handle("/credit-payments", manage(h.Creditors.ListPayments)).Methods("GET")

	t.HandleFunc("/payments/status", h.Razorpay.CheckPaymentStatus).Methods("GET")
	t.Handle("/payments/create-order", manage(h.Razorpay.CreateOrder)).Methods("POST")
	t.Handle("/payments/verify", manage(h.Razorpay.VerifyPayment)).Methods("POST")

	t.Handle("/fuel-deliveries", manage(h.Deliveries.CreateDelivery)).Methods("POST")
	t.HandleFunc("/fuel-deliveries", h.Deliveries.ListDeliveries).Methods("GET")
	t.HandleFunc("/fuel-inventory", h.Deliveries.Inventory).Methods("GET")

	t.Handle("/reconciliation", manage(h.Reconciliation.RunReconciliation)).Methods("POST")
	t.Handle("/reconciliation", manage(h.Reconciliation.ListReconciliations)).Methods("GET")
	t.HandleFunc("/reconciliation/summary", h.Reconciliation.DailySummary).Methods("GET")
	t.HandleFunc("/cash-reports", h.Reconciliation.SubmitCashReport).Methods("POST")
	t.HandleFunc("/cash-reports", h.Reconciliation.ListCashReports).Methods("GET")

	t.HandleFunc("/alerts", h.Alerts.ListAlerts).Methods("GET")
	t.HandleFunc("/alerts/count", h.Alerts.CountUnread).Methods("GET")
	t.HandleFunc("/alerts/stream", h.Alerts.Stream).Methods("GET")
	t.Handle("/alerts/run", manage(h.Alerts.RunRules)).Methods("POST")
	t.HandleFunc("/alerts/{id}/read", h.Alerts.MarkRead).Methods("PATCH")
	t.Handle("/alerts/{id}", manage(h.Alerts.DeleteAlert)).Methods("DELETE")

	t.HandleFunc("/dashboard/sales-summary", h.Dashboard.SalesSummary).Methods("GET")
	t.HandleFunc("/dashboard/payment-methods", h.Dashboard.PaymentMethods).Methods("GET")
	t.HandleFunc("/dashboard/fuel-types", h.Dashboard.FuelTypes).Methods("GET")
	t.Handle("/dashboard/top-creditors", manage(h.Dashboard.TopCreditors)).Methods("GET")
	t.HandleFunc("/dashboard/daily-trend", h.Dashboard.DailyTrend).Methods("GET")
	t.HandleFunc("/analytics/hourly-sales", h.Dashboard.HourlySales).Methods("GET")
	t.HandleFunc("/analytics/peak-hours", h.Dashboard.PeakHour).Methods("GET")
	t.HandleFunc("/analytics/fuel-performance", h.Dashboard.FuelPerformance).Methods("GET")

	t.HandleFunc("/reports/sales", h.Reports.SalesReport).Methods("GET")
	t.Handle("/reports/archives", manage(h.Reports.ListArchives)).Methods("GET")
}
