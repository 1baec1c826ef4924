package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/database"
	"fuelsync-backend/internal/db"
	"fuelsync-backend/internal/handlers"
	"fuelsync-backend/internal/health"
	h "fuelsync-backend/internal/http"
	"fuelsync-backend/internal/logging"
	"fuelsync-backend/internal/middleware"
	"fuelsync-backend/internal/monitoring"
	"fuelsync-backend/internal/realtime"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/services"
	"fuelsync-backend/internal/storage"
	"fuelsync-backend/migrations"

	log "github.com/sirupsen/logrus"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := db.Connect(cfg)
	defer pool.Close()
	log.Println("[DB] Connected to PostgreSQL")

	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("[Migrations] %v", err)
	}
	if *migrateOnly {
		return
	}

	if err := cache.Init(cfg); err != nil {
		log.Warnf("[Redis] Unavailable, caching disabled: %v", err)
	} else {
		log.Printf("[Redis] Connected to %s", cfg.Redis.Addr)
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepository(pool)
	userRepo := repositories.NewUserRepository(pool)
	stationRepo := repositories.NewStationRepository(pool)
	pumpRepo := repositories.NewPumpRepository(pool)
	nozzleRepo := repositories.NewNozzleRepository(pool)
	readingRepo := repositories.NewReadingRepository(pool)
	priceRepo := repositories.NewFuelPriceRepository(pool)
	creditorRepo := repositories.NewCreditorRepository(pool)
	deliveryRepo := repositories.NewDeliveryRepository(pool)
	reconciliationRepo := repositories.NewReconciliationRepository(pool)
	alertRepo := repositories.NewAlertRepository(pool)
	dashboardRepo := repositories.NewDashboardRepository(pool)
	reportRepo := repositories.NewReportRepository(pool)
	loginLogRepo := repositories.NewLoginLogRepository(pool)
	actionLogRepo := repositories.NewAdminActionLogRepository(pool)

	hub := realtime.NewHub()
	go hub.Run(ctx)

	archive, err := storage.New(ctx, cfg)
	if err != nil {
		log.Warnf("[Storage] Report archive disabled: %v", err)
	}

	// Services
	jwtManager := auth.NewJWTManager(cfg)
	scope := services.UserStationScope{Users: userRepo}
	ttl := cfg.Redis.ListTTL

	auditService := services.NewAuditService(loginLogRepo, actionLogRepo)
	totpService := services.NewTOTPService(userRepo)
	userService := services.NewUserService(userRepo, tenantRepo, jwtManager, totpService)
	tenantService := services.NewTenantService(tenantRepo, stationRepo)
	stationService := services.NewStationService(stationRepo, tenantRepo, scope, ttl)
	pumpService := services.NewPumpService(pumpRepo, stationRepo, tenantRepo, nozzleRepo, scope, ttl)
	nozzleService := services.NewNozzleService(nozzleRepo, pumpRepo, tenantRepo, scope, ttl)
	selectionService := services.NewSelectionService(stationService, pumpService, nozzleService)

	readingStore := services.NewReadingStore(readingRepo)
	readingService := services.NewReadingService(readingStore, cfg, hub)
	readingService.Scope = scope

	priceService := services.NewFuelPriceService(priceRepo, stationRepo)
	creditorService := services.NewCreditorService(creditorRepo)
	razorpayService := services.NewRazorpayService(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.WebhookSecret, creditorService)
	deliveryService := services.NewDeliveryService(deliveryRepo, stationRepo, scope)
	reconciliationService := services.NewReconciliationService(reconciliationRepo, stationRepo, scope)
	alertService := services.NewAlertService(alertRepo, tenantRepo, hub, cfg)
	dashboardService := services.NewDashboardService(dashboardRepo, stationRepo, creditorRepo, tenantRepo,
		readingStore, monitoring.NewCollector(pool), scope, ttl)

	var archiver services.Archiver
	var objectStore handlers.ObjectStore
	if archive != nil {
		archiver = archive
		objectStore = archive
	}
	reportService := services.NewReportService(reportRepo, archiver, scope)

	if cfg.Alerts.Enabled {
		scheduler, err := alertService.Schedule(ctx, cfg.Alerts.Schedule)
		if err != nil {
			log.Fatalf("[Alerts] invalid schedule %q: %v", cfg.Alerts.Schedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("[Alerts] Rules scheduled %s", cfg.Alerts.Schedule)
	}

	readingHandler := handlers.NewReadingHandler(readingService)
	readingHandler.Audit = auditService

	// HTTP
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	loginLimiter := middleware.NewRateLimiter(cfg.Server.LoginRatePerMinute).TrustProxies(cfg.Server.TrustedProxies...)
	loginLimiter.StartCleanup(5*time.Minute, ctx.Done())

	router := h.NewRouter(&h.Handlers{
		Auth:           handlers.NewAuthHandler(userService, totpService, auditService),
		Users:          handlers.NewUserHandler(userService, auditService),
		Stations:       handlers.NewStationHandler(stationService, pumpService, nozzleService),
		Readings:       readingHandler,
		Prices:         handlers.NewFuelPriceHandler(priceService),
		Creditors:      handlers.NewCreditorHandler(creditorService),
		Razorpay:       handlers.NewRazorpayHandler(razorpayService),
		Deliveries:     handlers.NewDeliveryHandler(deliveryService),
		Reconciliation: handlers.NewReconciliationHandler(reconciliationService),
		Alerts:         handlers.NewAlertHandler(alertService, hub),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Monitoring:     handlers.NewMonitoringHandler(dashboardService, hub, objectStore),
		Reports:        handlers.NewReportHandler(reportService),
		Tenants:        handlers.NewTenantHandler(tenantService, auditService),
		Selection:      handlers.NewSelectionHandler(selectionService),
		Health:         handlers.NewHealthHandler(health.NewHealthChecker(pool)),
		Audit:          handlers.NewAuditHandler(auditService),
	}, authMiddleware, loginLimiter, middleware.NewCORS(cfg))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
}
