// Command resetdb prepares a database for testing: it applies migrations,
// optionally wipes every tenant, and makes sure a superadmin can log in.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/database"
	"fuelsync-backend/internal/db"
	"fuelsync-backend/migrations"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Truncation order does not matter with CASCADE; plans and the
// superadmin account are kept.
var tenantTables = []string{
	"admin_action_logs",
	"login_logs",
	"report_archives",
	"alerts",
	"cash_reports",
	"day_reconciliations",
	"fuel_deliveries",
	"sales",
	"nozzle_readings",
	"credit_payments",
	"creditors",
	"fuel_prices",
	"user_stations",
	"nozzles",
	"pumps",
	"stations",
	"tenants",
}

func main() {
	wipe := flag.Bool("wipe", false, "delete all tenants and their data")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	email := flag.String("email", os.Getenv("SUPERADMIN_EMAIL"), "superadmin email")
	password := flag.String("password", os.Getenv("SUPERADMIN_PASSWORD"), "superadmin password")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	if *wipe && !*yes {
		fmt.Printf("This will DELETE ALL TENANT DATA in %s@%s. Type 'yes' to confirm: ", cfg.Database.Name, cfg.Database.Host)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	if err := database.NewMigratorWithFS(pool, migrations.FS, ".").RunMigrations(ctx); err != nil {
		log.Fatalf("[Reset] migrations: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("[Reset] begin: %v", err)
	}
	defer tx.Rollback(ctx)

	if *wipe {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+strings.Join(tenantTables, ", ")+" CASCADE"); err != nil {
			log.Fatalf("[Reset] truncate: %v", err)
		}
		log.Printf("[Reset] Cleared %d tables", len(tenantTables))
	}

	if *email != "" {
		if len(*password) < 8 {
			log.Fatal("[Reset] superadmin password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*password)
		if err != nil {
			log.Fatalf("[Reset] hash password: %v", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE users SET password_hash = $2, is_active = TRUE, updated_at = NOW()
			WHERE tenant_id IS NULL AND LOWER(email) = LOWER($1)`, *email, hash)
		if err != nil {
			log.Fatalf("[Reset] update superadmin: %v", err)
		}
		if tag.RowsAffected() == 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO users (id, tenant_id, name, email, password_hash, role)
				VALUES ($1, NULL, 'Administrator', $2, $3, 'superadmin')`,
				uuid.NewString(), *email, hash)
			if err != nil {
				log.Fatalf("[Reset] create superadmin: %v", err)
			}
		}
		log.Printf("[Reset] Superadmin %s ready", *email)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("[Reset] commit: %v", err)
	}
	log.Println("[Reset] Done")
}
