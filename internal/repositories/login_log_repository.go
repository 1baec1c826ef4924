package repositories

import (
	"context"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LoginLogRepository struct {
	DB *pgxpool.Pool
}

func NewLoginLogRepository(db *pgxpool.Pool) *LoginLogRepository {
	return &LoginLogRepository{DB: db}
}

// CreateLoginLog records a login attempt
func (r *LoginLogRepository) CreateLoginLog(ctx context.Context, l *models.LoginLog) error {
	l.ID = newID()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO login_logs (id, tenant_id, user_id, email, success, step, reason, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, nullable(l.TenantID), nullable(l.UserID), l.Email, l.Success, l.Step, l.Reason,
		l.IPAddress, l.UserAgent, l.CreatedAt)
	return err
}

// ListLoginLogs returns the newest attempts first; an empty tenantID lists
// every tenant.
func (r *LoginLogRepository) ListLoginLogs(ctx context.Context, tenantID string, limit int) ([]models.LoginLog, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, COALESCE(tenant_id::text, ''), COALESCE(user_id::text, ''), email, success, step, reason,
		       ip_address, user_agent, created_at
		FROM login_logs
		WHERE ($1 = '' OR tenant_id::text = $1)
		ORDER BY created_at DESC
		LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.LoginLog{}
	for rows.Next() {
		var l models.LoginLog
		if err := rows.Scan(&l.ID, &l.TenantID, &l.UserID, &l.Email, &l.Success, &l.Step, &l.Reason,
			&l.IPAddress, &l.UserAgent, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
