package repositories

import (
	"context"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminActionLogRepository struct {
	DB *pgxpool.Pool
}

func NewAdminActionLogRepository(db *pgxpool.Pool) *AdminActionLogRepository {
	return &AdminActionLogRepository{DB: db}
}

// CreateActionLog records an admin action
func (r *AdminActionLogRepository) CreateActionLog(ctx context.Context, l *models.AdminActionLog) error {
	l.ID = newID()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO admin_action_logs (
			id, tenant_id, actor_id, actor_role, action_type, target_type, target_id,
			description, ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, nullable(l.TenantID), nullable(l.ActorID), l.ActorRole, l.ActionType, l.TargetType, l.TargetID,
		l.Description, l.IPAddress, l.CreatedAt)
	return err
}

// ListActionLogs returns actions with the acting user's name, newest first.
func (r *AdminActionLogRepository) ListActionLogs(ctx context.Context, tenantID string, limit int) ([]models.AdminActionLog, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT al.id, COALESCE(al.tenant_id::text, ''), COALESCE(al.actor_id::text, ''), COALESCE(u.name, ''),
		       al.actor_role, al.action_type, al.target_type, al.target_id, al.description, al.ip_address, al.created_at
		FROM admin_action_logs al
		LEFT JOIN users u ON u.id = al.actor_id
		WHERE ($1 = '' OR al.tenant_id::text = $1)
		ORDER BY al.created_at DESC
		LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.AdminActionLog{}
	for rows.Next() {
		var l models.AdminActionLog
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ActorID, &l.ActorName, &l.ActorRole, &l.ActionType,
			&l.TargetType, &l.TargetID, &l.Description, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
