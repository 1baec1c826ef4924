package repositories

import (
	"context"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, COALESCE(tenant_id::text, ''), name, email, password_hash, role, is_active,
	totp_enabled, COALESCE(totp_secret, ''), created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.TOTPEnabled, &u.TOTPSecret, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func insertUser(ctx context.Context, q querier, u *models.User) error {
	u.ID = newID()
	u.IsActive = true
	err := q.QueryRow(ctx,
		`INSERT INTO users (id, tenant_id, name, email, password_hash, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		u.ID, nullable(u.TenantID), u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return conflict(err, "email already registered")
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	if err := setStations(ctx, tx, u.ID, u.StationIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get loads a user by id. An empty tenantID only matches superadmins.
func (r *UserRepository) Get(ctx context.Context, tenantID, id string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id=$1 AND tenant_id IS NOT DISTINCT FROM $2`, id, nullable(tenantID)))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, r.loadStations(ctx, u)
}

// GetByEmail is the login lookup; an empty tenantID selects superadmins.
func (r *UserRepository) GetByEmail(ctx context.Context, tenantID, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE LOWER(email)=LOWER($1) AND tenant_id IS NOT DISTINCT FROM $2`, email, nullable(tenantID)))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, tenantID string) ([]models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id=$1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE users SET name=$3, email=$4, role=$5, is_active=$6, updated_at=NOW()
		 WHERE id=$1 AND tenant_id=$2`,
		u.ID, u.TenantID, u.Name, u.Email, u.Role, u.IsActive)
	if err != nil {
		return conflict(err, "email already registered")
	}
	if err := affected(tag, "user"); err != nil {
		return err
	}
	if u.StationIDs != nil {
		if err := setStations(ctx, tx, u.ID, u.StationIDs); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *UserRepository) Delete(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if err != nil {
		return err
	}
	return affected(tag, "user")
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, id, hash)
	if err != nil {
		return err
	}
	return affected(tag, "user")
}

// SetTOTP stores the secret; enabled stays false until the first code is verified.
func (r *UserRepository) SetTOTP(ctx context.Context, id, secret string, enabled bool) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET totp_secret=NULLIF($2, ''), totp_enabled=$3, updated_at=NOW() WHERE id=$1`,
		id, secret, enabled)
	if err != nil {
		return err
	}
	return affected(tag, "user")
}

func setStations(ctx context.Context, q querier, userID string, stationIDs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM user_stations WHERE user_id=$1`, userID); err != nil {
		return err
	}
	for _, sid := range stationIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO user_stations (user_id, station_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, sid); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) loadStations(ctx context.Context, u *models.User) error {
	rows, err := r.DB.Query(ctx, `SELECT station_id FROM user_stations WHERE user_id=$1`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		u.StationIDs = append(u.StationIDs, id)
	}
	return rows.Err()
}

// CountRole counts the tenant's users holding role.
func (r *UserRepository) CountRole(ctx context.Context, tenantID, role string) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id=$1 AND role=$2`, tenantID, role).Scan(&n)
	return n, err
}
