package repositories

import (
	"context"
	"fmt"
	"time"

	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CreditorRepository struct {
	DB *pgxpool.Pool
}

func NewCreditorRepository(db *pgxpool.Pool) *CreditorRepository {
	return &CreditorRepository{DB: db}
}

const creditorColumns = `id, tenant_id, party_name, contact_number, address, credit_limit, balance, status, created_at, updated_at`

func scanCreditor(row interface{ Scan(...any) error }) (*models.Creditor, error) {
	var c models.Creditor
	err := row.Scan(&c.ID, &c.TenantID, &c.PartyName, &c.ContactNumber, &c.Address, &c.CreditLimit, &c.Balance,
		&c.Status, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func adjustBalance(ctx context.Context, q querier, tenantID, id string, delta float64) error {
	tag, err := q.Exec(ctx,
		`UPDATE creditors SET balance = balance + $3, updated_at=NOW() WHERE tenant_id=$1 AND id=$2`,
		tenantID, id, delta)
	if err != nil {
		return err
	}
	return affected(tag, "creditor")
}

func (r *CreditorRepository) Create(ctx context.Context, c *models.Creditor) error {
	c.ID = newID()
	return r.DB.QueryRow(ctx,
		`INSERT INTO creditors (id, tenant_id, party_name, contact_number, address, credit_limit, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING balance, created_at, updated_at`,
		c.ID, c.TenantID, c.PartyName, c.ContactNumber, c.Address, c.CreditLimit, c.Status,
	).Scan(&c.Balance, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CreditorRepository) Get(ctx context.Context, tenantID, id string) (*models.Creditor, error) {
	c, err := scanCreditor(r.DB.QueryRow(ctx,
		`SELECT `+creditorColumns+` FROM creditors WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if err != nil {
		return nil, notFound(err, "creditor")
	}
	return c, nil
}

func (r *CreditorRepository) List(ctx context.Context, tenantID string, activeOnly bool) ([]models.Creditor, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+creditorColumns+` FROM creditors
		 WHERE tenant_id=$1 AND (NOT $2 OR status='active')
		 ORDER BY party_name`, tenantID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Creditor{}
	for rows.Next() {
		c, err := scanCreditor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (r *CreditorRepository) Update(ctx context.Context, c *models.Creditor) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE creditors
		 SET party_name=$3, contact_number=$4, address=$5, credit_limit=$6, status=$7, updated_at=NOW()
		 WHERE tenant_id=$1 AND id=$2
		 RETURNING balance, created_at, updated_at`,
		c.TenantID, c.ID, c.PartyName, c.ContactNumber, c.Address, c.CreditLimit, c.Status,
	).Scan(&c.Balance, &c.CreatedAt, &c.UpdatedAt)
	return notFound(err, "creditor")
}

// MarkInactive is the creditor delete: history keeps referencing the row.
func (r *CreditorRepository) MarkInactive(ctx context.Context, tenantID, id string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE creditors SET status='inactive', updated_at=NOW() WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	return affected(tag, "creditor")
}

// RecordPayment inserts a payment and reduces the balance in one transaction.
// It fails with ErrFinalized when any station of the tenant has closed today.
func (r *CreditorRepository) RecordPayment(ctx context.Context, p *models.CreditPayment, today string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockTenantDay(ctx, tx, p.TenantID, today); err != nil {
		return err
	}
	var finalized bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM day_reconciliations
		                WHERE tenant_id=$1 AND business_date=$2::date AND finalized)`,
		p.TenantID, today,
	).Scan(&finalized)
	if err != nil {
		return err
	}
	if finalized {
		return fmt.Errorf("%w: payments are closed for %s", models.ErrFinalized, today)
	}

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM creditors WHERE tenant_id=$1 AND id=$2 FOR UPDATE`, p.TenantID, p.CreditorID,
	).Scan(&status)
	if err != nil {
		return notFound(err, "creditor")
	}

	p.ID = newID()
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = time.Now()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO credit_payments (id, tenant_id, creditor_id, amount, payment_method, reference_number, received_by, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.TenantID, p.CreditorID, p.Amount, p.PaymentMethod, p.ReferenceNumber, nullable(p.ReceivedBy), p.ReceivedAt)
	if err != nil {
		return conflict(err, "payment reference already recorded")
	}

	if err := adjustBalance(ctx, tx, p.TenantID, p.CreditorID, -p.Amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *CreditorRepository) ListPayments(ctx context.Context, tenantID, creditorID string) ([]models.CreditPayment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT cp.id, cp.creditor_id, c.party_name, cp.amount, cp.payment_method, cp.reference_number,
		        COALESCE(cp.received_by::text, ''), cp.received_at
		 FROM credit_payments cp
		 JOIN creditors c ON c.id = cp.creditor_id
		 WHERE cp.tenant_id=$1 AND ($2 = '' OR cp.creditor_id::text = $2)
		 ORDER BY cp.received_at DESC`, tenantID, creditorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.CreditPayment{}
	for rows.Next() {
		var p models.CreditPayment
		if err := rows.Scan(&p.ID, &p.CreditorID, &p.PartyName, &p.Amount, &p.PaymentMethod, &p.ReferenceNumber,
			&p.ReceivedBy, &p.ReceivedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Top returns active creditors with the largest outstanding balances.
func (r *CreditorRepository) Top(ctx context.Context, tenantID string, limit int) ([]models.TopCreditor, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, party_name, balance, credit_limit FROM creditors
		 WHERE tenant_id=$1 AND status='active' AND balance > 0
		 ORDER BY balance DESC
		 LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.TopCreditor{}
	for rows.Next() {
		var c models.TopCreditor
		if err := rows.Scan(&c.ID, &c.PartyName, &c.Outstanding, &c.CreditLimit); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
