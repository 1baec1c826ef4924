package services

import (
	"context"
	"strings"

	"fuelsync-backend/internal/models"
	"fuelsync-backend/internal/repositories"
	"fuelsync-backend/internal/timeutil"

	log "github.com/sirupsen/logrus"
)

type CreditorService struct {
	Repo *repositories.CreditorRepository
}

func NewCreditorService(repo *repositories.CreditorRepository) *CreditorService {
	return &CreditorService{Repo: repo}
}

func creditorFromRequest(req *models.CreditorRequest) (*models.Creditor, error) {
	name := strings.TrimSpace(req.PartyName)
	if name == "" {
		return nil, validationf("partyName is required")
	}
	if req.CreditLimit < 0 {
		return nil, validationf("creditLimit must not be negative")
	}
	status := req.Status
	if status == "" {
		status = models.StatusActive
	}
	if status != models.StatusActive && status != models.StatusInactive {
		return nil, validationf("invalid status %q", status)
	}
	return &models.Creditor{
		PartyName:     name,
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		Address:       strings.TrimSpace(req.Address),
		CreditLimit:   req.CreditLimit,
		Status:        status,
	}, nil
}

func (s *CreditorService) Create(ctx context.Context, actor models.Actor, req *models.CreditorRequest) (*models.Creditor, error) {
	c, err := creditorFromRequest(req)
	if err != nil {
		return nil, err
	}
	c.TenantID = actor.TenantID
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CreditorService) List(ctx context.Context, actor models.Actor, activeOnly bool) ([]models.Creditor, error) {
	return s.Repo.List(ctx, actor.TenantID, activeOnly)
}

func (s *CreditorService) Get(ctx context.Context, actor models.Actor, id string) (*models.Creditor, error) {
	return s.Repo.Get(ctx, actor.TenantID, id)
}

func (s *CreditorService) Update(ctx context.Context, actor models.Actor, id string, req *models.CreditorRequest) (*models.Creditor, error) {
	c, err := creditorFromRequest(req)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.TenantID = actor.TenantID
	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.Repo.Get(ctx, actor.TenantID, id)
}

// Delete deactivates the creditor; its history stays.
func (s *CreditorService) Delete(ctx context.Context, actor models.Actor, id string) error {
	return s.Repo.MarkInactive(ctx, actor.TenantID, id)
}

// RecordPayment settles part of a creditor's balance.
func (s *CreditorService) RecordPayment(ctx context.Context, actor models.Actor, req *models.CreditPaymentRequest) (*models.CreditPayment, error) {
	if !validID(req.CreditorID) {
		return nil, validationf("creditorId is required")
	}
	if req.Amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	if !models.ValidPaymentMethod(method) || method == models.PaymentCredit {
		return nil, validationf("invalid payment method %q", method)
	}

	p := &models.CreditPayment{
		TenantID:        actor.TenantID,
		CreditorID:      req.CreditorID,
		Amount:          req.Amount,
		PaymentMethod:   method,
		ReferenceNumber: strings.TrimSpace(req.ReferenceNumber),
		ReceivedBy:      actor.UserID,
		ReceivedAt:      timeutil.Now(),
	}
	if err := s.Repo.RecordPayment(ctx, p, timeutil.BusinessDate(p.ReceivedAt)); err != nil {
		return nil, parentRef(err, "creditor")
	}
	log.Printf("[Creditors] Payment of %.2f recorded for creditor %s", p.Amount, p.CreditorID)
	return p, nil
}

func (s *CreditorService) ListPayments(ctx context.Context, actor models.Actor, creditorID string) ([]models.CreditPayment, error) {
	return s.Repo.ListPayments(ctx, actor.TenantID, creditorID)
}
