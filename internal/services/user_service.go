package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/models"

	log "github.com/sirupsen/logrus"
)

const minPasswordLength = 8

// UserStore is implemented by *repositories.UserRepository.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, tenantID, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*models.User, error)
	List(ctx context.Context, tenantID string) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, tenantID, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetTOTP(ctx context.Context, id, secret string, enabled bool) error
	CountRole(ctx context.Context, tenantID, role string) (int, error)
}

type TenantGetter interface {
	Get(ctx context.Context, id string) (*models.Tenant, error)
}

type UserService struct {
	Repo       UserStore
	Tenants    TenantGetter
	JWTManager *auth.JWTManager
	TOTP       *TOTPService
}

func NewUserService(repo UserStore, tenants TenantGetter, jwtManager *auth.JWTManager, totpService *TOTPService) *UserService {
	return &UserService{
		Repo:       repo,
		Tenants:    tenants,
		JWTManager: jwtManager,
		TOTP:       totpService,
	}
}

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)

// Login authenticates a tenant user when tenantID is set and a superadmin
// otherwise. Accounts with 2FA get a temporary token instead of a session.
func (s *UserService) Login(ctx context.Context, tenantID string, req *models.LoginRequest) (*models.AuthResponse, *models.LoginStep1Response, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, nil, validationf("email and password are required")
	}

	if tenantID != "" {
		if !validID(tenantID) {
			return nil, nil, validationf("invalid tenant id")
		}
		tenant, err := s.Tenants.Get(ctx, tenantID)
		if err != nil {
			return nil, nil, errInvalidCredentials
		}
		if tenant.Status != models.TenantActive {
			return nil, nil, fmt.Errorf("%w: tenant is %s", models.ErrForbidden, tenant.Status)
		}
	}

	user, err := s.Repo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		log.Printf("[Auth] Failed login for %s", email)
		return nil, nil, errInvalidCredentials
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		log.Printf("[Auth] Failed login for %s", email)
		return nil, nil, errInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: account is disabled", models.ErrUnauthorized)
	}

	if user.TOTPEnabled {
		temp, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, nil, err
		}
		return nil, &models.LoginStep1Response{Requires2FA: true, TempToken: temp}, nil
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[Auth] %s logged in (%s)", user.Email, user.Role)
	return &models.AuthResponse{Token: token, User: user}, nil, nil
}

// VerifyTOTP completes a two step login.
func (s *UserService) VerifyTOTP(ctx context.Context, req *models.TOTPVerifyRequest) (*models.AuthResponse, error) {
	claims, err := s.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired token", models.ErrUnauthorized)
	}
	user, err := s.Repo.Get(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired token", models.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", models.ErrUnauthorized)
	}
	if !s.TOTP.Check(user, req.Code) {
		return nil, fmt.Errorf("%w: invalid verification code", models.ErrUnauthorized)
	}
	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.Repo.Get(ctx, actor.TenantID, actor.UserID)
}

func validatePassword(p string) error {
	if len(p) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// canAssign reports whether actor may create or edit a user with role.
// Managers only administer attendants.
func canAssign(actor models.Actor, role string) bool {
	switch actor.Role {
	case models.RoleOwner, models.RoleSuperAdmin:
		return models.ValidRole(role)
	case models.RoleManager:
		return role == models.RoleAttendant
	}
	return false
}

func validStationIDs(ids []string) error {
	for _, id := range ids {
		if !validID(id) {
			return validationf("invalid station id %q", id)
		}
	}
	return nil
}

func (s *UserService) Create(ctx context.Context, actor models.Actor, req *models.CreateUserRequest) (*models.User, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" || req.Role == "" {
		return nil, validationf("name, email, password and role are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationf("invalid email")
	}
	if !models.ValidRole(req.Role) {
		return nil, validationf("role must be owner, manager or attendant")
	}
	if !canAssign(actor, req.Role) {
		return nil, fmt.Errorf("%w: cannot create %s accounts", models.ErrForbidden, req.Role)
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := validStationIDs(req.StationIDs); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		TenantID:     actor.TenantID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		StationIDs:   req.StationIDs,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("[Users] Created %s %s in tenant %s", u.Role, u.Email, u.TenantID)
	return u, nil
}

func (s *UserService) List(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, actor.TenantID)
}

func (s *UserService) Get(ctx context.Context, actor models.Actor, id string) (*models.User, error) {
	if id != actor.UserID {
		if err := requireManager(actor); err != nil {
			return nil, err
		}
	}
	return s.Repo.Get(ctx, actor.TenantID, id)
}

func (s *UserService) Update(ctx context.Context, actor models.Actor, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	u, err := s.Repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !canAssign(actor, u.Role) {
		return nil, fmt.Errorf("%w: cannot edit %s accounts", models.ErrForbidden, u.Role)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		u.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, validationf("invalid email")
		}
		u.Email = email
	}
	if req.Role != "" && req.Role != u.Role {
		if !models.ValidRole(req.Role) {
			return nil, validationf("role must be owner, manager or attendant")
		}
		if !canAssign(actor, req.Role) {
			return nil, fmt.Errorf("%w: cannot assign role %s", models.ErrForbidden, req.Role)
		}
		if u.Role == models.RoleOwner {
			if err := s.keepAnOwner(ctx, actor.TenantID); err != nil {
				return nil, err
			}
		}
		u.Role = req.Role
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == actor.UserID {
			return nil, validationf("you cannot deactivate your own account")
		}
		u.IsActive = *req.IsActive
	}
	if req.StationIDs != nil {
		if err := validStationIDs(req.StationIDs); err != nil {
			return nil, err
		}
		u.StationIDs = req.StationIDs
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	if req.Password != "" {
		if err := s.setPassword(ctx, u.ID, req.Password); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// keepAnOwner refuses changes that would leave the tenant without an owner.
func (s *UserService) keepAnOwner(ctx context.Context, tenantID string) error {
	owners, err := s.Repo.CountRole(ctx, tenantID, models.RoleOwner)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return validationf("a tenant must keep at least one owner")
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return validationf("you cannot delete your own account")
	}
	u, err := s.Repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if !canAssign(actor, u.Role) {
		return fmt.Errorf("%w: cannot delete %s accounts", models.ErrForbidden, u.Role)
	}
	if u.Role == models.RoleOwner {
		if err := s.keepAnOwner(ctx, actor.TenantID); err != nil {
			return err
		}
	}
	if err := s.Repo.Delete(ctx, actor.TenantID, id); err != nil {
		return err
	}
	log.Printf("[Users] Deleted user %s from tenant %s", id, actor.TenantID)
	return nil
}

func (s *UserService) setPassword(ctx context.Context, id, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, id, hash)
}

// ChangePassword lets any user replace their own password.
func (s *UserService) ChangePassword(ctx context.Context, actor models.Actor, req *models.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return validationf("current and new password are required")
	}
	u, err := s.Repo.Get(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return validationf("current password is incorrect")
	}
	return s.setPassword(ctx, u.ID, req.NewPassword)
}

// ResetPassword sets another user's password without the current one.
func (s *UserService) ResetPassword(ctx context.Context, actor models.Actor, id, password string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	u, err := s.Repo.Get(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if !canAssign(actor, u.Role) {
		return fmt.Errorf("%w: cannot reset %s passwords", models.ErrForbidden, u.Role)
	}
	return s.setPassword(ctx, u.ID, password)
}
