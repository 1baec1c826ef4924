package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/config"
	"fuelsync-backend/internal/models"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	users map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]*models.User{}} }

func (m *memUsers) add(t *testing.T, tenantID, email, password, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{ID: uuid.NewString(), TenantID: tenantID, Name: email, Email: email,
		PasswordHash: hash, Role: role, IsActive: true}
	m.users[u.ID] = u
	return u
}

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	for _, e := range m.users {
		if e.TenantID == u.TenantID && e.Email == u.Email {
			return models.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	u.IsActive = true
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Get(ctx context.Context, tenantID, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, tenantID, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.TenantID == tenantID && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memUsers) List(ctx context.Context, tenantID string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, u *models.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) Delete(ctx context.Context, tenantID, id string) error {
	delete(m.users, id)
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	m.users[id].PasswordHash = hash
	return nil
}

func (m *memUsers) SetTOTP(ctx context.Context, id, secret string, enabled bool) error {
	m.users[id].TOTPSecret = secret
	m.users[id].TOTPEnabled = enabled
	return nil
}

func (m *memUsers) CountRole(ctx context.Context, tenantID, role string) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.TenantID == tenantID && u.Role == role {
			n++
		}
	}
	return n, nil
}

type memTenants map[string]*models.Tenant

func (m memTenants) Get(ctx context.Context, id string) (*models.Tenant, error) {
	t, ok := m[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return t, nil
}

func newUserFixture() (*UserService, *memUsers, *auth.JWTManager) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "test"
	jwtManager := auth.NewJWTManager(cfg)

	users := newMemUsers()
	tenants := memTenants{
		testTenant: {ID: testTenant, Name: "Acme Fuels", Status: models.TenantActive},
	}
	return NewUserService(users, tenants, jwtManager, NewTOTPService(users)), users, jwtManager
}

func TestUserService_Login(t *testing.T) {
	svc, users, jwtManager := newUserFixture()
	ctx := context.Background()
	owner := users.add(t, testTenant, "owner@acme.test", "secret123", models.RoleOwner)
	users.add(t, "", "root@fuelsync.test", "rootpass1", models.RoleSuperAdmin)

	t.Run("tenant user", func(t *testing.T) {
		resp, step, err := svc.Login(ctx, testTenant, &models.LoginRequest{Email: "OWNER@acme.test", Password: "secret123"})
		require.NoError(t, err)
		assert.Nil(t, step)
		claims, err := jwtManager.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, claims.UserID)
		assert.Equal(t, testTenant, claims.TenantID)
		assert.Equal(t, models.RoleOwner, claims.Role)
	})

	t.Run("superadmin without tenant header", func(t *testing.T) {
		resp, _, err := svc.Login(ctx, "", &models.LoginRequest{Email: "root@fuelsync.test", Password: "rootpass1"})
		require.NoError(t, err)
		assert.Equal(t, models.RoleSuperAdmin, resp.User.Role)
	})

	t.Run("tenant user cannot log in as superadmin", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "", &models.LoginRequest{Email: "owner@acme.test", Password: "secret123"})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, testTenant, &models.LoginRequest{Email: "owner@acme.test", Password: "nope"})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, _, err := svc.Login(ctx, uuid.NewString(), &models.LoginRequest{Email: "owner@acme.test", Password: "secret123"})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("inactive user", func(t *testing.T) {
		u := users.add(t, testTenant, "gone@acme.test", "secret123", models.RoleAttendant)
		u.IsActive = false
		_, _, err := svc.Login(ctx, testTenant, &models.LoginRequest{Email: "gone@acme.test", Password: "secret123"})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := svc.Login(ctx, testTenant, &models.LoginRequest{Email: "owner@acme.test"})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestUserService_TwoFactorLogin(t *testing.T) {
	svc, users, _ := newUserFixture()
	ctx := context.Background()
	u := users.add(t, testTenant, "mgr@acme.test", "secret123", models.RoleManager)
	actor := models.Actor{UserID: u.ID, TenantID: testTenant, Role: u.Role}

	setup, err := svc.TOTP.GenerateSetup(ctx, actor)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	assert.ErrorIs(t, svc.TOTP.Enable(ctx, actor, "000000"), models.ErrValidation)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.TOTP.Enable(ctx, actor, code))

	resp, step, err := svc.Login(ctx, testTenant, &models.LoginRequest{Email: "mgr@acme.test", Password: "secret123"})
	require.NoError(t, err)
	assert.Nil(t, resp)
	require.NotNil(t, step)
	assert.True(t, step.Requires2FA)

	_, err = svc.VerifyTOTP(ctx, &models.TOTPVerifyRequest{TempToken: step.TempToken, Code: "123"})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	resp, err = svc.VerifyTOTP(ctx, &models.TOTPVerifyRequest{TempToken: step.TempToken, Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestUserService_RoleRules(t *testing.T) {
	svc, users, _ := newUserFixture()
	ctx := context.Background()
	owner := users.add(t, testTenant, "owner@acme.test", "secret123", models.RoleOwner)
	mgr := users.add(t, testTenant, "mgr@acme.test", "secret123", models.RoleManager)
	ownerActor := models.Actor{UserID: owner.ID, TenantID: testTenant, Role: models.RoleOwner}
	mgrActor := models.Actor{UserID: mgr.ID, TenantID: testTenant, Role: models.RoleManager}

	_, err := svc.Create(ctx, mgrActor, &models.CreateUserRequest{
		Name: "New Manager", Email: "m2@acme.test", Password: "secret123", Role: models.RoleManager,
	})
	assert.ErrorIs(t, err, models.ErrForbidden)

	att, err := svc.Create(ctx, mgrActor, &models.CreateUserRequest{
		Name: "Pump Boy", Email: "Att@Acme.test", Password: "secret123", Role: models.RoleAttendant,
		StationIDs: []string{testStation},
	})
	require.NoError(t, err)
	assert.Equal(t, "att@acme.test", att.Email)
	assert.Equal(t, testTenant, att.TenantID)

	_, err = svc.Create(ctx, ownerActor, &models.CreateUserRequest{
		Name: "x", Email: "x@acme.test", Password: "short", Role: models.RoleAttendant,
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, ownerActor, &models.CreateUserRequest{
		Name: "x", Email: "x@acme.test", Password: "secret123", Role: models.RoleSuperAdmin,
	})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Create(ctx, testActor, &models.CreateUserRequest{
		Name: "x", Email: "x@acme.test", Password: "secret123", Role: models.RoleAttendant,
	})
	assert.ErrorIs(t, err, models.ErrForbidden)

	// the last owner cannot be removed or demoted
	other := users.add(t, testTenant, "owner2@acme.test", "secret123", models.RoleOwner)
	require.NoError(t, svc.Delete(ctx, ownerActor, other.ID))
	_, err = svc.Update(ctx, ownerActor, owner.ID, &models.UpdateUserRequest{Role: models.RoleManager})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.ErrorIs(t, svc.Delete(ctx, ownerActor, owner.ID), models.ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, mgrActor, owner.ID), models.ErrForbidden)
}

func TestUserService_ChangePassword(t *testing.T) {
	svc, users, _ := newUserFixture()
	ctx := context.Background()
	u := users.add(t, testTenant, "att@acme.test", "secret123", models.RoleAttendant)
	actor := models.Actor{UserID: u.ID, TenantID: testTenant, Role: u.Role}

	err := svc.ChangePassword(ctx, actor, &models.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newsecret1"})
	assert.ErrorIs(t, err, models.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, actor, &models.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newsecret1"}))
	_, _, err = svc.Login(ctx, testTenant, &models.LoginRequest{Email: "att@acme.test", Password: "newsecret1"})
	assert.NoError(t, err)
}
