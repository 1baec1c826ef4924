package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"

	"fuelsync-backend/internal/auth"
	"fuelsync-backend/internal/models"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	log "github.com/sirupsen/logrus"
)

const totpIssuer = "FuelSync"

// TOTPUsers is the subset of the user repository the second factor needs.
type TOTPUsers interface {
	Get(ctx context.Context, tenantID, id string) (*models.User, error)
	SetTOTP(ctx context.Context, id, secret string, enabled bool) error
}

type TOTPService struct {
	Users TOTPUsers
}

func NewTOTPService(users TOTPUsers) *TOTPService {
	return &TOTPService{Users: users}
}

// GenerateSetup creates a new secret and QR code. 2FA stays disabled until
// Enable confirms a code.
func (s *TOTPService) GenerateSetup(ctx context.Context, actor models.Actor) (*models.TOTPSetupResponse, error) {
	user, err := s.Users.Get(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, fmt.Errorf("%w: 2FA is already enabled", models.ErrConflict)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetTOTP(ctx, user.ID, key.Secret(), false); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      totpIssuer,
		AccountName: user.Email,
	}, nil
}

// Enable turns 2FA on once the user proves the authenticator works.
func (s *TOTPService) Enable(ctx context.Context, actor models.Actor, code string) error {
	user, err := s.Users.Get(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return validationf("2FA setup not initiated")
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return validationf("invalid verification code")
	}
	if err := s.Users.SetTOTP(ctx, user.ID, user.TOTPSecret, true); err != nil {
		return err
	}
	log.Printf("[TOTP] 2FA enabled for user %s", user.ID)
	return nil
}

// Disable requires the password and a current code.
func (s *TOTPService) Disable(ctx context.Context, actor models.Actor, password, code string) error {
	user, err := s.Users.Get(ctx, actor.TenantID, actor.UserID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return validationf("2FA is not enabled")
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return validationf("invalid password")
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return validationf("invalid verification code")
	}
	return s.Users.SetTOTP(ctx, user.ID, "", false)
}

// Check validates a login code for a user with 2FA enabled.
func (s *TOTPService) Check(user *models.User, code string) bool {
	return user.TOTPEnabled && user.TOTPSecret != "" && totp.Validate(code, user.TOTPSecret)
}
