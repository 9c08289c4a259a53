package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mjajones/notifiq-app/internal/mail"
	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/token"
	"github.com/mjajones/notifiq-app/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidLink covers every verification failure: bad encoding,
	// unknown user, tampered or expired token. One error, so callers can't
	// probe which accounts exist.
	ErrInvalidLink = errors.New("activation link is invalid")
)

type AuthConfig struct {
	JWTSecret   string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	FrontendURL string
}

type AuthService struct {
	users  repository.UserRepository
	tokens *token.Generator
	mailer mail.Mailer
	cfg    AuthConfig
	log    zerolog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *token.Generator, mailer mail.Mailer, cfg AuthConfig, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, mailer: mailer, cfg: cfg, log: log}
}

// Register creates an inactive account with username forced to the email and
// dispatches the verification mail. The user row is committed before the
// mail goes out; a mail failure is logged, never surfaced, and never rolls
// the account back.
func (a *AuthService) Register(ctx context.Context, email, firstName, lastName, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "a valid email address is required"
	}
	if strings.TrimSpace(firstName) == "" {
		fields["first_name"] = "this field is required"
	}
	if strings.TrimSpace(lastName) == "" {
		fields["last_name"] = "this field is required"
	}
	if len(password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Username:  email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     email,
		IsActive:  false,
	}
	if err := a.users.Create(ctx, u, hash); err != nil {
		if err == repository.ErrDuplicate {
			return nil, fieldError("email", "a user with this email already exists")
		}
		return nil, err
	}

	uid := base64.RawURLEncoding.EncodeToString([]byte(u.ID))
	link := a.cfg.FrontendURL + "/verify-email/" + uid + "/" + a.tokens.Make(u) + "/"
	subject, body := mail.VerificationEmail(u.FirstName, link)
	if err := a.mailer.Send(u.Email, subject, body); err != nil {
		a.log.Error().Err(err).Str("email", u.Email).Msg("verification mail failed")
	}
	return u, nil
}

// Verify activates the account identified by the encoded uid when the token
// checks out. Every failure mode collapses into ErrInvalidLink.
func (a *AuthService) Verify(ctx context.Context, uidB64, tok string) error {
	raw, err := base64.RawURLEncoding.DecodeString(uidB64)
	if err != nil {
		return ErrInvalidLink
	}
	// a decoded uid that is not a uuid never reaches the store; user ids
	// are uuid columns and malformed input must not read as a lookup error
	uid, err := uuid.Parse(string(raw))
	if err != nil {
		return ErrInvalidLink
	}
	u, err := a.users.GetByID(ctx, uid.String())
	if err != nil {
		return err
	}
	if u == nil || !a.tokens.Check(u, tok) {
		return ErrInvalidLink
	}
	if u.IsActive {
		// already verified; the token MAC no longer matches anyway
		return ErrInvalidLink
	}
	return a.users.SetActive(ctx, u.ID, true)
}

// Login takes an email as the login identifier and returns an access/refresh
// pair. Inactive accounts can't log in.
func (a *AuthService) Login(ctx context.Context, email, password string) (access, refresh string, err error) {
	u, hash, err := a.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", "", err
	}
	if u == nil || !u.IsActive || !utils.CheckPassword(hash, password) {
		return "", "", ErrInvalidCredentials
	}
	access, err = utils.SignJWT(a.cfg.JWTSecret, u, utils.TokenAccess, a.cfg.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = utils.SignJWT(a.cfg.JWTSecret, u, utils.TokenRefresh, a.cfg.RefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Refresh issues a fresh access token from a valid refresh token. Claims are
// rebuilt from the stored user so group changes take effect on rotation.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := utils.ParseJWT(a.cfg.JWTSecret, refreshToken)
	if err != nil || claims.TokenType != utils.TokenRefresh {
		return "", ErrInvalidCredentials
	}
	u, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}
	if u == nil || !u.IsActive {
		return "", ErrInvalidCredentials
	}
	return utils.SignJWT(a.cfg.JWTSecret, u, utils.TokenAccess, a.cfg.AccessTTL)
}
