package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository/memory"
	"github.com/mjajones/notifiq-app/internal/token"
	"github.com/mjajones/notifiq-app/internal/utils"
	"github.com/mjajones/notifiq-app/pkg/logger"
)

// captureMailer records every send so tests can fish the activation link
// back out.
type captureMailer struct {
	to     []string
	bodies []string
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}

type AuthServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	mailer *captureMailer
	tokens *token.Generator
	svc    *AuthService
	cfg    AuthConfig
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.mailer = &captureMailer{}
	s.tokens = token.NewGenerator("test-secret", time.Hour)
	s.cfg = AuthConfig{
		JWTSecret:   "test-secret",
		AccessTTL:   5 * time.Minute,
		RefreshTTL:  24 * time.Hour,
		FrontendURL: "http://localhost:5173",
	}
	s.svc = NewAuthService(s.store.Users(), s.tokens, s.mailer, s.cfg, logger.New("test"))
}

func (s *AuthServiceSuite) register(email string) *models.User {
	u, err := s.svc.Register(s.ctx, email, "Dana", "Devlin", "hunter2hunter2")
	s.Require().NoError(err)
	s.Require().NotNil(u)
	return u
}

// lastLink pulls the uid and token segments out of the most recent
// verification mail.
func (s *AuthServiceSuite) lastLink() (uid, tok string) {
	s.Require().NotEmpty(s.mailer.bodies)
	body := s.mailer.bodies[len(s.mailer.bodies)-1]
	i := strings.Index(body, "/verify-email/")
	s.Require().GreaterOrEqual(i, 0)
	rest := strings.TrimPrefix(body[i:], "/verify-email/")
	parts := strings.SplitN(rest, "/", 3)
	s.Require().GreaterOrEqual(len(parts), 2)
	return parts[0], parts[1]
}

func (s *AuthServiceSuite) TestRegister() {
	s.Run("username is the lowercased email and account starts inactive", func() {
		u := s.register("Dana.Devlin@Corp.Test")
		s.Equal("dana.devlin@corp.test", u.Email)
		s.Equal(u.Email, u.Username)
		s.False(u.IsActive)
	})

	s.Run("sends a verification mail to the new address", func() {
		s.register("mail@corp.test")
		s.Contains(s.mailer.to, "mail@corp.test")
	})

	s.Run("duplicate email is a field error", func() {
		s.register("dup@corp.test")
		_, err := s.svc.Register(s.ctx, "dup@corp.test", "D", "D", "hunter2hunter2")
		var ve *ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Contains(ve.Fields, "email")
	})

	s.Run("short password and missing names are field errors", func() {
		_, err := s.svc.Register(s.ctx, "not-an-email", "", "", "short")
		var ve *ValidationError
		s.Require().ErrorAs(err, &ve)
		s.Contains(ve.Fields, "email")
		s.Contains(ve.Fields, "first_name")
		s.Contains(ve.Fields, "last_name")
		s.Contains(ve.Fields, "password")
	})
}

func (s *AuthServiceSuite) TestVerify() {
	s.Run("valid link activates the account", func() {
		u := s.register("verify@corp.test")
		uid, tok := s.lastLink()
		s.Require().NoError(s.svc.Verify(s.ctx, uid, tok))

		fresh, err := s.store.Users().GetByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.True(fresh.IsActive)
	})

	s.Run("using the link twice fails", func() {
		s.register("twice@corp.test")
		uid, tok := s.lastLink()
		s.Require().NoError(s.svc.Verify(s.ctx, uid, tok))
		s.ErrorIs(s.svc.Verify(s.ctx, uid, tok), ErrInvalidLink)
	})

	s.Run("tampered token fails with the same error", func() {
		s.register("tamper@corp.test")
		uid, tok := s.lastLink()
		s.ErrorIs(s.svc.Verify(s.ctx, uid, tok+"x"), ErrInvalidLink)
	})

	s.Run("garbage uid fails with the same error", func() {
		s.ErrorIs(s.svc.Verify(s.ctx, "%%%", "whatever"), ErrInvalidLink)
	})

	s.Run("unknown user fails with the same error", func() {
		uid := base64.RawURLEncoding.EncodeToString([]byte(uuid.NewString()))
		s.ErrorIs(s.svc.Verify(s.ctx, uid, "whatever"), ErrInvalidLink)
	})

	s.Run("uid that decodes to a non-uuid fails with the same error", func() {
		uid := base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x02})
		s.ErrorIs(s.svc.Verify(s.ctx, uid, "whatever"), ErrInvalidLink)
	})

	s.Run("expired token fails with the same error", func() {
		u := s.register("expired@corp.test")
		stale := token.NewGenerator("test-secret", -time.Minute).Make(u)
		uid := base64.RawURLEncoding.EncodeToString([]byte(u.ID))
		s.ErrorIs(s.svc.Verify(s.ctx, uid, stale), ErrInvalidLink)
	})
}

func (s *AuthServiceSuite) TestLogin() {
	s.Run("inactive account cannot log in", func() {
		s.register("pending@corp.test")
		_, _, err := s.svc.Login(s.ctx, "pending@corp.test", "hunter2hunter2")
		s.ErrorIs(err, ErrInvalidCredentials)
	})

	s.Run("wrong password is rejected", func() {
		s.register("wrongpw@corp.test")
		uid, tok := s.lastLink()
		s.Require().NoError(s.svc.Verify(s.ctx, uid, tok))

		_, _, err := s.svc.Login(s.ctx, "wrongpw@corp.test", "not-the-password")
		s.ErrorIs(err, ErrInvalidCredentials)
	})

	s.Run("unknown email gets the same error as a bad password", func() {
		_, _, err := s.svc.Login(s.ctx, "ghost@corp.test", "hunter2hunter2")
		s.ErrorIs(err, ErrInvalidCredentials)
	})

	s.Run("active account gets an access and refresh pair with full claims", func() {
		u := s.register("login@corp.test")
		uid, tok := s.lastLink()
		s.Require().NoError(s.svc.Verify(s.ctx, uid, tok))

		access, refresh, err := s.svc.Login(s.ctx, "Login@Corp.Test", "hunter2hunter2")
		s.Require().NoError(err)

		claims, err := utils.ParseJWT(s.cfg.JWTSecret, access)
		s.Require().NoError(err)
		s.Equal(utils.TokenAccess, claims.TokenType)
		s.Equal(u.ID, claims.UserID)
		s.Equal("login@corp.test", claims.Username)
		s.Equal("login@corp.test", claims.Email)
		s.False(claims.IsSuperuser)

		rc, err := utils.ParseJWT(s.cfg.JWTSecret, refresh)
		s.Require().NoError(err)
		s.Equal(utils.TokenRefresh, rc.TokenType)
	})
}

func (s *AuthServiceSuite) TestRefresh() {
	activate := func(email string) {
		s.register(email)
		uid, tok := s.lastLink()
		s.Require().NoError(s.svc.Verify(s.ctx, uid, tok))
	}

	s.Run("refresh token yields a new access token", func() {
		activate("refresh@corp.test")
		_, refresh, err := s.svc.Login(s.ctx, "refresh@corp.test", "hunter2hunter2")
		s.Require().NoError(err)

		access, err := s.svc.Refresh(s.ctx, refresh)
		s.Require().NoError(err)

		claims, err := utils.ParseJWT(s.cfg.JWTSecret, access)
		s.Require().NoError(err)
		s.Equal(utils.TokenAccess, claims.TokenType)
	})

	s.Run("access token is not accepted as a refresh token", func() {
		activate("typemix@corp.test")
		access, _, err := s.svc.Login(s.ctx, "typemix@corp.test", "hunter2hunter2")
		s.Require().NoError(err)

		_, err = s.svc.Refresh(s.ctx, access)
		s.ErrorIs(err, ErrInvalidCredentials)
	})

	s.Run("garbage is rejected", func() {
		_, err := s.svc.Refresh(s.ctx, "not.a.jwt")
		s.ErrorIs(err, ErrInvalidCredentials)
	})
}
