package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/Adam044/ProFormance/internal/config"
	"github.com/Adam044/ProFormance/internal/errs"
	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/token"
	"github.com/rs/zerolog"
)

const (
	RoleAdmin   = "admin"
	RolePatient = "patient"

	// adminSubject is the claims id used for the configured admin,
	// who has no backing database record.
	adminSubject = "admin"
)

// User is the authenticated identity returned to the client on login.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// LoginResult carries everything a successful authentication produces.
// RefreshToken is plaintext and must only leave the process inside the
// refresh cookie; RefreshExpiry is when it stops working.
type LoginResult struct {
	Token         string
	User          User
	RefreshToken  string
	RefreshExpiry time.Time
}

// RefreshResult is a rotated credential pair.
type RefreshResult struct {
	Token         string
	RefreshToken  string
	RefreshExpiry time.Time
}

// AuthService owns authentication: credential checks, access token
// minting, and refresh token rotation.
type AuthService struct {
	log       *zerolog.Logger
	admin     config.AdminConfig
	codec     *token.Codec
	refresh   *token.RefreshStore
	clients   *repository.ClientsRepository
	accessTTL time.Duration
}

// NewAuthService constructs the AuthService from the app container.
func NewAuthService(s *server.Server, repos *repository.Repositories) *AuthService {
	return &AuthService{
		log:       s.Logger,
		admin:     s.Config.Admin,
		codec:     s.TokenCodec,
		refresh:   s.RefreshTokens,
		clients:   repos.Clients,
		accessTTL: time.Duration(s.Config.Auth.AccessTokenTTL) * time.Second,
	}
}

// Login authenticates either the configured admin or a patient by
// email and access code, mints an access token, and issues a refresh
// token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var user *User

	if s.isAdmin(email, password) {
		user = &User{ID: "", Name: s.admin.Name, Email: s.admin.Email, Role: RoleAdmin}
	} else {
		client, err := s.clients.FindByCredentials(ctx, email, password)
		if err != nil {
			return nil, err
		}
		if client != nil {
			u := User{ID: client.ID, Name: client.Name, Role: RolePatient}
			if client.Email != nil {
				u.Email = *client.Email
			}
			user = &u
		}
	}

	if user == nil {
		return nil, errs.NewUnauthorizedError("Invalid credentials.")
	}

	subject := user.ID
	if subject == "" {
		subject = adminSubject
	}
	accessToken, err := s.codec.Sign(token.Claims{ID: subject, Email: user.Email, Role: user.Role}, s.accessTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign access token")
		return nil, errs.NewInternalServerError()
	}

	var subjectID *string
	if user.Role == RolePatient {
		subjectID = &user.ID
	}
	refreshToken, refreshExpiry, err := s.refresh.Issue(ctx, subjectID, user.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:         accessToken,
		User:          *user,
		RefreshToken:  refreshToken,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// isAdmin compares credentials against the configured admin account in
// constant time. An unconfigured admin account matches nothing.
func (s *AuthService) isAdmin(email, password string) bool {
	if s.admin.Email == "" || s.admin.Password == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.admin.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1
	return emailOK && passOK
}

// Refresh rotates a refresh token: the presented token is validated,
// revoked, and replaced, and a fresh access token is minted. Any
// failure mid-rotation surfaces as an error; a half-rotated session
// never yields usable credentials.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, errs.NewUnauthorizedError("Unauthorized")
	}

	sess, err := s.refresh.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errs.NewUnauthorizedError("Unauthorized")
	}

	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}

	var subjectID *string
	if sess.SubjectID != "" {
		subjectID = &sess.SubjectID
	}
	next, nextExpiry, err := s.refresh.Issue(ctx, subjectID, sess.Role)
	if err != nil {
		return nil, err
	}

	subject := sess.SubjectID
	if subject == "" {
		subject = adminSubject
	}
	accessToken, err := s.codec.Sign(token.Claims{ID: subject, Role: sess.Role}, s.accessTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign access token")
		return nil, errs.NewInternalServerError()
	}

	return &RefreshResult{Token: accessToken, RefreshToken: next, RefreshExpiry: nextExpiry}, nil
}

// Logout revokes the presented refresh token. A missing token is not
// an error; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.Revoke(ctx, refreshToken)
}
