package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Adam044/ProFormance/internal/config"
	"github.com/Adam044/ProFormance/internal/repository"
	"github.com/Adam044/ProFormance/internal/server"
	"github.com/Adam044/ProFormance/internal/service"
	"github.com/Adam044/ProFormance/internal/token"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows is a minimal in-memory pgx.Rows.
type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	for i, d := range dest {
		if row[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

type storedToken struct {
	userID    *string
	role      string
	revoked   bool
	expiresAt time.Time
}

// fakeAuthDB is an in-memory stand-in for the auth_tokens table.
type fakeAuthDB struct {
	tokens map[string]*storedToken
}

func newFakeAuthDB() *fakeAuthDB {
	return &fakeAuthDB{tokens: map[string]*storedToken{}}
}

func (f *fakeAuthDB) Exec(_ context.Context, sql string, args ...any) (int64, error) {
	switch {
	case strings.Contains(sql, "INSERT INTO auth_tokens"):
		userID, _ := args[1].(*string)
		f.tokens[args[3].(string)] = &storedToken{
			userID:    userID,
			role:      args[2].(string),
			expiresAt: args[4].(time.Time),
		}
		return 1, nil

	case strings.Contains(sql, "SET revoked"):
		if tok, ok := f.tokens[args[0].(string)]; ok && !tok.revoked {
			tok.revoked = true
			return 1, nil
		}
		return 0, nil
	}
	return 0, nil
}

func (f *fakeAuthDB) Query(_ context.Context, scan func(rows pgx.Rows) error, sql string, args ...any) error {
	rows := &fakeRows{}
	if strings.Contains(sql, "FROM auth_tokens") {
		if tok, ok := f.tokens[args[0].(string)]; ok && !tok.revoked && tok.expiresAt.After(args[1].(time.Time)) {
			rows.rows = [][]any{{tok.userID, tok.role}}
		}
	}
	return scan(rows)
}

const testRefreshTTL = 3600

func newTestAuthHandler(db *fakeAuthDB) *AuthHandler {
	log := zerolog.Nop()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  900,
			RefreshTokenTTL: testRefreshTTL,
		},
		Admin: config.AdminConfig{
			Email:    "admin@clinic.test",
			Password: "hunter2",
			Name:     "Admin",
		},
	}

	srv := &server.Server{
		Config:        cfg,
		Logger:        &log,
		TokenCodec:    token.NewCodec(cfg.Auth.SecretKey),
		RefreshTokens: token.NewRefreshStore(db, testRefreshTTL*time.Second),
	}
	repos := &repository.Repositories{
		Clients: repository.NewClientsRepository(db),
	}

	return NewAuthHandler(srv, service.NewServices(srv, repos))
}

func postContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "refresh_token" {
			return cookie
		}
	}
	t.Fatal("no refresh_token cookie set")
	return nil
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	h := newTestAuthHandler(newFakeAuthDB())
	c, rec := postContext("")

	result, err := h.Login(c, &LoginRequest{Email: "admin@clinic.test", Password: "hunter2"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Token)

	cookie := refreshCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, "/api/auth/refresh", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, testRefreshTTL, cookie.MaxAge)
	assert.WithinDuration(t, time.Now().Add(testRefreshTTL*time.Second), cookie.Expires, time.Minute)
}

func TestRefreshRotatesCookie(t *testing.T) {
	db := newFakeAuthDB()
	h := newTestAuthHandler(db)

	loginCtx, loginRec := postContext("")
	_, err := h.Login(loginCtx, &LoginRequest{Email: "admin@clinic.test", Password: "hunter2"})
	require.NoError(t, err)
	issued := refreshCookie(t, loginRec)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: issued.Value})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rotated := refreshCookie(t, rec)
	assert.NotEmpty(t, rotated.Value)
	assert.NotEqual(t, issued.Value, rotated.Value)
	assert.Equal(t, "/api/auth/refresh", rotated.Path)
	assert.True(t, rotated.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, rotated.SameSite)
	assert.Equal(t, testRefreshTTL, rotated.MaxAge)
}

func TestRefreshWithoutCookie(t *testing.T) {
	h := newTestAuthHandler(newFakeAuthDB())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	assert.Error(t, h.Refresh(c))
}

func TestLogoutClearsCookie(t *testing.T) {
	db := newFakeAuthDB()
	h := newTestAuthHandler(db)

	loginCtx, loginRec := postContext("")
	_, err := h.Login(loginCtx, &LoginRequest{Email: "admin@clinic.test", Password: "hunter2"})
	require.NoError(t, err)
	issued := refreshCookie(t, loginRec)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: issued.Value})
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	cleared := refreshCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, "/api/auth/refresh", cleared.Path)
	assert.True(t, cleared.HttpOnly)
	assert.Equal(t, -1, cleared.MaxAge)
}
