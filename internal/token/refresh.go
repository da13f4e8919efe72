package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// refreshSecretBytes is the entropy of a refresh token before encoding.
const refreshSecretBytes = 48

// store is the persistence surface RefreshStore needs from the gateway.
type store interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, scan func(rows pgx.Rows) error, sql string, args ...any) error
}

// Session is what a valid refresh token resolves to.
type Session struct {
	// SubjectID is the owning user's id. Empty for sessions whose
	// subject is not a stored record (the configured admin).
	SubjectID string
	Role      string
}

// RefreshStore manages long-lived refresh credentials. The plaintext
// token exists only in transit; the database holds its fingerprint.
type RefreshStore struct {
	db  store
	ttl time.Duration
	now func() time.Time
}

// NewRefreshStore builds a RefreshStore issuing tokens valid for ttl.
func NewRefreshStore(db store, ttl time.Duration) *RefreshStore {
	return &RefreshStore{db: db, ttl: ttl, now: time.Now}
}

// Fingerprint returns the hex SHA-256 digest stored in place of the
// plaintext token.
func Fingerprint(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// Issue mints a fresh opaque token for the subject and persists its
// fingerprint, returning the plaintext together with its expiry.
// subjectID is nil for the configured admin, whose session has no
// backing user row.
func (s *RefreshStore) Issue(ctx context.Context, subjectID *string, role string) (string, time.Time, error) {
	raw := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}
	plaintext := base64.RawURLEncoding.EncodeToString(raw)
	expiresAt := s.now().Add(s.ttl)

	_, err := s.db.Exec(ctx, `
		INSERT INTO auth_tokens (id, user_id, role, token_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), subjectID, role, Fingerprint(plaintext), expiresAt,
	)
	if err != nil {
		return "", time.Time{}, err
	}
	return plaintext, expiresAt, nil
}

// Validate resolves a plaintext token to its session. It returns
// (nil, nil) when the token is unknown, revoked, or expired; callers
// must treat that as an authentication failure.
func (s *RefreshStore) Validate(ctx context.Context, tok string) (*Session, error) {
	var sess *Session
	err := s.db.Query(ctx, func(rows pgx.Rows) error {
		sess = nil
		if !rows.Next() {
			return nil
		}
		var userID *string
		var role string
		if err := rows.Scan(&userID, &role); err != nil {
			return err
		}
		sess = &Session{Role: role}
		if userID != nil {
			sess.SubjectID = *userID
		}
		return nil
	}, `
		SELECT user_id, role
		FROM auth_tokens
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2`,
		Fingerprint(tok), s.now(),
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Revoke marks the token unusable. Revoking an unknown or already
// revoked token is a no-op, not an error.
func (s *RefreshStore) Revoke(ctx context.Context, tok string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE auth_tokens SET revoked = TRUE WHERE token_hash = $1`,
		Fingerprint(tok),
	)
	return err
}
