package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNoSecret is returned when the signing secret is not configured.
	// Verification also fails in that state: a deployment without a
	// secret accepts no tokens.
	ErrNoSecret = errors.New("token: signing secret not configured")

	// ErrInvalidToken covers every verification failure: wrong shape,
	// bad encoding, signature mismatch, or expiry. Callers get no
	// distinction; the reason is deliberately opaque.
	ErrInvalidToken = errors.New("token: invalid token")
)

// header is the fixed first segment of every token.
var encodedHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

// Claims is the payload carried by an access token.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Exp   int64  `json:"exp"`
}

// Codec signs and verifies access tokens with a shared HMAC secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec builds a Codec. An empty secret produces a codec that
// returns ErrNoSecret from Sign and fails every Verify.
func NewCodec(secret string) *Codec {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Codec{secret: key, now: time.Now}
}

// Sign mints a token for claims expiring ttl from now. The Exp field of
// the input is ignored and overwritten.
func (c *Codec) Sign(claims Claims, ttl time.Duration) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrNoSecret
	}

	claims.Exp = c.now().Add(ttl).Unix()

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	signingInput := encodedHeader + "." + base64.RawURLEncoding.EncodeToString(payload)
	return signingInput + "." + c.signature(signingInput), nil
}

// Verify checks the token's shape, signature, and expiry, and returns
// its claims. Any failure yields ErrInvalidToken. Expiry is enforced
// only when the claim is present and strictly in the past; a token
// without exp, or presented at its exact expiry second, still
// verifies.
func (c *Codec) Verify(tok string) (*Claims, error) {
	if len(c.secret) == 0 {
		return nil, ErrInvalidToken
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	signingInput := parts[0] + "." + parts[1]
	expected := c.signature(signingInput)
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return nil, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	if claims.Exp != 0 && claims.Exp < c.now().Unix() {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

func (c *Codec) signature(signingInput string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(signingInput))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
