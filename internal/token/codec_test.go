package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Sign(Claims{ID: "user-1", Email: "a@b.c", Role: "admin"}, time.Minute)
	require.NoError(t, err)
	assert.Len(t, strings.Split(signed, "."), 3)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ID)
	assert.Equal(t, "a@b.c", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Greater(t, claims.Exp, time.Now().Unix())
}

func TestCodecExpiredToken(t *testing.T) {
	codec := NewCodec("test-secret")

	base := time.Now()
	codec.now = func() time.Time { return base }

	signed, err := codec.Sign(Claims{ID: "user-1", Role: "patient"}, time.Minute)
	require.NoError(t, err)

	// Still valid just before expiry.
	codec.now = func() time.Time { return base.Add(59 * time.Second) }
	_, err = codec.Verify(signed)
	assert.NoError(t, err)

	// Still valid at the exact expiry second; the token only dies once
	// exp is in the past.
	codec.now = func() time.Time { return base.Add(time.Minute) }
	_, err = codec.Verify(signed)
	assert.NoError(t, err)

	codec.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodecAcceptsTokenWithoutExp(t *testing.T) {
	codec := NewCodec("test-secret")

	// A signature-valid token whose payload carries no exp claim never
	// expires.
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"user-1","role":"admin"}`))
	signingInput := encodedHeader + "." + payload
	signed := signingInput + "." + codec.signature(signingInput)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ID)
	assert.Equal(t, "admin", claims.Role)
	assert.Zero(t, claims.Exp)
}

func TestCodecRejectsTampering(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Sign(Claims{ID: "user-1", Role: "patient"}, time.Minute)
	require.NoError(t, err)

	// Flipping any single character must invalidate the token.
	for i := 0; i < len(signed); i++ {
		if signed[i] == '.' {
			continue
		}
		mutated := []byte(signed)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		_, err := codec.Verify(string(mutated))
		assert.ErrorIs(t, err, ErrInvalidToken, "position %d", i)
	}
}

func TestCodecRejectsMalformedTokens(t *testing.T) {
	codec := NewCodec("test-secret")

	for _, tok := range []string{
		"",
		"abc",
		"a.b",
		"a.b.c.d",
		"!!!.???.***",
	} {
		_, err := codec.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestCodecRejectsDifferentSecret(t *testing.T) {
	signed, err := NewCodec("secret-a").Sign(Claims{ID: "u", Role: "admin"}, time.Minute)
	require.NoError(t, err)

	_, err = NewCodec("secret-b").Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodecWithoutSecret(t *testing.T) {
	codec := NewCodec("")

	_, err := codec.Sign(Claims{ID: "u", Role: "admin"}, time.Minute)
	assert.ErrorIs(t, err, ErrNoSecret)

	// A secretless deployment accepts no tokens either.
	signed, err := NewCodec("test-secret").Sign(Claims{ID: "u", Role: "admin"}, time.Minute)
	require.NoError(t, err)
	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOverwritesExp(t *testing.T) {
	codec := NewCodec("test-secret")

	signed, err := codec.Sign(Claims{ID: "u", Role: "admin", Exp: 1}, time.Hour)
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Greater(t, claims.Exp, time.Now().Unix())
}
