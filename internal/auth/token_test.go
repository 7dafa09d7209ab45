package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestIssueAndParse(t *testing.T) {
	claims := Claims{
		UserID: 42,
		Name:   "Ada",
		Email:  "ada@example.com",
		Phone:  "555-0100",
		Roles:  []string{"AGENT"},
	}
	token, exp, err := Issue(testSecret, claims, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), exp, 5*time.Second)

	got, err := Parse(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.UserID)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "42", got.Subject)
	assert.True(t, got.HasRole("AGENT"))
	assert.False(t, got.HasRole("CONTRACTOR"))
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := Issue(testSecret, Claims{UserID: 1, Roles: []string{"AGENT"}}, time.Hour)
	require.NoError(t, err)

	_, err = Parse("some-other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue(testSecret, Claims{UserID: 1, Roles: []string{"AGENT"}}, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(testSecret, "not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("token-a")
	b := Fingerprint("token-b")

	assert.Len(t, a, 64) // SHA-256 hex
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Fingerprint("token-a")) // deterministic
}

func TestNewResetToken(t *testing.T) {
	a, err := NewResetToken()
	require.NoError(t, err)
	b, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 256 bits as hex
	assert.NotEqual(t, a, b)
}
