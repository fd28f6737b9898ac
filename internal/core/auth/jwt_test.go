package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "luxora", TTL: time.Hour}
}

func TestIssueParse(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", RoleSeller)
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
	assert.Equal(t, RoleSeller, c.Role)
}

func TestRejectWrongSecretAndIssuer(t *testing.T) {
	j := newJWTer()
	tok, err := j.Issue("u1", RoleUser)
	require.NoError(t, err)

	other := &JWTer{Secret: []byte("other"), Issuer: "luxora", TTL: time.Hour}
	_, err = other.Parse(tok)
	assert.Error(t, err)

	wrongIss := &JWTer{Secret: []byte("test-secret"), Issuer: "someone-else", TTL: time.Hour}
	_, err = wrongIss.Parse(tok)
	assert.Error(t, err)
}

func TestRejectExpired(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), Issuer: "luxora", TTL: -2 * time.Minute}
	tok, err := j.Issue("u1", RoleUser)
	require.NoError(t, err)
	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRejectOtherAlg(t *testing.T) {
	claims := Claims{UID: "u1", Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Issuer: "luxora", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = newJWTer().Parse(tok)
	assert.Error(t, err)
}

func TestEmptySubject(t *testing.T) {
	_, err := newJWTer().Issue("", RoleUser)
	assert.Error(t, err)
}
