package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordRoundTrip(t *testing.T) {
	h := HashPassword("secret123")
	assert.NotEqual(t, "secret123", h)
	assert.True(t, CheckPassword("secret123", h))
	assert.False(t, CheckPassword("secret124", h))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Len(t, NewToken(), 64)
}

func TestHashTokenStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}

func TestPage(t *testing.T) {
	off, size, p := Page(0, 0)
	assert.Equal(t, 0, off)
	assert.Equal(t, 20, size)
	assert.Equal(t, 1, p)

	off, size, p = Page(3, 10)
	assert.Equal(t, 20, off)
	assert.Equal(t, 10, size)
	assert.Equal(t, 3, p)

	_, size, _ = Page(1, 500)
	assert.Equal(t, 20, size)
}
