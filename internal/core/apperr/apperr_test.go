package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Internal("boom", errors.New("db")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		e, ok := As(c.err)
		require.True(t, ok)
		assert.Equal(t, c.status, e.Status())
	}
}

func TestWrappedStillClassified(t *testing.T) {
	err := fmt.Errorf("checkout: %w", Conflict("email already registered"))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))

	cause := errors.New("disk full")
	assert.ErrorIs(t, Internal("save order", cause), cause)
}
