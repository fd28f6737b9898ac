package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxora/internal/core/apperr"
	"luxora/pkg/validate"
)

func run(t *testing.T, h gin.HandlerFunc) (int, Resp) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	var r Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	return w.Code, r
}

func TestErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("bad"), http.StatusBadRequest, "bad"},
		{apperr.Conflict("taken"), http.StatusConflict, "taken"},
		{apperr.NotFound("gone"), http.StatusNotFound, "gone"},
		{apperr.Internal("db failed", errors.New("secret dsn")), http.StatusInternalServerError, "db failed"},
		{errors.New("raw driver error"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		status, r := run(t, func(c *gin.Context) { Error(c, tc.err) })
		assert.Equal(t, tc.status, status)
		assert.False(t, r.Success)
		assert.Equal(t, tc.msg, r.Message)
		assert.NotContains(t, r.Message, "secret")
	}
}

func TestAbortUsesRealStatus(t *testing.T) {
	status, r := run(t, func(c *gin.Context) { Abort(c, http.StatusForbidden, "nope") })
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", r.Code)
}

func TestBindMessage(t *testing.T) {
	v := validator.New()
	require.NoError(t, validate.Register(v))
	type in struct {
		Mobile string `validate:"required,mobile"`
		Email  string `validate:"required,email"`
	}
	err := v.Struct(in{Mobile: "123", Email: ""})
	msg := BindMessage(err)
	assert.Contains(t, msg, "Mobile must be a 10 digit mobile number")
	assert.Contains(t, msg, "Email is required")

	var target struct{ N int }
	assert.Equal(t, "N must be a int", BindMessage(json.Unmarshal([]byte(`{"N":"x"}`), &target)))
}
