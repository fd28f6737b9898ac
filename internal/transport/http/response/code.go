package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"luxora/internal/core/apperr"
	"luxora/pkg/validate"
)

// 状态码 -> 错误类型
var statusKind = map[int]apperr.Kind{
	http.StatusBadRequest:          apperr.KindValidation,
	http.StatusUnauthorized:        apperr.KindUnauthorized,
	http.StatusForbidden:           apperr.KindForbidden,
	http.StatusNotFound:            apperr.KindNotFound,
	http.StatusConflict:            apperr.KindConflict,
	http.StatusInternalServerError: apperr.KindInternal,
}

func kindOf(status int) string {
	if k, ok := statusKind[status]; ok {
		return string(k)
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// BindMessage 把绑定/校验错误转成给前端看的文案
func BindMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve))
		for _, fe := range ve {
			parts = append(parts, fieldMessage(fe))
		}
		return strings.Join(parts, "; ")
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return fmt.Sprintf("%s must be a %s", ute.Field, ute.Type.String())
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return "invalid JSON body"
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return "request body too large"
	}
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	if m, ok := validate.Messages[fe.Tag()]; ok {
		return f + " " + m
	}
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, fe.Param())
	case "dive":
		return f + " is invalid"
	}
	return fmt.Sprintf("%s failed on %s", f, fe.Tag())
}
