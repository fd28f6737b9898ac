package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxora/internal/core/apperr"
)

const KeyRequestID = "X-Request-ID"

// Resp 统一响应：{success, message?, code?, data?}，HTTP 状态码保持真实
type Resp struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(data any) Resp { return Resp{Success: true, Data: data} }

func Msg(msg string, data any) Resp { return Resp{Success: true, Message: msg, Data: data} }

func Fail(code, msg string) Resp { return Resp{Success: false, Code: code, Message: msg} }

// Abort 中间件里直接终止
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Fail(kindOf(status), msg))
}

// Error 业务错误按类型映射状态码；其它错误一律 500，原因只写日志
func Error(c *gin.Context, err error) {
	if e, ok := apperr.As(err); ok {
		if e.Kind == apperr.KindInternal {
			logInternal(c, e.Msg, e.Err)
		}
		c.AbortWithStatusJSON(e.Status(), Fail(string(e.Kind), e.Msg))
		return
	}
	logInternal(c, "unhandled error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Fail(string(apperr.KindInternal), "internal server error"))
}

// BadRequest 绑定失败
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Fail(string(apperr.KindValidation), BindMessage(err)))
}

func logInternal(c *gin.Context, msg string, err error) {
	zap.L().Error(msg,
		zap.String("rid", c.GetString(KeyRequestID)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
}
