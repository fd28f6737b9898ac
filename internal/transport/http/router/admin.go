package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewAdminEngine 管理端 v1；登录以外的接口由模块自己加 admin 鉴权
func NewAdminEngine(l *zap.Logger, reg *Registry, o Options) *gin.Engine {
	r := newEngine(l, o)
	reg.MountAllAdmin(r.Group("/admin/v1"))
	return r
}

func rateOf(rps float64) rate.Limit { return rate.Limit(rps) }
