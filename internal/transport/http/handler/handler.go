// Package handler 把服务层挂到 gin 路由上：绑定参数、取出当前主体、调用服务。
package handler

import (
	"github.com/gin-gonic/gin"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	mdw "luxora/internal/transport/http/middleware"
)

// Guard 各类主体的鉴权中间件，由路由层构造
type Guard struct {
	Any      gin.HandlerFunc // 任意已登录主体
	Customer gin.HandlerFunc // user / admin
	Seller   gin.HandlerFunc
	Admin    gin.HandlerFunc
}

func customerOf(c *gin.Context) (*domain.User, error) {
	p, ok := mdw.PrincipalOf(c)
	if !ok || p.Kind == domain.KindSeller || p.User == nil {
		return nil, apperr.Forbidden("customer account required")
	}
	return p.User, nil
}

func sellerOf(c *gin.Context) (*domain.Seller, error) {
	p, ok := mdw.PrincipalOf(c)
	if !ok || p.Kind != domain.KindSeller || p.Seller == nil {
		return nil, apperr.Forbidden("seller account required")
	}
	return p.Seller, nil
}

type none = struct{}

var errIncompleteAddress = apperr.Validation("line1, city and pincode are required")

var errLiveOff = apperr.NotFound("live order feed is not enabled on this server")
