package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"luxora/internal/core/auth"
	"luxora/internal/transport/http/handler"
	mdw "luxora/internal/transport/http/middleware"
)

type Options struct {
	AllowOrigins []string
	Timeout      time.Duration // 默认 10s
	RPS          float64       // 全局限速，默认 200
	PerIPRPS     float64       // 每 IP 限速，默认 20
	MaxInFlight  int64         // 默认 300
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RPS <= 0 {
		o.RPS = 200
	}
	if o.PerIPRPS <= 0 {
		o.PerIPRPS = 20
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 300
	}
	return o
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", handler.HeaderIdempotencyKey, mdw.KeyRequestID)
	cfg.ExposeHeaders = []string{mdw.KeyRequestID}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// newEngine 两个引擎共用的中间件链与 /health、/metrics
func newEngine(l *zap.Logger, o Options) *gin.Engine {
	o = o.withDefaults()
	r := gin.New()
	r.Use(
		mdw.RequestID(),
		cors.New(corsConfig(o.AllowOrigins)),
		mdw.RateLimit(rateOf(o.RPS), int(o.RPS*2)),
		mdw.RateLimitPerIP(rateOf(o.PerIPRPS), int(o.PerIPRPS*2), 10*time.Minute),
		mdw.ConcurrencyLimit(o.MaxInFlight),
		mdw.MaxBodyBytes(16<<20),
		mdw.Timeout(o.Timeout),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", mdw.MetricsHandler())
	return r
}

// Guards 按角色构造鉴权中间件
func Guards(j *auth.JWTer, loader mdw.PrincipalLoader) handler.Guard {
	return handler.Guard{
		Any:      mdw.AuthJWT(j, loader),
		Customer: mdw.AuthJWT(j, loader, "user", "admin"),
		Seller:   mdw.AuthJWT(j, loader, "seller"),
		Admin:    mdw.AuthJWT(j, loader, "admin"),
	}
}

// NewAPIEngine 客户与卖家接口，前缀 /api
func NewAPIEngine(l *zap.Logger, reg *Registry, o Options) *gin.Engine {
	r := newEngine(l, o)
	reg.MountAllAPI(r.Group("/api"))
	return r
}
