// Package app 组装仓储、服务与 HTTP 模块，两个 cmd 共用。
package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxora/internal/core/auth"
	"luxora/internal/core/cache"
	"luxora/internal/core/config"
	"luxora/internal/core/mail"
	"luxora/internal/core/payment"
	"luxora/internal/core/realtime"
	"luxora/internal/core/storage"
	"luxora/internal/domain"
	"luxora/internal/repo"
	"luxora/internal/service"
	"luxora/internal/transport/http/handler"
	"luxora/internal/transport/http/router"
)

// Infra 外部依赖；可选项为 nil 时退化为本地实现或关闭对应功能
type Infra struct {
	DB       *gorm.DB
	Cache    *cache.Cache               // nil 不缓存
	Wishlist domain.WishlistRepository // nil 用 SQL 表
	Gateway  payment.Gateway            // nil 视为未开通卡支付
	Store    storage.ObjectStore        // nil 不允许上传图片
	Mailer   mail.Mailer                // nil 只写日志

	// Realtime 建卖家 WebSocket 推送；只有运行 RunHub 的进程打开
	Realtime bool
}

type App struct {
	Log  *zap.Logger
	JWT  *auth.JWTer
	Hub  *realtime.Hub
	Opts router.Options

	Auth     *service.AuthService
	Account  *service.AccountService
	Products *service.ProductService
	Cart     *service.CartService
	Wishlist *service.WishlistService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Sellers  *service.SellerService
	Admin    *service.AdminService

	db *gorm.DB
}

func JWTFromConfig(c config.JWT) *auth.JWTer {
	ttl := time.Duration(c.AccessTokenTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &auth.JWTer{Secret: []byte(c.Secret), Issuer: c.Issuer, TTL: ttl}
}

func New(cfg *config.Config, l *zap.Logger, in Infra) *App {
	if in.Gateway == nil {
		in.Gateway = payment.NewDisabled(cfg.Payment.Currency)
	}
	if in.Mailer == nil {
		in.Mailer = mail.Log{L: l}
	}
	if in.Wishlist == nil {
		in.Wishlist = repo.NewWishlistRepo(in.DB)
	}

	a := &App{
		Log:  l,
		JWT:  JWTFromConfig(cfg.JWT),
		Opts: router.Options{AllowOrigins: cfg.CORS.AllowOrigins},
		db:   in.DB,
	}

	var notifier service.Notifier
	if in.Realtime {
		a.Hub = realtime.NewHub(l, cfg.CORS.AllowOrigins)
		notifier = a.Hub
	}

	tx := repo.NewTx(in.DB)
	users, sellers := repo.NewUserRepo(in.DB), repo.NewSellerRepo(in.DB)
	products, carts, orders := repo.NewProductRepo(in.DB), repo.NewCartRepo(in.DB), repo.NewOrderRepo(in.DB)

	var pc *service.ProductCache
	if in.Cache != nil {
		pc = service.NewProductCache(in.Cache, time.Duration(cfg.Redis.ProductTTLSec)*time.Second, l)
	}
	events := service.NewOrderEvents(notifier, in.Mailer, pc, l)

	a.Auth = service.NewAuthService(users, sellers, a.JWT, l)
	a.Account = service.NewAccountService(users, in.Mailer, cfg.Mail.ResetURL, l)
	a.Products = service.NewProductService(tx, products, pc, in.Store, l)
	a.Cart = service.NewCartService(carts, products)
	a.Wishlist = service.NewWishlistService(in.Wishlist, products)
	a.Checkout = service.NewCheckoutService(tx, products, carts, orders, in.Gateway, events, l)
	a.Orders = service.NewOrderService(tx, orders, products, events, l)
	a.Payments = service.NewPaymentService(a.Checkout, in.Gateway, l)
	a.Sellers = service.NewSellerService(sellers, products, l)
	a.Admin = service.NewAdminService(users, sellers, l)
	return a
}

// RunHub 卖家实时推送；Infra.Realtime 为 false 时不做事
func (a *App) RunHub(ctx context.Context) {
	if a.Hub != nil {
		go a.Hub.Run(ctx)
	}
}

func (a *App) guard() handler.Guard { return router.Guards(a.JWT, a.Auth) }

// APIEngine 客户与卖家接口
func (a *App) APIEngine() *gin.Engine {
	g := a.guard()
	reg := router.NewRegistry(
		&handler.AuthHandler{Auth: a.Auth, Account: a.Account, DB: a.db, Guard: g},
		&handler.SellerHandler{Auth: a.Auth, Sellers: a.Sellers, Products: a.Products, Orders: a.Orders, Hub: a.Hub, Guard: g, Log: a.Log},
		&handler.ProductHandler{Products: a.Products, Guard: g},
		&handler.ShopHandler{Cart: a.Cart, Wishlist: a.Wishlist, Guard: g},
		&handler.OrderHandler{Checkout: a.Checkout, Orders: a.Orders, Payments: a.Payments, Guard: g},
	)
	return router.NewAPIEngine(a.Log, reg, a.Opts)
}

// AdminEngine 管理端接口
func (a *App) AdminEngine() *gin.Engine {
	reg := router.NewRegistry(
		&handler.AdminHandler{Auth: a.Auth, Admin: a.Admin, Orders: a.Orders, Guard: a.guard()},
	)
	return router.NewAdminEngine(a.Log, reg, a.Opts)
}
