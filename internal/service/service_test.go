package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxora/internal/core/auth"
	"luxora/internal/core/mail"
	"luxora/internal/core/payment"
	"luxora/internal/core/storage"
	"luxora/internal/domain"
	"luxora/internal/repo"
	"luxora/internal/service"
	"luxora/internal/testutil"
)

var addr = domain.Address{Line1: "12 MG Road", City: "Bengaluru", State: "KA", Pincode: "560001", Country: "IN"}

type env struct {
	db       *gorm.DB
	jwt      *auth.JWTer
	gw       *payment.Memory
	outbox   *mail.Outbox
	store    *storage.Memory
	auth     *service.AuthService
	account  *service.AccountService
	products *service.ProductService
	cart     *service.CartService
	wishlist *service.WishlistService
	checkout *service.CheckoutService
	orders   *service.OrderService
	payments *service.PaymentService
	sellers  *service.SellerService
	admin    *service.AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, nil)
}

// newEnvWith pc 为 nil 时不走缓存
func newEnvWith(t *testing.T, pc *service.ProductCache) *env {
	t.Helper()
	db := testutil.NewDB(t)
	l := zap.NewNop()
	e := &env{
		db:     db,
		jwt:    &auth.JWTer{Secret: []byte("test-secret"), Issuer: "luxora", TTL: time.Hour},
		gw:     payment.NewMemory("inr"),
		outbox: &mail.Outbox{},
		store:  storage.NewMemory(),
	}
	tx := repo.NewTx(db)
	users, sellers := repo.NewUserRepo(db), repo.NewSellerRepo(db)
	products, carts, orders := repo.NewProductRepo(db), repo.NewCartRepo(db), repo.NewOrderRepo(db)
	events := service.NewOrderEvents(nil, e.outbox, pc, l)

	e.auth = service.NewAuthService(users, sellers, e.jwt, l)
	e.account = service.NewAccountService(users, e.outbox, "https://shop.test/reset", l)
	e.products = service.NewProductService(tx, products, pc, e.store, l)
	e.cart = service.NewCartService(carts, products)
	e.wishlist = service.NewWishlistService(repo.NewWishlistRepo(db), products)
	e.checkout = service.NewCheckoutService(tx, products, carts, orders, e.gw, events, l)
	e.orders = service.NewOrderService(tx, orders, products, events, l)
	e.payments = service.NewPaymentService(e.checkout, e.gw, l)
	e.sellers = service.NewSellerService(sellers, products, l)
	e.admin = service.NewAdminService(users, sellers, l)
	return e
}

func (e *env) customer(t *testing.T, email, mobile string) *domain.User {
	t.Helper()
	res, err := e.auth.RegisterUser(context.Background(), service.RegisterUserInput{
		Name: "Asha", Email: email, Mobile: mobile, Password: "secret1",
	})
	require.NoError(t, err)
	return res.User
}

func cod(items ...service.CheckoutItem) service.CheckoutInput {
	return service.CheckoutInput{Items: items, ShippingAddress: addr, PaymentMethod: "cod"}
}

func line(productID string, qty int) service.CheckoutItem {
	return service.CheckoutItem{ProductID: productID, Quantity: qty}
}

func ptr[T any](v T) *T { return &v }
