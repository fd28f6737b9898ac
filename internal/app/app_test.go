package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxora/internal/app"
	"luxora/internal/core/config"
	"luxora/internal/core/mail"
	"luxora/internal/core/payment"
	"luxora/internal/core/storage"
	"luxora/internal/domain"
	"luxora/internal/service"
	"luxora/internal/testutil"
	"luxora/internal/transport/http/ez"
	resp "luxora/internal/transport/http/response"
)

type harness struct {
	db     *gorm.DB
	app    *app.App
	api    *gin.Engine
	admin  *gin.Engine
	outbox *mail.Outbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ez.SetupValidator()

	cfg := &config.Config{
		JWT:     config.JWT{Secret: "test-secret", Issuer: "luxora", AccessTokenTTLMin: 60},
		Payment: config.Payment{Currency: "inr"},
	}
	h := &harness{db: testutil.NewDB(t), outbox: &mail.Outbox{}}
	h.app = app.New(cfg, zap.NewNop(), app.Infra{
		DB:       h.db,
		Gateway:  payment.NewMemory("inr"),
		Store:    storage.NewMemory(),
		Mailer:   h.outbox,
		Realtime: true,
	})
	// 所有请求来自同一个 IP
	h.app.Opts.PerIPRPS = 1000
	h.api = h.app.APIEngine()
	h.admin = h.app.AdminEngine()
	return h
}

func call(t *testing.T, r http.Handler, method, path, token string, body any, hdr ...string) (int, resp.Resp) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out resp.Resp
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func field(t *testing.T, r resp.Resp, path ...string) any {
	t.Helper()
	var cur any = r.Data
	for _, k := range path {
		m, ok := cur.(map[string]any)
		require.True(t, ok, "no object at %q", k)
		cur = m[k]
	}
	return cur
}

func (h *harness) register(t *testing.T, email, mobile string) string {
	t.Helper()
	code, out := call(t, h.api, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Asha", "email": email, "mobile": mobile, "password": "secret12",
	})
	require.Equal(t, http.StatusCreated, code, out.Message)
	return field(t, out, "token").(string)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	code, _ := call(t, h.api, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, h.admin, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	h.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "luxora_http_requests_total")
}

func TestRegisterLoginProfile(t *testing.T) {
	h := newHarness(t)
	h.register(t, "asha@x.io", "9876543210")

	code, out := call(t, h.api, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Asha", "email": "ASHA@x.io", "mobile": "9876543211", "password": "secret12",
	})
	assert.Equal(t, http.StatusConflict, code, out.Message)

	code, out = call(t, h.api, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "A", "email": "bad", "mobile": "12", "password": "x",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, out.Success)

	code, out = call(t, h.api, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "asha@x.io", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Nil(t, out.Data)

	code, out = call(t, h.api, http.MethodPost, "/api/user/login", "", map[string]any{
		"identifier": "9876543210", "password": "secret12",
	})
	require.Equal(t, http.StatusOK, code, out.Message)
	tok := field(t, out, "token").(string)

	code, _ = call(t, h.api, http.MethodGet, "/api/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = call(t, h.api, http.MethodGet, "/api/user/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, out = call(t, h.api, http.MethodGet, "/api/user/profile", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "asha@x.io", field(t, out, "email"))
	assert.Nil(t, field(t, out, "password"))
	assert.Nil(t, field(t, out, "passwordHash"))
}

func TestRoleSeparation(t *testing.T) {
	h := newHarness(t)
	userTok := h.register(t, "asha@x.io", "9876543210")

	testutil.SeedSeller(t, h.db, "s@x.io", "9000000001", true)
	code, out := call(t, h.api, http.MethodPost, "/api/seller/auth/login", "", map[string]any{
		"email": "s@x.io", "password": "Seller123",
	})
	require.Equal(t, http.StatusOK, code, out.Message)
	sellerTok := field(t, out, "token").(string)

	code, _ = call(t, h.api, http.MethodGet, "/api/seller/profile", userTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, h.api, http.MethodGet, "/api/cart", sellerTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = call(t, h.api, http.MethodGet, "/api/seller/profile", sellerTok, nil)
	assert.Equal(t, http.StatusOK, code)

	// 普通用户的 token 进不了管理端
	code, _ = call(t, h.admin, http.MethodGet, "/admin/v1/users", userTok, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSellerCatalogAndCheckoutOverHTTP(t *testing.T) {
	h := newHarness(t)
	userTok := h.register(t, "asha@x.io", "9876543210")

	testutil.SeedSeller(t, h.db, "s@x.io", "9000000001", true)
	_, out := call(t, h.api, http.MethodPost, "/api/seller/auth/login", "", map[string]any{
		"email": "s@x.io", "password": "Seller123",
	})
	sellerTok := field(t, out, "token").(string)

	code, out := call(t, h.api, http.MethodPost, "/api/products", sellerTok, map[string]any{
		"name": "Kurta", "description": "cotton", "price": "500", "category": "apparel", "brand": "fab", "stock": 3,
	})
	require.Equal(t, http.StatusCreated, code, out.Message)
	pid := field(t, out, "id").(string)

	code, out = call(t, h.api, http.MethodGet, "/api/products/"+pid, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Kurta", field(t, out, "name"))

	code, out = call(t, h.api, http.MethodPost, "/api/cart", userTok, map[string]any{"productId": pid, "quantity": 2})
	require.Equal(t, http.StatusOK, code, out.Message)

	order := map[string]any{
		"paymentMethod":   "cod",
		"shippingAddress": map[string]any{"line1": "1 MG Road", "city": "Pune", "pincode": "411001"},
	}
	code, out = call(t, h.api, http.MethodPost, "/api/orders", userTok, order, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, code, out.Message)
	oid := field(t, out, "id").(string)
	assert.Equal(t, 1, testutil.StockOf(t, h.db, pid))

	// 重放同一个幂等键：200 + 同一订单，不再扣库存
	code, out = call(t, h.api, http.MethodPost, "/api/orders", userTok, order, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, code, out.Message)
	assert.Equal(t, oid, field(t, out, "id"))
	assert.Equal(t, 1, testutil.StockOf(t, h.db, pid))

	code, out = call(t, h.api, http.MethodGet, "/api/seller/orders", sellerTok, nil)
	require.Equal(t, http.StatusOK, code, out.Message)
	assert.EqualValues(t, 1, field(t, out, "total"))

	code, out = call(t, h.api, http.MethodPut, "/api/seller/orders/"+oid+"/status", sellerTok, map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, code, out.Message)

	code, out = call(t, h.api, http.MethodPut, "/api/orders/"+oid+"/cancel", userTok, map[string]any{"reason": "changed my mind"})
	require.Equal(t, http.StatusOK, code, out.Message)
	assert.Equal(t, "cancelled", field(t, out, "status"))
	assert.Equal(t, 3, testutil.StockOf(t, h.db, pid))

	code, out = call(t, h.api, http.MethodGet, "/api/payment/config", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "inr", field(t, out, "currency"))
}

func TestAdminLoginAndBan(t *testing.T) {
	h := newHarness(t)
	userTok := h.register(t, "asha@x.io", "9876543210")
	require.NoError(t, h.app.Auth.EnsureAdmin(context.Background(), "root@x.io", "Admin1234"))

	code, out := call(t, h.admin, http.MethodPost, "/admin/v1/auth/login", "", map[string]any{
		"identifier": "asha@x.io", "password": "secret12",
	})
	assert.Equal(t, http.StatusForbidden, code, out.Message)

	code, out = call(t, h.admin, http.MethodPost, "/admin/v1/auth/login", "", map[string]any{
		"identifier": "root@x.io", "password": "Admin1234",
	})
	require.Equal(t, http.StatusOK, code, out.Message)
	adminTok := field(t, out, "token").(string)

	code, out = call(t, h.admin, http.MethodGet, "/admin/v1/users", adminTok, nil)
	require.Equal(t, http.StatusOK, code, out.Message)
	items := field(t, out, "items").([]any)
	require.Len(t, items, 2)

	var uid string
	for _, it := range items {
		if m := it.(map[string]any); m["email"] == "asha@x.io" {
			uid = m["id"].(string)
		}
	}
	require.NotEmpty(t, uid)

	code, out = call(t, h.admin, http.MethodPost, "/admin/v1/users/"+uid+"/ban", adminTok, nil)
	require.Equal(t, http.StatusOK, code, out.Message)

	// 被封禁的账号 token 仍然有效但主体已不存在
	code, _ = call(t, h.api, http.MethodGet, "/api/user/profile", userTok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminProcessSkipsRealtime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ez.SetupValidator()
	db := testutil.NewDB(t)
	cfg := &config.Config{JWT: config.JWT{Secret: "test-secret", Issuer: "luxora", AccessTokenTTLMin: 60}}
	a := app.New(cfg, zap.NewNop(), app.Infra{DB: db, Mailer: &mail.Outbox{}})
	// 管理端进程不跑 Hub，订单事件也不该排进推送队列
	require.Nil(t, a.Hub)
	a.RunHub(context.Background())

	u := testutil.SeedUser(t, db, "asha@x.io", "9876543210", "secret12")
	s := testutil.SeedSeller(t, db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, db, s.ID, "Kurta", 500, 5)

	o, _, err := a.Checkout.PlaceOrder(context.Background(), u, service.CheckoutInput{
		Items:           []service.CheckoutItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: domain.Address{Line1: "1 MG Road", City: "Pune", Pincode: "411001"},
		PaymentMethod:   "cod",
	})
	require.NoError(t, err)
	got, err := a.Orders.SetStatus(context.Background(), o.ID, service.StatusInput{Status: string(domain.OrderConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)

	// 没有 Hub 时卖家实时通道返回 404
	_, out := call(t, a.APIEngine(), http.MethodPost, "/api/seller/auth/login", "", map[string]any{
		"email": "s@x.io", "password": "Seller123",
	})
	tok := field(t, out, "token").(string)
	code, _ := call(t, a.APIEngine(), http.MethodGet, "/api/seller/ws", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
