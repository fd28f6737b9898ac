package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	"luxora/internal/service"
	"luxora/internal/testutil"
)

func TestCheckoutFromCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p1 := testutil.SeedProduct(t, e.db, s.ID, "P1", 100, 5)

	_, err := e.cart.Add(ctx, u.ID, service.AddToCartInput{ProductID: p1.ID, Quantity: 2})
	require.NoError(t, err)

	o, replayed, err := e.checkout.PlaceOrder(ctx, u, cod())
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.True(t, decimal.NewFromInt(200).Equal(o.TotalAmount), o.TotalAmount.String())
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, s.ID, o.SellerID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "P1", o.Items[0].Title)

	assert.Equal(t, 3, testutil.StockOf(t, e.db, p1.ID))
	cart, err := e.cart.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	sent := e.outbox.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Subject, o.ID)
}

func TestCheckoutInsufficientStockLeavesEverythingUntouched(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p1 := testutil.SeedProduct(t, e.db, s.ID, "P1", 100, 1)

	_, _, err := e.checkout.PlaceOrder(ctx, u, cod(line(p1.ID, 2)))
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 400, ae.Status())
	assert.Contains(t, ae.Msg, "P1")
	assert.Equal(t, 1, testutil.StockOf(t, e.db, p1.ID))

	// 第一行够、第二行不够：第一行的扣减也要回滚
	a := testutil.SeedProduct(t, e.db, s.ID, "Alpha", 10, 5)
	b := testutil.SeedProduct(t, e.db, s.ID, "Beta", 10, 1)
	_, _, err = e.checkout.PlaceOrder(ctx, u, cod(line(a.ID, 2), line(b.ID, 2)))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, 5, testutil.StockOf(t, e.db, a.ID))
	assert.Equal(t, 1, testutil.StockOf(t, e.db, b.ID))

	var n int64
	require.NoError(t, e.db.Model(&domain.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCheckoutMergesDuplicateLinesAndIgnoresUnknownProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, e.db, s.ID, "Mug", 40, 3)

	_, _, err := e.checkout.PlaceOrder(ctx, u, cod(line(p.ID, 2), line(p.ID, 2)))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "2+2 exceeds stock 3")

	o, _, err := e.checkout.PlaceOrder(ctx, u, cod(line(p.ID, 1), line(p.ID, 2)))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, 0, testutil.StockOf(t, e.db, p.ID))

	_, _, err = e.checkout.PlaceOrder(ctx, u, cod(line("missing", 1)))
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCheckoutConcurrentNeverOversells(t *testing.T) {
	e := newEnv(t)
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, e.db, s.ID, "Hot Item", 100, 5)
	u := e.customer(t, "asha@x.io", "9876543210")

	var ok, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := e.checkout.PlaceOrder(context.Background(), u, cod(line(p.ID, 1)))
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case apperr.IsKind(err, apperr.KindValidation):
				atomic.AddInt32(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 5, ok)
	assert.EqualValues(t, 7, rejected)
	assert.Equal(t, 0, testutil.StockOf(t, e.db, p.ID))
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	other := e.customer(t, "ben@x.io", "9876543211")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, e.db, s.ID, "Mug", 40, 10)

	in := cod(line(p.ID, 2))
	in.IdempotencyKey = "k-1"
	first, replayed, err := e.checkout.PlaceOrder(ctx, u, in)
	require.NoError(t, err)
	assert.False(t, replayed)

	again, replayed, err := e.checkout.PlaceOrder(ctx, u, in)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 8, testutil.StockOf(t, e.db, p.ID))

	// 同一个键对另一个用户是独立的
	theirs, replayed, err := e.checkout.PlaceOrder(ctx, other, in)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, first.ID, theirs.ID)
	assert.Equal(t, 6, testutil.StockOf(t, e.db, p.ID))
}

func TestCheckoutPaymentMethods(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, e.db, s.ID, "Mug", 40, 10)

	for _, m := range []string{"upi", "wallet", "bitcoin", "card"} {
		in := cod(line(p.ID, 1))
		in.PaymentMethod = m
		_, _, err := e.checkout.PlaceOrder(ctx, u, in)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), m)
	}
	in := cod(line(p.ID, 1))
	in.ShippingAddress = domain.Address{City: "Pune"}
	_, _, err := e.checkout.PlaceOrder(ctx, u, in)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	in = cod(line(p.ID, 1))
	in.PaymentMethod = "Cash_On_Delivery"
	o, _, err := e.checkout.PlaceOrder(ctx, u, in)
	require.NoError(t, err)
	assert.Equal(t, domain.PayCOD, o.PaymentMethod)
}

func TestCardCheckoutIsVerifiedWithGateway(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, e.db, s.ID, "Lamp", 250, 4)

	intent, err := e.payments.CreateIntent(ctx, u.ID, service.CreateIntentInput{Items: []service.CheckoutItem{line(p.ID, 2)}})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(intent.Amount))

	card := cod(line(p.ID, 2))
	card.PaymentMethod = "card"
	card.PaymentIntentID = intent.PaymentIntentID

	// 客户端声称已支付但网关上未成功
	_, _, err = e.checkout.PlaceOrder(ctx, u, card)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, 4, testutil.StockOf(t, e.db, p.ID))

	require.True(t, e.gw.Succeed(intent.PaymentIntentID))

	// 金额不符
	wrong := card
	wrong.Items = []service.CheckoutItem{line(p.ID, 1)}
	_, _, err = e.checkout.PlaceOrder(ctx, u, wrong)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	o, _, err := e.checkout.PlaceOrder(ctx, u, card)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, domain.OrderConfirmed, o.Status)
	assert.Equal(t, 2, testutil.StockOf(t, e.db, p.ID))

	// 同一笔支付不能再下一单
	_, _, err = e.checkout.PlaceOrder(ctx, u, card)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, 2, testutil.StockOf(t, e.db, p.ID))
}

func TestConcurrentCardCheckoutsShareOneIntent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, e.db, s.ID, "Lamp", 250, 10)

	intent, err := e.payments.CreateIntent(ctx, u.ID, service.CreateIntentInput{Items: []service.CheckoutItem{line(p.ID, 1)}})
	require.NoError(t, err)
	require.True(t, e.gw.Succeed(intent.PaymentIntentID))

	card := cod(line(p.ID, 1))
	card.PaymentMethod = "card"
	card.PaymentIntentID = intent.PaymentIntentID

	var ok, conflict int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := e.checkout.PlaceOrder(context.Background(), u, card)
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case apperr.IsKind(err, apperr.KindConflict):
				atomic.AddInt32(&conflict, 1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, 7, conflict)
	assert.Equal(t, 9, testutil.StockOf(t, e.db, p.ID))

	// 已被卡单占用的支付不能再确认给另一张待支付订单
	pending, _, err := e.checkout.PlaceOrder(ctx, u, cod(line(p.ID, 1)))
	require.NoError(t, err)
	_, err = e.payments.ConfirmPayment(ctx, u.ID, service.ConfirmPaymentInput{OrderID: pending.ID, PaymentIntentID: intent.PaymentIntentID})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestConfirmPaymentForPendingOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.customer(t, "asha@x.io", "9876543210")
	s := testutil.SeedSeller(t, e.db, "s@x.io", "9000000001", true)
	p := testutil.SeedProduct(t, e.db, s.ID, "Lamp", 250, 4)

	o, _, err := e.checkout.PlaceOrder(ctx, u, cod(line(p.ID, 1)))
	require.NoError(t, err)
	intent, err := e.gw.CreateIntent(ctx, o.TotalAmount, "inr", nil)
	require.NoError(t, err)

	_, err = e.payments.ConfirmPayment(ctx, u.ID, service.ConfirmPaymentInput{OrderID: o.ID, PaymentIntentID: intent.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	got, err := e.orders.GetMine(ctx, u.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, got.PaymentStatus)

	e.gw.Succeed(intent.ID)
	got, err = e.payments.ConfirmPayment(ctx, u.ID, service.ConfirmPaymentInput{OrderID: o.ID, PaymentIntentID: intent.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
	assert.Equal(t, domain.PaymentCompleted, got.PaymentStatus)

	cfg := e.payments.Config()
	assert.True(t, cfg.CardEnabled)
	assert.Equal(t, "inr", cfg.Currency)
}
