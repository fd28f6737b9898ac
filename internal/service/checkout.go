package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxora/internal/core/apperr"
	"luxora/internal/core/payment"
	"luxora/internal/domain"
	"luxora/internal/repo"
	"luxora/pkg/utils"
)

const maxIdempotencyKey = 64

type CheckoutItem struct {
	ProductID string `json:"productId" binding:"required,max=32"`
	Quantity  int    `json:"quantity"  binding:"required,min=1,max=100"`
}

// CheckoutInput items 为空时使用购物车；客户端传来的价格一律忽略
type CheckoutInput struct {
	Items           []CheckoutItem `json:"items"           binding:"omitempty,max=50,dive"`
	ShippingAddress domain.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"   binding:"required,max=32"`
	PaymentIntentID string         `json:"paymentIntentId" binding:"max=128"`
	IdempotencyKey  string         `json:"-"`
}

// basket 合并后的购买行，按商品 id 排序，保证加锁顺序一致
type basket struct {
	ids []string
	qty map[string]int
}

// errDupOrder 幂等键或支付单号撞上唯一索引
var errDupOrder = errors.New("duplicate order")

var errIntentUsed = apperr.Conflict("payment intent was already used for another order")

type CheckoutService struct {
	tx       *repo.Tx
	products *repo.ProductRepo
	carts    *repo.CartRepo
	orders   *repo.OrderRepo
	gateway  payment.Gateway
	events   *OrderEvents
	log      *zap.Logger
}

func NewCheckoutService(tx *repo.Tx, products *repo.ProductRepo, carts *repo.CartRepo, orders *repo.OrderRepo,
	g payment.Gateway, ev *OrderEvents, l *zap.Logger) *CheckoutService {
	return &CheckoutService{tx: tx, products: products, carts: carts, orders: orders, gateway: g, events: ev, log: l}
}

func (s *CheckoutService) basket(ctx context.Context, uid string, items []CheckoutItem) (*basket, error) {
	b := &basket{qty: map[string]int{}}
	if len(items) == 0 {
		c, err := s.carts.Load(ctx, uid)
		if err != nil {
			return nil, dbErr(err)
		}
		for _, it := range c.Items {
			items = append(items, CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be at least 1")
		}
		if _, seen := b.qty[it.ProductID]; !seen {
			b.ids = append(b.ids, it.ProductID)
		}
		b.qty[it.ProductID] += it.Quantity
	}
	if len(b.ids) == 0 {
		return nil, apperr.Validation("cart is empty")
	}
	sort.Strings(b.ids)
	return b, nil
}

// quote 事务外按当前价格估算总额，用于创建或核验支付
func (s *CheckoutService) quote(ctx context.Context, b *basket) (decimal.Decimal, error) {
	byID, err := s.products.FindByIDs(ctx, b.ids)
	if err != nil {
		return decimal.Zero, dbErr(err)
	}
	total := decimal.Zero
	for _, id := range b.ids {
		p, ok := byID[id]
		if !ok {
			return decimal.Zero, apperr.NotFound(fmt.Sprintf("product %s not found", id))
		}
		if p.Stock < b.qty[id] {
			return decimal.Zero, insufficient(p, b.qty[id])
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(b.qty[id]))))
	}
	return total.Round(2), nil
}

func insufficient(p *domain.Product, want int) error {
	return apperr.Validation(fmt.Sprintf("insufficient stock for %s: %d available, %d requested", p.Name, p.Stock, want))
}

// paymentErr 网关核验失败一律 400，网络等错误 500
func paymentErr(err error) error {
	switch {
	case errors.Is(err, payment.ErrDisabled):
		return apperr.Validation("card payments are not available")
	case errors.Is(err, payment.ErrIntentNotFound):
		return apperr.Validation("payment intent not found")
	case errors.Is(err, payment.ErrNotSucceeded):
		return apperr.Validation("payment has not succeeded")
	case errors.Is(err, payment.ErrAmountMismatch):
		return apperr.Validation("payment amount does not match order total")
	case errors.Is(err, payment.ErrCurrency):
		return apperr.Validation("payment currency does not match")
	}
	return apperr.Internal("payment provider error", err)
}

func checkAddress(a domain.Address) error {
	if strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.City) == "" || a.Pincode == "" {
		return apperr.Validation("shipping address is incomplete")
	}
	return nil
}

// PlaceOrder 下单：整单一个事务，任一行库存不足全部回滚。
// replayed 为 true 表示同一幂等键的已有订单。
func (s *CheckoutService) PlaceOrder(ctx context.Context, u *domain.User, in CheckoutInput) (order *domain.Order, replayed bool, err error) {
	method, ok := domain.ParsePaymentMethod(in.PaymentMethod)
	defer func() {
		switch {
		case err == nil && !replayed:
			checkoutTotal.WithLabelValues(string(method), "ok").Inc()
			orderRevenue.Add(order.TotalAmount.InexactFloat64())
		case err != nil && apperr.IsKind(err, apperr.KindInternal):
			checkoutTotal.WithLabelValues(string(method), "error").Inc()
		case err != nil:
			checkoutTotal.WithLabelValues(string(method), "rejected").Inc()
		}
	}()
	if !ok {
		return nil, false, apperr.Validation("unsupported payment method")
	}
	if method == domain.PayUPI || method == domain.PayWallet {
		return nil, false, apperr.Validation(fmt.Sprintf("payment method %s is not available yet", method))
	}
	intentID := strings.TrimSpace(in.PaymentIntentID)
	if method == domain.PayCard && intentID == "" {
		return nil, false, apperr.Validation("paymentIntentId is required for card payments")
	}
	if err := checkAddress(in.ShippingAddress); err != nil {
		return nil, false, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKey {
		return nil, false, apperr.Validation("Idempotency-Key is too long")
	}
	if key != "" {
		prev, err := s.orders.FindByIdempotencyKey(ctx, u.ID, key)
		if err != nil {
			return nil, false, dbErr(err)
		}
		if prev != nil {
			return prev, true, nil
		}
	}

	b, err := s.basket(ctx, u.ID, in.Items)
	if err != nil {
		return nil, false, err
	}

	// 卡支付先在事务外向网关核验，事务内再确认金额未变
	var intent *payment.Intent
	if method == domain.PayCard {
		expected, err := s.quote(ctx, b)
		if err != nil {
			return nil, false, err
		}
		if intent, err = payment.Verify(ctx, s.gateway, intentID, expected, s.gateway.Currency()); err != nil {
			s.log.Warn("card payment rejected", zap.String("uid", u.ID), zap.String("intent", intentID), zap.Error(err))
			return nil, false, paymentErr(err)
		}
	}

	o := &domain.Order{
		ID:              utils.NewID(),
		UserID:          u.ID,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentPending,
		Status:          domain.OrderPending,
	}
	if key != "" {
		o.IdempotencyKey = &key
	}
	if intent != nil {
		id := intent.ID
		o.PaymentIntentID = &id
		o.PaymentStatus = domain.PaymentCompleted
		o.Status = domain.OrderConfirmed
	}

	err = s.tx.Do(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)
		total := decimal.Zero
		sellers := map[string]struct{}{}
		for _, id := range b.ids {
			q := b.qty[id]
			p, err := products.FindByID(ctx, id, false)
			if err != nil {
				return dbErr(err)
			}
			if p == nil {
				return apperr.NotFound(fmt.Sprintf("product %s not found", id))
			}
			if p.Stock < q {
				return insufficient(p, q)
			}
			ok, err := products.DecrementStock(ctx, id, q)
			if err != nil {
				return dbErr(err)
			}
			if !ok {
				// 读取之后被并发订单抢先扣减
				return insufficient(p, q)
			}
			img := ""
			if len(p.Images) > 0 {
				img = p.Images[0]
			}
			o.Items = append(o.Items, domain.OrderItem{
				ID:        utils.NewID(),
				OrderID:   o.ID,
				ProductID: p.ID,
				SellerID:  p.SellerID,
				Title:     p.Name,
				Image:     img,
				UnitPrice: p.Price,
				Quantity:  q,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(q))))
			sellers[p.SellerID] = struct{}{}
		}
		o.TotalAmount = total.Round(2)
		if len(sellers) == 1 {
			o.SellerID = o.Items[0].SellerID
		}
		if intent != nil {
			if !intent.Amount.Equal(o.TotalAmount) {
				return apperr.Validation("prices changed during checkout, please retry")
			}
			used, err := orders.PaymentIntentUsed(ctx, intent.ID, o.ID)
			if err != nil {
				return dbErr(err)
			}
			if used {
				return errIntentUsed
			}
		}
		if err := orders.Create(ctx, o); err != nil {
			if repo.IsDupKey(err) {
				return errDupOrder
			}
			return dbErr(err)
		}
		if err := s.carts.WithTx(tx).RemoveProducts(ctx, u.ID, b.ids); err != nil {
			return dbErr(err)
		}
		return nil
	})
	if errors.Is(err, errDupOrder) {
		if key != "" {
			if prev, ferr := s.orders.FindByIdempotencyKey(ctx, u.ID, key); ferr == nil && prev != nil {
				return prev, true, nil
			}
		}
		if intent != nil {
			return nil, false, errIntentUsed
		}
		return nil, false, apperr.Conflict("order with this Idempotency-Key is being processed")
	}
	if err != nil {
		return nil, false, err
	}

	s.log.Info("order placed",
		zap.String("order", o.ID),
		zap.String("uid", u.ID),
		zap.String("method", string(method)),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(o.Items)),
	)
	s.events.Placed(ctx, u, o)
	return o, false, nil
}
