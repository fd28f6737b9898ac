package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	"luxora/internal/repo"
)

type CancelInput struct {
	Reason string `json:"reason" binding:"max=255"`
}

type StatusInput struct {
	Status string `json:"status" binding:"required,max=32"`
	Reason string `json:"reason" binding:"max=255"`
}

type SellerOrdersQuery struct {
	Since string `form:"since"`
	PageQuery
}

type AdminOrdersQuery struct {
	Status string `form:"status" binding:"omitempty,max=32"`
	PageQuery
}

// SellerOrder 卖家视角：只包含自己的行与小计
type SellerOrder struct {
	domain.Order
	SellerTotal string `json:"sellerTotal"`
	Exclusive   bool   `json:"exclusive"` // 全部行属于该卖家时才能推进状态
}

type OrderService struct {
	tx       *repo.Tx
	orders   *repo.OrderRepo
	products *repo.ProductRepo
	events   *OrderEvents
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderService(tx *repo.Tx, orders *repo.OrderRepo, products *repo.ProductRepo, ev *OrderEvents, l *zap.Logger) *OrderService {
	return &OrderService{tx: tx, orders: orders, products: products, events: ev, log: l, now: time.Now}
}

func (s *OrderService) ListMine(ctx context.Context, uid string, q PageQuery) (Page[domain.Order], error) {
	off, lim, page := q.norm()
	items, total, err := s.orders.ListByUser(ctx, uid, off, lim)
	if err != nil {
		return Page[domain.Order]{}, dbErr(err)
	}
	return newPage(items, total, page, lim), nil
}

// GetMine 其他用户的订单返回 404
func (s *OrderService) GetMine(ctx context.Context, uid, id string) (*domain.Order, error) {
	o, err := s.orders.FindForUser(ctx, uid, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	return o, nil
}

// Cancel 用户取消自己的订单
func (s *OrderService) Cancel(ctx context.Context, uid, id string, in CancelInput) (*domain.Order, error) {
	return s.cancel(ctx, uid, id, in.Reason)
}

// cancel uid 为空时不校验归属（管理端）。状态、原因、时间与库存回补在同一事务。
func (s *OrderService) cancel(ctx context.Context, uid, id, reason string) (*domain.Order, error) {
	var o *domain.Order
	err := s.tx.Do(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		var err error
		if uid != "" {
			o, err = orders.FindForUser(ctx, uid, id)
		} else {
			o, err = orders.FindByID(ctx, id)
		}
		if err != nil {
			return dbErr(err)
		}
		if o == nil {
			return apperr.NotFound("order not found")
		}
		if !o.Status.Cancellable() {
			return apperr.Validation(fmt.Sprintf("order is already %s and cannot be cancelled", o.Status))
		}
		now := s.now()
		reason = strings.TrimSpace(reason)
		ok, err := orders.Transition(ctx, o.ID, o.Status, map[string]any{
			"status":        domain.OrderCancelled,
			"cancel_reason": reason,
			"cancelled_at":  now,
		})
		if err != nil {
			return dbErr(err)
		}
		if !ok {
			return apperr.Conflict("order was updated concurrently, please retry")
		}
		products := s.products.WithTx(tx)
		for _, it := range o.Items {
			if err := products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
				return dbErr(err)
			}
		}
		o.Status, o.CancelReason, o.CancelledAt = domain.OrderCancelled, reason, &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	orderCancelled.Inc()
	if o.PaymentStatus == domain.PaymentCompleted {
		// 退款不在系统内处理，需人工跟进
		s.log.Warn("paid order cancelled, refund required", zap.String("order", o.ID), zap.String("intent", o.IntentID()))
	}
	s.log.Info("order cancelled", zap.String("order", o.ID), zap.String("uid", o.UserID))
	s.events.Updated(ctx, o)
	return o, nil
}

func hasSellerLine(o *domain.Order, sellerID string) bool {
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			return true
		}
	}
	return false
}

func toSellerOrder(o domain.Order, sellerID string) SellerOrder {
	exclusive := o.OnlyFromSeller(sellerID)
	own := make([]domain.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.SellerID == sellerID {
			own = append(own, it)
		}
	}
	o.Items = own
	return SellerOrder{Order: o, SellerTotal: sellerTotals(&o)[sellerID], Exclusive: exclusive}
}

// ListForSeller since 为 RFC3339 时间，只返回之后创建的订单（轮询增量）
func (s *OrderService) ListForSeller(ctx context.Context, sellerID string, q SellerOrdersQuery) (Page[SellerOrder], error) {
	var since *time.Time
	if q.Since != "" {
		t, err := time.Parse(time.RFC3339, q.Since)
		if err != nil {
			return Page[SellerOrder]{}, apperr.Validation("since must be an RFC3339 timestamp")
		}
		since = &t
	}
	off, lim, page := q.norm()
	items, total, err := s.orders.ListForSeller(ctx, sellerID, since, off, lim)
	if err != nil {
		return Page[SellerOrder]{}, dbErr(err)
	}
	out := make([]SellerOrder, 0, len(items))
	for _, o := range items {
		out = append(out, toSellerOrder(o, sellerID))
	}
	return newPage(out, total, page, lim), nil
}

// Advance 卖家推进履约状态；订单必须全部由该卖家的商品组成
func (s *OrderService) Advance(ctx context.Context, sellerID, id string, in StatusInput) (*SellerOrder, error) {
	next, ok := domain.ParseOrderStatus(in.Status)
	if !ok {
		return nil, apperr.Validation("unknown order status")
	}
	if next == domain.OrderCancelled {
		return nil, apperr.Forbidden("sellers cannot cancel orders")
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if o == nil || !hasSellerLine(o, sellerID) {
		return nil, apperr.NotFound("order not found")
	}
	if !o.OnlyFromSeller(sellerID) {
		return nil, apperr.Forbidden("order contains items from other sellers")
	}
	if err := s.advance(ctx, o, next); err != nil {
		return nil, err
	}
	so := toSellerOrder(*o, sellerID)
	return &so, nil
}

// SetStatus 管理端：可以推进状态，也可以取消
func (s *OrderService) SetStatus(ctx context.Context, id string, in StatusInput) (*domain.Order, error) {
	next, ok := domain.ParseOrderStatus(in.Status)
	if !ok {
		return nil, apperr.Validation("unknown order status")
	}
	if next == domain.OrderCancelled {
		return s.cancel(ctx, "", id, in.Reason)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	if err := s.advance(ctx, o, next); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) advance(ctx context.Context, o *domain.Order, next domain.OrderStatus) error {
	if !o.Status.CanAdvanceTo(next) {
		return apperr.Validation(fmt.Sprintf("cannot change order status from %s to %s", o.Status, next))
	}
	fields := map[string]any{"status": next}
	// 货到付款在签收时视为已收款
	if next == domain.OrderDelivered && o.PaymentMethod == domain.PayCOD {
		fields["payment_status"] = domain.PaymentCompleted
	}
	ok, err := s.orders.Transition(ctx, o.ID, o.Status, fields)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return apperr.Conflict("order was updated concurrently, please retry")
	}
	s.log.Info("order status changed", zap.String("order", o.ID), zap.String("from", string(o.Status)), zap.String("to", string(next)))
	o.Status = next
	if v, ok := fields["payment_status"]; ok {
		o.PaymentStatus = v.(domain.PaymentStatus)
	}
	s.events.Updated(ctx, o)
	return nil
}

func (s *OrderService) ListAll(ctx context.Context, q AdminOrdersQuery) (Page[domain.Order], error) {
	var st domain.OrderStatus
	if q.Status != "" {
		var ok bool
		if st, ok = domain.ParseOrderStatus(q.Status); !ok {
			return Page[domain.Order]{}, apperr.Validation("unknown order status")
		}
	}
	off, lim, page := q.norm()
	items, total, err := s.orders.ListAll(ctx, st, off, lim)
	if err != nil {
		return Page[domain.Order]{}, dbErr(err)
	}
	return newPage(items, total, page, lim), nil
}
