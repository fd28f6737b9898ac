package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"luxora/internal/core/mail"
	"luxora/internal/core/realtime"
	"luxora/internal/domain"
)

// Notifier 卖家实时推送；*realtime.Hub 实现
type Notifier interface {
	Notify(sellerID string, ev realtime.Event)
}

const mailTimeout = 10 * time.Second

// OrderEvents 订单提交后的副作用：缓存失效、推送卖家、发确认邮件。
// 全部在事务提交之后执行，失败只记日志。
type OrderEvents struct {
	hub    Notifier
	mailer mail.Mailer
	cache  *ProductCache
	log    *zap.Logger
}

func NewOrderEvents(hub Notifier, m mail.Mailer, pc *ProductCache, l *zap.Logger) *OrderEvents {
	return &OrderEvents{hub: hub, mailer: m, cache: pc, log: l}
}

func productIDs(o *domain.Order) []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// sellerTotals 每个卖家只看到自己那部分金额
func sellerTotals(o *domain.Order) map[string]string {
	sums := map[string]decimal.Decimal{}
	for _, it := range o.Items {
		sums[it.SellerID] = sums[it.SellerID].Add(it.LineTotal())
	}
	out := make(map[string]string, len(sums))
	for sid, v := range sums {
		out[sid] = v.StringFixed(2)
	}
	return out
}

func (e *OrderEvents) notify(o *domain.Order, typ string) {
	if e == nil || e.hub == nil {
		return
	}
	for sid, total := range sellerTotals(o) {
		e.hub.Notify(sid, realtime.Event{
			Type:      typ,
			OrderID:   o.ID,
			Status:    string(o.Status),
			Total:     total,
			CreatedAt: o.CreatedAt,
		})
	}
}

func (e *OrderEvents) Placed(ctx context.Context, u *domain.User, o *domain.Order) {
	if e == nil {
		return
	}
	e.cache.Invalidate(ctx, productIDs(o)...)
	e.notify(o, "order.created")
	if e.mailer == nil || u == nil {
		return
	}
	lines := make([]mail.OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, mail.OrderLine{Title: it.Title, Quantity: it.Quantity, Amount: it.LineTotal().StringFixed(2)})
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()
	msg := mail.OrderPlaced(u.Name, u.Email, o.ID, o.TotalAmount.StringFixed(2), lines)
	if err := e.mailer.Send(mctx, msg); err != nil {
		e.log.Error("send order mail failed", zap.String("order", o.ID), zap.Error(err))
	}
}

// Updated 状态变化；取消时库存已回补，同样需要失效缓存
func (e *OrderEvents) Updated(ctx context.Context, o *domain.Order) {
	if e == nil {
		return
	}
	if o.Status == domain.OrderCancelled {
		e.cache.Invalidate(ctx, productIDs(o)...)
	}
	e.notify(o, "order.updated")
}
