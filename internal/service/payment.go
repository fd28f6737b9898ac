package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"luxora/internal/core/apperr"
	"luxora/internal/core/payment"
	"luxora/internal/domain"
	"luxora/internal/repo"
)

type PaymentConfig struct {
	PublishableKey string `json:"publishableKey"`
	Currency       string `json:"currency"`
	CardEnabled    bool   `json:"cardEnabled"`
}

type CreateIntentInput struct {
	Items []CheckoutItem `json:"items" binding:"omitempty,max=50,dive"`
}

type IntentResult struct {
	PaymentIntentID string          `json:"paymentIntentId"`
	ClientSecret    string          `json:"clientSecret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

type ConfirmPaymentInput struct {
	OrderID         string `json:"orderId"         binding:"required,max=32"`
	PaymentIntentID string `json:"paymentIntentId" binding:"required,max=128"`
}

// PaymentService 卡支付：总额一律由服务端计算，确认时向网关核验
type PaymentService struct {
	checkout *CheckoutService
	gateway  payment.Gateway
	log      *zap.Logger
}

func NewPaymentService(checkout *CheckoutService, g payment.Gateway, l *zap.Logger) *PaymentService {
	return &PaymentService{checkout: checkout, gateway: g, log: l}
}

func (s *PaymentService) Config() PaymentConfig {
	key := s.gateway.PublishableKey()
	return PaymentConfig{PublishableKey: key, Currency: s.gateway.Currency(), CardEnabled: key != ""}
}

func (s *PaymentService) CreateIntent(ctx context.Context, uid string, in CreateIntentInput) (*IntentResult, error) {
	b, err := s.checkout.basket(ctx, uid, in.Items)
	if err != nil {
		return nil, err
	}
	total, err := s.checkout.quote(ctx, b)
	if err != nil {
		return nil, err
	}
	intent, err := s.gateway.CreateIntent(ctx, total, s.gateway.Currency(), map[string]string{"userId": uid})
	if err != nil {
		return nil, paymentErr(err)
	}
	s.log.Info("payment intent created", zap.String("uid", uid), zap.String("intent", intent.ID), zap.String("amount", total.StringFixed(2)))
	return &IntentResult{PaymentIntentID: intent.ID, ClientSecret: intent.ClientSecret, Amount: intent.Amount, Currency: intent.Currency}, nil
}

// ConfirmPayment 为待支付订单补做卡支付核验；核验失败标记 failed 并返回 400
func (s *PaymentService) ConfirmPayment(ctx context.Context, uid string, in ConfirmPaymentInput) (*domain.Order, error) {
	orders := s.checkout.orders
	o, err := orders.FindForUser(ctx, uid, in.OrderID)
	if err != nil {
		return nil, dbErr(err)
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	intentID := strings.TrimSpace(in.PaymentIntentID)
	if o.PaymentStatus == domain.PaymentCompleted && o.IntentID() == intentID {
		return o, nil
	}
	if o.Status != domain.OrderPending {
		return nil, apperr.Validation("order is not awaiting payment")
	}
	used, err := orders.PaymentIntentUsed(ctx, intentID, o.ID)
	if err != nil {
		return nil, dbErr(err)
	}
	if used {
		return nil, errIntentUsed
	}
	if _, err := payment.Verify(ctx, s.gateway, intentID, o.TotalAmount, s.gateway.Currency()); err != nil {
		s.log.Warn("payment confirmation rejected", zap.String("order", o.ID), zap.String("intent", intentID), zap.Error(err))
		perr := paymentErr(err)
		if apperr.IsKind(perr, apperr.KindValidation) {
			if e := orders.SetPaymentStatus(ctx, o.ID, domain.PaymentFailed); e != nil {
				return nil, dbErr(e)
			}
		}
		return nil, perr
	}
	ok, err := orders.Transition(ctx, o.ID, domain.OrderPending, map[string]any{
		"status":            domain.OrderConfirmed,
		"payment_status":    domain.PaymentCompleted,
		"payment_intent_id": intentID,
		"payment_method":    domain.PayCard,
	})
	if repo.IsDupKey(err) {
		return nil, errIntentUsed
	}
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		return nil, apperr.Conflict("order was updated concurrently, please retry")
	}
	o.Status, o.PaymentStatus, o.PaymentIntentID, o.PaymentMethod =
		domain.OrderConfirmed, domain.PaymentCompleted, &intentID, domain.PayCard
	s.log.Info("payment confirmed", zap.String("order", o.ID), zap.String("intent", intentID))
	s.checkout.events.Updated(ctx, o)
	return o, nil
}
