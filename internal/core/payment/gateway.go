// Package payment 支付网关：创建与查询 PaymentIntent，服务端据此核验卡支付。
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const StatusSucceeded = "succeeded"

var (
	ErrDisabled       = errors.New("payment provider is not configured")
	ErrIntentNotFound = errors.New("payment intent not found")
	ErrNotSucceeded   = errors.New("payment has not succeeded")
	ErrAmountMismatch = errors.New("payment amount does not match order total")
	ErrCurrency       = errors.New("payment currency does not match")
)

// Intent 金额为主币单位（元/卢比），与订单金额直接比较
type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       string
	Metadata     map[string]string
}

type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	PublishableKey() string
	Currency() string
}

// Verify 卡支付必须已成功，且金额、币种与订单一致
func Verify(ctx context.Context, g Gateway, intentID string, amount decimal.Decimal, currency string) (*Intent, error) {
	if g == nil {
		return nil, ErrDisabled
	}
	in, err := g.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if in.Status != StatusSucceeded {
		return in, ErrNotSucceeded
	}
	if !in.Amount.Equal(amount.Round(2)) {
		return in, ErrAmountMismatch
	}
	if !strings.EqualFold(in.Currency, currency) {
		return in, ErrCurrency
	}
	return in, nil
}

// 主币 <-> 最小币种单位（分/派萨）
func ToMinor(amount decimal.Decimal) int64 { return amount.Shift(2).Round(0).IntPart() }

func FromMinor(v int64) decimal.Decimal { return decimal.New(v, -2) }

// Disabled provider=none 时使用：拒绝一切卡支付
type Disabled struct{ currency string }

func NewDisabled(currency string) *Disabled { return &Disabled{currency: currency} }

func (d *Disabled) CreateIntent(context.Context, decimal.Decimal, string, map[string]string) (*Intent, error) {
	return nil, ErrDisabled
}

func (d *Disabled) GetIntent(context.Context, string) (*Intent, error) { return nil, ErrDisabled }

func (d *Disabled) PublishableKey() string { return "" }

func (d *Disabled) Currency() string { return d.currency }
