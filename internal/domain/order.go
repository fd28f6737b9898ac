package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var AllOrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled,
}

// 历史数据里出现过的写法
var legacyStatus = map[string]OrderStatus{
	"placed":       OrderPending,
	"order placed": OrderPending,
	"canceled":     OrderCancelled,
	"dispatched":   OrderShipped,
}

// ParseOrderStatus 大小写不敏感，兼容旧写法
func ParseOrderStatus(s string) (OrderStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, st := range AllOrderStatuses {
		if string(st) == v {
			return st, true
		}
	}
	if st, ok := legacyStatus[v]; ok {
		return st, true
	}
	return "", false
}

// Cancellable 已送达或已取消的订单不能再取消
func (s OrderStatus) Cancellable() bool {
	return s != OrderDelivered && s != OrderCancelled
}

var fulfilmentNext = map[OrderStatus]OrderStatus{
	OrderPending:    OrderConfirmed,
	OrderConfirmed:  OrderProcessing,
	OrderProcessing: OrderShipped,
	OrderShipped:    OrderDelivered,
}

// CanAdvanceTo 履约流程只能逐级前进
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	return fulfilmentNext[s] == next
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PayCard   PaymentMethod = "card"
	PayCOD    PaymentMethod = "cod"
	PayUPI    PaymentMethod = "upi"
	PayWallet PaymentMethod = "wallet"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch v := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); v {
	case PayCard, PayCOD, PayUPI, PayWallet:
		return v, true
	case "cash", "cash_on_delivery":
		return PayCOD, true
	}
	return "", false
}

type Order struct {
	ID              string          `gorm:"primaryKey;size:32" json:"id"`
	UserID          string          `gorm:"size:32;not null;index;uniqueIndex:idx_orders_user_idem" json:"userId"`
	SellerID        string          `gorm:"size:32;index" json:"sellerId,omitempty"` // 仅当所有行属于同一卖家
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `gorm:"size:16;not null" json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `gorm:"size:16;not null;default:pending" json:"paymentStatus"`
	PaymentIntentID *string         `gorm:"size:128;uniqueIndex" json:"paymentIntentId,omitempty"` // 货到付款为 NULL
	Status          OrderStatus     `gorm:"size:16;not null;default:pending;index" json:"status"`
	CancelReason    string          `gorm:"size:255" json:"cancelReason,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	IdempotencyKey  *string         `gorm:"size:64;uniqueIndex:idx_orders_user_idem" json:"-"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:32" json:"id"`
	OrderID   string          `gorm:"size:32;not null;index" json:"-"`
	ProductID string          `gorm:"size:32;not null;index" json:"productId"`
	SellerID  string          `gorm:"size:32;not null;index" json:"sellerId"`
	Title     string          `gorm:"size:200;not null" json:"title"`
	Image     string          `gorm:"size:512" json:"image,omitempty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	Quantity  int             `gorm:"not null" json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OnlyFromSeller 订单所有行是否都属于该卖家
func (o *Order) IntentID() string {
	if o.PaymentIntentID == nil {
		return ""
	}
	return *o.PaymentIntentID
}

func (o *Order) OnlyFromSeller(sellerID string) bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, it := range o.Items {
		if it.SellerID != sellerID {
			return false
		}
	}
	return true
}
