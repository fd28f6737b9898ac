package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string     `gorm:"primaryKey;size:32" json:"id"`
	UserID    string     `gorm:"size:32;not null;uniqueIndex" json:"userId"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	CartID    string    `gorm:"size:32;not null;uniqueIndex:idx_cart_product" json:"-"`
	ProductID string    `gorm:"size:32;not null;uniqueIndex:idx_cart_product" json:"productId"`
	Quantity  int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (CartItem) TableName() string { return "cart_items" }

// Subtotal 仅统计仍在售的商品
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		sum = sum.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
