package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const MaxRating = 5

type Product struct {
	ID            string          `gorm:"primaryKey;size:32" json:"id"`
	SellerID      string          `gorm:"size:32;not null;index" json:"sellerId"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"originalPrice"`
	Discount      int             `gorm:"not null;default:0" json:"discount"` // 百分比，由价格推导
	Category      string          `gorm:"size:64;index" json:"category"`
	Brand         string          `gorm:"size:64;index" json:"brand"`
	Images        StringList      `gorm:"type:text" json:"images"`
	Stock         int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Rating        float64         `gorm:"not null;default:0" json:"rating"`
	NumReviews    int             `gorm:"not null;default:0" json:"numReviews"`
	Reviews       []Review        `gorm:"foreignKey:ProductID" json:"reviews,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "products" }

// ComputeDiscount 原价高于售价时按百分比取整，否则为 0
func (p *Product) ComputeDiscount() {
	if p.OriginalPrice.LessThanOrEqual(p.Price) || p.OriginalPrice.IsZero() {
		p.Discount = 0
		return
	}
	off := p.OriginalPrice.Sub(p.Price).Div(p.OriginalPrice).Mul(decimal.NewFromInt(100))
	p.Discount = int(off.Round(0).IntPart())
}

type Review struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	ProductID string    `gorm:"size:32;not null;uniqueIndex:idx_review_product_user" json:"productId"`
	UserID    string    `gorm:"size:32;not null;uniqueIndex:idx_review_product_user" json:"userId"`
	Name      string    `gorm:"size:64" json:"name"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Review) TableName() string { return "reviews" }

// ProductFilter 列表查询条件
type ProductFilter struct {
	Category  string
	Brand     string
	SellerID  string
	Q         string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
	Sort      string // newest | price_asc | price_desc | rating
	Offset    int
	Limit     int
}
