package domain

import (
	"context"
	"time"
)

type WishlistItem struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	UserID    string    `gorm:"size:32;not null;uniqueIndex:idx_wishlist_user_product" json:"userId"`
	ProductID string    `gorm:"size:32;not null;uniqueIndex:idx_wishlist_user_product" json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (WishlistItem) TableName() string { return "wishlist_items" }

// WishlistRepository 心愿单存储，SQL 与 Mongo 两种实现
type WishlistRepository interface {
	// Toggle 不存在则加入，存在则移除；added 表示本次结果
	Toggle(ctx context.Context, userID, productID string) (added bool, err error)
	Remove(ctx context.Context, userID, productID string) error
	ProductIDs(ctx context.Context, userID string) ([]string, error)
}
