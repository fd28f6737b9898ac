package repo

import (
	"context"

	"gorm.io/gorm"

	"luxora/internal/domain"
)

// Models 全部需要迁移的表
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Seller{},
		&domain.Product{},
		&domain.Review{},
		&domain.Cart{},
		&domain.CartItem{},
		&domain.WishlistItem{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.SavedAddress{},
	}
}

// Migrate 建表后修正历史订单状态
func Migrate(ctx context.Context, db *gorm.DB) error {
	// 支付单号改为唯一索引前，旧数据里的空串要先置 NULL
	m := db.WithContext(ctx).Migrator()
	if m.HasTable(&domain.Order{}) && m.HasColumn(&domain.Order{}, "PaymentIntentID") {
		if err := db.WithContext(ctx).Model(&domain.Order{}).
			Where("payment_intent_id = ?", "").
			Update("payment_intent_id", nil).Error; err != nil {
			return err
		}
	}
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return err
	}
	_, err := NewOrderRepo(db).NormalizeStatuses(ctx)
	return err
}
