package repo

import (
	"context"

	"gorm.io/gorm"

	"luxora/internal/domain"
	"luxora/pkg/utils"
)

type WishlistRepo struct{ db *gorm.DB }

func NewWishlistRepo(db *gorm.DB) *WishlistRepo { return &WishlistRepo{db: db} }

var _ domain.WishlistRepository = (*WishlistRepo)(nil)

func (r *WishlistRepo) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&domain.WishlistItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		added = true
		return tx.Create(&domain.WishlistItem{ID: utils.NewID(), UserID: userID, ProductID: productID}).Error
	})
	return added, err
}

func (r *WishlistRepo) Remove(ctx context.Context, userID, productID string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&domain.WishlistItem{}).Error
}

func (r *WishlistRepo) ProductIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&domain.WishlistItem{}).
		Where("user_id = ?", userID).Order("created_at asc, id asc").
		Pluck("product_id", &ids).Error
	return ids, err
}
