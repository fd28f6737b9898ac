package repo

import (
	"context"

	"gorm.io/gorm"

	"luxora/internal/domain"
	"luxora/pkg/utils"
)

type CartRepo struct{ db *gorm.DB }

func NewCartRepo(db *gorm.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) WithTx(tx *gorm.DB) *CartRepo { return &CartRepo{db: tx} }

// Ensure 懒创建购物车
func (r *CartRepo) Ensure(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).
		Where(domain.Cart{UserID: userID}).
		Attrs(domain.Cart{ID: utils.NewID()}).
		FirstOrCreate(&c).Error
	if IsDupKey(err) {
		// 并发首次创建，读回已存在的那一个
		err = r.db.WithContext(ctx).First(&c, "user_id = ?", userID).Error
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Load 带商品快照；已下架商品的 Product 为 nil
func (r *CartRepo) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc, id asc") }).
		Preload("Items.Product").
		First(&c, "user_id = ?", userID).Error
	if notFound(err) {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepo) FindItem(ctx context.Context, cartID, productID string) (*domain.CartItem, error) {
	var it domain.CartItem
	err := r.db.WithContext(ctx).First(&it, "cart_id = ? AND product_id = ?", cartID, productID).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *CartRepo) SaveItem(ctx context.Context, it *domain.CartItem) error {
	if it.ID == "" {
		it.ID = utils.NewID()
		return r.db.WithContext(ctx).Omit("Product").Create(it).Error
	}
	return r.db.WithContext(ctx).Model(it).Update("quantity", it.Quantity).Error
}

func (r *CartRepo) DeleteItem(ctx context.Context, cartID, productID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&domain.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// ClearByUser 清空（结算后也走这里）
func (r *CartRepo) ClearByUser(ctx context.Context, userID string) error {
	sub := r.db.Model(&domain.Cart{}).Select("id").Where("user_id = ?", userID)
	return r.db.WithContext(ctx).Where("cart_id IN (?)", sub).Delete(&domain.CartItem{}).Error
}

// RemoveProducts 下单后移除已购买的行
func (r *CartRepo) RemoveProducts(ctx context.Context, userID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	sub := r.db.Model(&domain.Cart{}).Select("id").Where("user_id = ?", userID)
	return r.db.WithContext(ctx).
		Where("cart_id IN (?) AND product_id IN ?", sub, productIDs).
		Delete(&domain.CartItem{}).Error
}
