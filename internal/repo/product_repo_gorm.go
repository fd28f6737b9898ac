package repo

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"

	"luxora/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) WithTx(tx *gorm.DB) *ProductRepo { return &ProductRepo{db: tx} }

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepo) FindByID(ctx context.Context, id string, withReviews bool) (*domain.Product, error) {
	q := r.db.WithContext(ctx)
	if withReviews {
		q = q.Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") })
	}
	var p domain.Product
	err := q.First(&p, "id = ?", id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var productSorts = map[string]string{
	"newest":     "created_at desc, id desc",
	"price_asc":  "price asc, id asc",
	"price_desc": "price desc, id asc",
	"rating":     "rating desc, num_reviews desc, id asc",
}

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{})
	if f.Category != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(f.Category))
	}
	if f.Brand != "" {
		q = q.Where("LOWER(brand) = ?", strings.ToLower(f.Brand))
	}
	if f.SellerID != "" {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if s := strings.TrimSpace(f.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ?", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order, ok := productSorts[f.Sort]
	if !ok {
		order = productSorts["newest"]
	}
	var items []domain.Product
	if err := q.Order(order).Offset(f.Offset).Limit(f.Limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListBySeller 卖家自己的全部商品（导出用）
func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID string) ([]domain.Product, error) {
	var items []domain.Product
	err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at desc").Find(&items).Error
	return items, err
}

func (r *ProductRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []domain.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

// Update 只写 cols 指定的列；库存只走条件扣减/回补，不随整行覆盖
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product, cols ...string) error {
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(p).Select(cols).Updates(p).Error
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{}).Error
}

// DecrementStock 条件扣减：库存不足时不修改任何行，返回 false
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected == 1, res.Error
}

// IncrementStock 取消订单回补；商品已下架时也要回补
func (r *ProductRepo) IncrementStock(ctx context.Context, id string, qty int) error {
	return r.db.WithContext(ctx).Unscoped().Model(&domain.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *ProductRepo) FindReview(ctx context.Context, productID, userID string) (*domain.Review, error) {
	var rv domain.Review
	err := r.db.WithContext(ctx).First(&rv, "product_id = ? AND user_id = ?", productID, userID).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *ProductRepo) CreateReview(ctx context.Context, rv *domain.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

// RecomputeRating 按评论重新计算均分（保留一位小数）与评论数
func (r *ProductRepo) RecomputeRating(ctx context.Context, productID string) error {
	var agg struct {
		Avg float64
		N   int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS n").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", productID).
		Updates(map[string]any{
			"rating":      math.Round(agg.Avg*10) / 10,
			"num_reviews": agg.N,
		}).Error
}
