package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"luxora/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) WithTx(tx *gorm.DB) *OrderRepo { return &OrderRepo{db: tx} }

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

// Create 连同明细一起写入
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepo) firstOrder(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	var o domain.Order
	err := withItems(r.db.WithContext(ctx)).Where(query, args...).First(&o).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.firstOrder(ctx, "id = ?", id)
}

// FindForUser 别人的订单视同不存在
func (r *OrderRepo) FindForUser(ctx context.Context, userID, id string) (*domain.Order, error) {
	return r.firstOrder(ctx, "id = ? AND user_id = ?", id, userID)
}

func (r *OrderRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	return r.firstOrder(ctx, "user_id = ? AND idempotency_key = ?", userID, key)
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Order, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID), offset, limit)
}

// ListForSeller 包含该卖家任一商品行的订单；since 用于前端轮询增量
func (r *OrderRepo) ListForSeller(ctx context.Context, sellerID string, since *time.Time, offset, limit int) ([]domain.Order, int64, error) {
	sub := r.db.Model(&domain.OrderItem{}).Select("order_id").Where("seller_id = ?", sellerID)
	q := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id IN (?)", sub)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	return r.list(ctx, q, offset, limit)
}

// ListAll 管理端；status 为空时不过滤
func (r *OrderRepo) ListAll(ctx context.Context, status domain.OrderStatus, offset, limit int) ([]domain.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.list(ctx, q, offset, limit)
}

func (r *OrderRepo) list(_ context.Context, q *gorm.DB, offset, limit int) ([]domain.Order, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Order
	if err := withItems(q).Order("created_at desc, id desc").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Transition 仅当当前状态仍为 from 时更新，防止并发覆盖
func (r *OrderRepo) Transition(ctx context.Context, id string, from domain.OrderStatus, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return res.RowsAffected == 1, res.Error
}

func (r *OrderRepo) SetPaymentStatus(ctx context.Context, id string, st domain.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Update("payment_status", st).Error
}

// NormalizeStatuses 把历史遗留的大小写混用状态统一成小写枚举
func (r *OrderRepo) NormalizeStatuses(ctx context.Context) (int64, error) {
	var rows []struct {
		ID     string
		Status string
	}
	canon := make([]string, 0, len(domain.AllOrderStatuses))
	for _, s := range domain.AllOrderStatuses {
		canon = append(canon, string(s))
	}
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Select("id", "status").
		Where("status NOT IN ?", canon).Scan(&rows).Error; err != nil {
		return 0, err
	}
	var fixed int64
	for _, row := range rows {
		st, ok := domain.ParseOrderStatus(row.Status)
		if !ok {
			st = domain.OrderPending
		}
		res := r.db.WithContext(ctx).Model(&domain.Order{}).
			Where("id = ? AND status = ?", row.ID, row.Status).
			Update("status", st)
		if res.Error != nil {
			return fixed, res.Error
		}
		fixed += res.RowsAffected
	}
	return fixed, nil
}

// PaymentIntentUsed 同一笔支付不能用于两个订单
func (r *OrderRepo) PaymentIntentUsed(ctx context.Context, intentID, exceptOrderID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("payment_intent_id = ? AND id <> ?", intentID, exceptOrderID).
		Count(&n).Error
	return n > 0, err
}
