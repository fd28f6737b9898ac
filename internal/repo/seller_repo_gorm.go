package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"luxora/internal/domain"
)

type SellerRepo struct{ db *gorm.DB }

func NewSellerRepo(db *gorm.DB) *SellerRepo { return &SellerRepo{db: db} }

func (r *SellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SellerRepo) first(ctx context.Context, query string, arg any) (*domain.Seller, error) {
	var s domain.Seller
	err := r.db.WithContext(ctx).First(&s, query, arg).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SellerRepo) FindByID(ctx context.Context, id string) (*domain.Seller, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *SellerRepo) FindByEmail(ctx context.Context, email string) (*domain.Seller, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *SellerRepo) FindByMobile(ctx context.Context, mobile string) (*domain.Seller, error) {
	return r.first(ctx, "mobile = ?", strings.TrimSpace(mobile))
}

func (r *SellerRepo) ExistsEmailOrMobile(ctx context.Context, email, mobile string) (emailTaken, mobileTaken bool, err error) {
	var rows []domain.Seller
	err = r.db.WithContext(ctx).Unscoped().Select("email", "mobile").
		Where("email = ? OR mobile = ?", email, mobile).Find(&rows).Error
	for _, s := range rows {
		emailTaken = emailTaken || s.Email == email
		mobileTaken = mobileTaken || s.Mobile == mobile
	}
	return
}

// List approved 为 nil 时不过滤
func (r *SellerRepo) List(ctx context.Context, approved *bool, offset, limit int) ([]domain.Seller, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Seller{})
	if approved != nil {
		tx = tx.Where("is_approved = ?", *approved)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Seller
	if err := tx.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *SellerRepo) Update(ctx context.Context, s *domain.Seller) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// SetApproved 返回卖家是否存在。MySQL 的影响行数不算值未变的行，重复审批不能当成找不到
func (r *SellerRepo) SetApproved(ctx context.Context, id string, approved bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Seller{}).Where("id = ?", id).Update("is_approved", approved)
	if res.Error != nil || res.RowsAffected > 0 {
		return res.RowsAffected > 0, res.Error
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Seller{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *SellerRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Seller{}).Where("id = ?", id).UpdateColumn("last_login", at).Error
}
