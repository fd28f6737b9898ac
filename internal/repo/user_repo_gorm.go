package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"luxora/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) WithTx(tx *gorm.DB) *UserRepo { return &UserRepo{db: tx} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, query, arg).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) FindByMobile(ctx context.Context, mobile string) (*domain.User, error) {
	return r.first(ctx, "mobile = ?", strings.TrimSpace(mobile))
}

func (r *UserRepo) FindByResetToken(ctx context.Context, hash string) (*domain.User, error) {
	if hash == "" {
		return nil, nil
	}
	return r.first(ctx, "reset_token_hash = ?", hash)
}

// ExistsEmailOrMobile 注册前检查，包括已注销账号
func (r *UserRepo) ExistsEmailOrMobile(ctx context.Context, email, mobile string) (emailTaken, mobileTaken bool, err error) {
	var rows []domain.User
	err = r.db.WithContext(ctx).Unscoped().Select("email", "mobile").
		Where("email = ? OR mobile = ?", email, mobile).Find(&rows).Error
	for _, u := range rows {
		emailTaken = emailTaken || u.Email == email
		mobileTaken = mobileTaken || u.Mobile == mobile
	}
	return
}

func (r *UserRepo) List(ctx context.Context, q string, withDeleted bool, offset, limit int) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if withDeleted {
		tx = tx.Unscoped()
	}
	if s := strings.TrimSpace(q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR mobile LIKE ?", like, like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// SoftDelete 同时置为停用
func (r *UserRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.User{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		affected = res.RowsAffected
		return res.Error
	})
	return affected > 0, err
}

func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).UpdateColumn("last_login", at).Error
}
