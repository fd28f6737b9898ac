package service

import (
	"context"

	"go.uber.org/zap"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	"luxora/internal/repo"
)

type AdminUsersQuery struct {
	Offset      int    `form:"offset,default=0" binding:"min=0"`
	Limit       int    `form:"limit,default=20" binding:"min=0,max=100"`
	Q           string `form:"q"                binding:"max=100"` // 按 email/name/mobile 模糊搜
	WithDeleted bool   `form:"with_deleted"`
}

type AdminSellersQuery struct {
	Offset   int   `form:"offset,default=0" binding:"min=0"`
	Limit    int   `form:"limit,default=20" binding:"min=0,max=100"`
	Approved *bool `form:"approved"`
}

type ApproveInput struct {
	Approved *bool `json:"approved"` // 省略时为批准
}

type List[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

func limitOr(n int) int {
	if n <= 0 || n > 100 {
		return 20
	}
	return n
}

type AdminService struct {
	users   *repo.UserRepo
	sellers *repo.SellerRepo
	log     *zap.Logger
}

func NewAdminService(users *repo.UserRepo, sellers *repo.SellerRepo, l *zap.Logger) *AdminService {
	return &AdminService{users: users, sellers: sellers, log: l}
}

func (s *AdminService) ListUsers(ctx context.Context, q AdminUsersQuery) (List[domain.User], error) {
	items, total, err := s.users.List(ctx, q.Q, q.WithDeleted, q.Offset, limitOr(q.Limit))
	if err != nil {
		return List[domain.User]{}, dbErr(err)
	}
	if items == nil {
		items = []domain.User{}
	}
	return List[domain.User]{Total: total, Items: items}, nil
}

// BanUser 停用并软删除；不能封禁自己
func (s *AdminService) BanUser(ctx context.Context, adminID, id string) error {
	if id == adminID {
		return apperr.Validation("you cannot ban yourself")
	}
	ok, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return apperr.NotFound("user not found")
	}
	s.log.Info("user banned", zap.String("uid", id), zap.String("by", adminID))
	return nil
}

func (s *AdminService) ListSellers(ctx context.Context, q AdminSellersQuery) (List[domain.PublicSeller], error) {
	items, total, err := s.sellers.List(ctx, q.Approved, q.Offset, limitOr(q.Limit))
	if err != nil {
		return List[domain.PublicSeller]{}, dbErr(err)
	}
	out := make([]domain.PublicSeller, 0, len(items))
	for i := range items {
		out = append(out, items[i].PublicData())
	}
	return List[domain.PublicSeller]{Total: total, Items: out}, nil
}

func (s *AdminService) ApproveSeller(ctx context.Context, id string, in ApproveInput) (*domain.PublicSeller, error) {
	approved := in.Approved == nil || *in.Approved
	ok, err := s.sellers.SetApproved(ctx, id, approved)
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		return nil, apperr.NotFound("seller not found")
	}
	sl, err := s.sellers.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if sl == nil {
		return nil, apperr.NotFound("seller not found")
	}
	s.log.Info("seller approval changed", zap.String("sid", id), zap.Bool("approved", approved))
	pd := sl.PublicData()
	return &pd, nil
}
