package service

import (
	"context"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	"luxora/internal/repo"
)

type WishlistInput struct {
	ProductID string `json:"productId" binding:"required,max=32"`
}

type WishlistView struct {
	Items []domain.Product `json:"items"`
	Count int              `json:"count"`
}

type ToggleResult struct {
	ProductID string `json:"productId"`
	Added     bool   `json:"added"`
}

// WishlistService 存储可以是 SQL 或 Mongo
type WishlistService struct {
	store    domain.WishlistRepository
	products *repo.ProductRepo
}

func NewWishlistService(store domain.WishlistRepository, products *repo.ProductRepo) *WishlistService {
	return &WishlistService{store: store, products: products}
}

// List 按加入顺序返回仍在售的商品
func (s *WishlistService) List(ctx context.Context, uid string) (*WishlistView, error) {
	ids, err := s.store.ProductIDs(ctx, uid)
	if err != nil {
		return nil, apperr.Internal("load wishlist failed", err)
	}
	byID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dbErr(err)
	}
	v := &WishlistView{Items: make([]domain.Product, 0, len(ids))}
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			v.Items = append(v.Items, *p)
		}
	}
	v.Count = len(v.Items)
	return v, nil
}

// Toggle 不存在则加入，存在则移除
func (s *WishlistService) Toggle(ctx context.Context, uid string, in WishlistInput) (*ToggleResult, error) {
	p, err := s.products.FindByID(ctx, in.ProductID, false)
	if err != nil {
		return nil, dbErr(err)
	}
	if p == nil {
		// 已下架的商品走 Remove
		return nil, apperr.NotFound("product not found")
	}
	added, err := s.store.Toggle(ctx, uid, p.ID)
	if err != nil {
		return nil, apperr.Internal("update wishlist failed", err)
	}
	return &ToggleResult{ProductID: p.ID, Added: added}, nil
}

// Remove 幂等
func (s *WishlistService) Remove(ctx context.Context, uid, productID string) error {
	if err := s.store.Remove(ctx, uid, productID); err != nil {
		return apperr.Internal("update wishlist failed", err)
	}
	return nil
}
