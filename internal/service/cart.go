package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	"luxora/internal/repo"
)

type AddToCartInput struct {
	ProductID string `json:"productId" binding:"required,max=32"`
	Quantity  int    `json:"quantity"  binding:"omitempty,min=1,max=100"`
}

type CartLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   *domain.Product `json:"product"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Available bool            `json:"available"`
}

// CartView 每次变更后都返回完整购物车
type CartView struct {
	Items    []CartLine      `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func newCartView(c *domain.Cart) *CartView {
	v := &CartView{Items: make([]CartLine, 0, len(c.Items)), Subtotal: c.Subtotal()}
	for _, it := range c.Items {
		line := CartLine{ProductID: it.ProductID, Quantity: it.Quantity, Product: it.Product, LineTotal: decimal.Zero}
		if it.Product != nil {
			line.LineTotal = it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			line.Available = it.Product.Stock >= it.Quantity
		}
		v.Count += it.Quantity
		v.Items = append(v.Items, line)
	}
	return v
}

type CartService struct {
	carts    *repo.CartRepo
	products *repo.ProductRepo
}

func NewCartService(carts *repo.CartRepo, products *repo.ProductRepo) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) Get(ctx context.Context, uid string) (*CartView, error) {
	c, err := s.carts.Load(ctx, uid)
	if err != nil {
		return nil, dbErr(err)
	}
	return newCartView(c), nil
}

func stockErr(p *domain.Product, want int) error {
	return apperr.Validation(fmt.Sprintf("only %d left in stock for %s, requested %d", p.Stock, p.Name, want))
}

// Add 已有的行合并数量，总量不能超过库存
func (s *CartService) Add(ctx context.Context, uid string, in AddToCartInput) (*CartView, error) {
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	p, err := s.products.FindByID(ctx, in.ProductID, false)
	if err != nil {
		return nil, dbErr(err)
	}
	if p == nil {
		return nil, apperr.NotFound("product not found")
	}
	c, err := s.carts.Ensure(ctx, uid)
	if err != nil {
		return nil, dbErr(err)
	}
	it, err := s.carts.FindItem(ctx, c.ID, p.ID)
	if err != nil {
		return nil, dbErr(err)
	}
	if it == nil {
		it = &domain.CartItem{CartID: c.ID, ProductID: p.ID}
	}
	if it.Quantity+qty > p.Stock {
		return nil, stockErr(p, it.Quantity+qty)
	}
	it.Quantity += qty
	if err := s.carts.SaveItem(ctx, it); err != nil {
		if repo.IsDupKey(err) {
			return nil, apperr.Conflict("cart was updated concurrently, please retry")
		}
		return nil, dbErr(err)
	}
	return s.Get(ctx, uid)
}

func (s *CartService) item(ctx context.Context, uid, productID string) (*domain.CartItem, error) {
	c, err := s.carts.Ensure(ctx, uid)
	if err != nil {
		return nil, dbErr(err)
	}
	it, err := s.carts.FindItem(ctx, c.ID, productID)
	if err != nil {
		return nil, dbErr(err)
	}
	if it == nil {
		return nil, apperr.NotFound("item not in cart")
	}
	return it, nil
}

func (s *CartService) Increase(ctx context.Context, uid, productID string) (*CartView, error) {
	it, err := s.item(ctx, uid, productID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, productID, false)
	if err != nil {
		return nil, dbErr(err)
	}
	if p == nil {
		return nil, apperr.NotFound("product not found")
	}
	if it.Quantity+1 > p.Stock {
		return nil, stockErr(p, it.Quantity+1)
	}
	it.Quantity++
	if err := s.carts.SaveItem(ctx, it); err != nil {
		return nil, dbErr(err)
	}
	return s.Get(ctx, uid)
}

// Decrease 数量下限为 1，再减则移除该行
func (s *CartService) Decrease(ctx context.Context, uid, productID string) (*CartView, error) {
	it, err := s.item(ctx, uid, productID)
	if err != nil {
		return nil, err
	}
	if it.Quantity <= 1 {
		if _, err := s.carts.DeleteItem(ctx, it.CartID, productID); err != nil {
			return nil, dbErr(err)
		}
		return s.Get(ctx, uid)
	}
	it.Quantity--
	if err := s.carts.SaveItem(ctx, it); err != nil {
		return nil, dbErr(err)
	}
	return s.Get(ctx, uid)
}

func (s *CartService) Remove(ctx context.Context, uid, productID string) (*CartView, error) {
	c, err := s.carts.Ensure(ctx, uid)
	if err != nil {
		return nil, dbErr(err)
	}
	ok, err := s.carts.DeleteItem(ctx, c.ID, productID)
	if err != nil {
		return nil, dbErr(err)
	}
	if !ok {
		return nil, apperr.NotFound("item not in cart")
	}
	return s.Get(ctx, uid)
}

func (s *CartService) Clear(ctx context.Context, uid string) (*CartView, error) {
	if err := s.carts.ClearByUser(ctx, uid); err != nil {
		return nil, dbErr(err)
	}
	return s.Get(ctx, uid)
}
