package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"luxora/internal/core/apperr"
	"luxora/internal/core/cache"
	"luxora/internal/core/storage"
	"luxora/internal/domain"
	"luxora/internal/repo"
	"luxora/pkg/utils"
)

const (
	maxImages     = 10
	maxImageBytes = 5 << 20
)

// ProductCache 商品详情缓存；c 为 nil 时每次回源
type ProductCache struct {
	c   *cache.Cache
	ttl time.Duration
	log *zap.Logger
}

func NewProductCache(c *cache.Cache, ttl time.Duration, l *zap.Logger) *ProductCache {
	return &ProductCache{c: c, ttl: ttl, log: l}
}

func productKey(id string) string { return "product:" + id }

// Invalidate 写操作、下单、取消后调用
func (pc *ProductCache) Invalidate(ctx context.Context, ids ...string) {
	if pc == nil || pc.c == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := pc.c.Delete(ctx, keys...); err != nil {
		pc.log.Warn("invalidate product cache failed", zap.Strings("ids", ids), zap.Error(err))
	}
}

type ListProductsQuery struct {
	Category  string `form:"category"  binding:"omitempty,max=64"`
	Brand     string `form:"brand"     binding:"omitempty,max=64"`
	Seller    string `form:"seller"    binding:"omitempty,max=32"`
	Q         string `form:"q"         binding:"omitempty,max=100"`
	MinPrice  string `form:"minPrice"  binding:"omitempty,numeric"`
	MaxPrice  string `form:"maxPrice"  binding:"omitempty,numeric"`
	MinRating string `form:"minRating" binding:"omitempty,numeric"`
	Sort      string `form:"sort"      binding:"omitempty,oneof=newest price_asc price_desc rating"`
	PageQuery
}

type ProductInput struct {
	Name          string           `json:"name"          binding:"required,min=2,max=200"`
	Description   string           `json:"description"   binding:"max=5000"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Category      string           `json:"category"      binding:"required,max=64"`
	Brand         string           `json:"brand"         binding:"max=64"`
	Images        []string         `json:"images"        binding:"omitempty,max=10,dive,url"`
	Stock         *int             `json:"stock"         binding:"required,gte=0"`
}

// UpdateProductInput 只修改传入的字段
type UpdateProductInput struct {
	Name          *string          `json:"name"          binding:"omitempty,min=2,max=200"`
	Description   *string          `json:"description"   binding:"omitempty,max=5000"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Category      *string          `json:"category"      binding:"omitempty,max=64"`
	Brand         *string          `json:"brand"         binding:"omitempty,max=64"`
	Images        *[]string        `json:"images"        binding:"omitempty,max=10,dive,url"`
	Stock         *int             `json:"stock"         binding:"omitempty,gte=0"`
}

type ReviewInput struct {
	Rating  int    `json:"rating"  binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ReviewResult struct {
	Review     *domain.Review `json:"review"`
	Rating     float64        `json:"rating"`
	NumReviews int            `json:"numReviews"`
}

type ProductService struct {
	tx       *repo.Tx
	products *repo.ProductRepo
	cache    *ProductCache
	store    storage.ObjectStore
	log      *zap.Logger
}

func NewProductService(tx *repo.Tx, products *repo.ProductRepo, pc *ProductCache, store storage.ObjectStore, l *zap.Logger) *ProductService {
	return &ProductService{tx: tx, products: products, cache: pc, store: store, log: l}
}

func (s *ProductService) List(ctx context.Context, q ListProductsQuery) (Page[domain.Product], error) {
	off, lim, page := q.norm()
	f := domain.ProductFilter{
		Category: strings.TrimSpace(q.Category),
		Brand:    strings.TrimSpace(q.Brand),
		SellerID: q.Seller,
		Q:        strings.TrimSpace(q.Q),
		Sort:     q.Sort,
		Offset:   off,
		Limit:    lim,
	}
	var err error
	if f.MinPrice, err = optDecimal(q.MinPrice, "minPrice"); err != nil {
		return Page[domain.Product]{}, err
	}
	if f.MaxPrice, err = optDecimal(q.MaxPrice, "maxPrice"); err != nil {
		return Page[domain.Product]{}, err
	}
	if q.MinRating != "" {
		r, err := strconv.ParseFloat(q.MinRating, 64)
		if err != nil || r < 0 || r > domain.MaxRating {
			return Page[domain.Product]{}, apperr.Validation("minRating must be between 0 and 5")
		}
		f.MinRating = &r
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return Page[domain.Product]{}, apperr.Validation("minPrice must not exceed maxPrice")
	}
	items, total, err := s.products.List(ctx, f)
	if err != nil {
		return Page[domain.Product]{}, dbErr(err)
	}
	return newPage(items, total, page, lim), nil
}

func optDecimal(v, field string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return nil, apperr.Validation(field + " must be a non-negative number")
	}
	return &d, nil
}

// Get 详情含评价，经 redis 缓存
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	var c *cache.Cache
	var ttl time.Duration
	if s.cache != nil {
		c, ttl = s.cache.c, s.cache.ttl
	}
	return cache.GetOrLoadJSON(c, ctx, productKey(id), ttl, func(ctx context.Context) (*domain.Product, error) {
		p, err := s.products.FindByID(ctx, id, true)
		if err != nil {
			return nil, dbErr(err)
		}
		if p == nil {
			return nil, apperr.NotFound("product not found")
		}
		return p, nil
	})
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerID string) ([]domain.Product, error) {
	items, err := s.products.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, dbErr(err)
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, nil
}

func requireApproved(sl *domain.Seller) error {
	if sl == nil {
		return apperr.Forbidden("seller account required")
	}
	if !sl.IsApproved {
		return apperr.Forbidden("seller account is pending approval")
	}
	return nil
}

func checkPricing(p *domain.Product) error {
	if !p.Price.IsPositive() {
		return apperr.Validation("price must be greater than 0")
	}
	if !p.OriginalPrice.IsZero() && p.OriginalPrice.LessThan(p.Price) {
		return apperr.Validation("originalPrice must not be lower than price")
	}
	if p.Stock < 0 {
		return apperr.Validation("stock must not be negative")
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, sl *domain.Seller, in ProductInput) (*domain.Product, error) {
	if err := requireApproved(sl); err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:          utils.NewID(),
		SellerID:    sl.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    strings.TrimSpace(in.Category),
		Brand:       strings.TrimSpace(in.Brand),
		Images:      domain.StringList(in.Images),
		Stock:       *in.Stock,
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = in.OriginalPrice.Round(2)
	}
	if err := checkPricing(p); err != nil {
		return nil, err
	}
	p.ComputeDiscount()
	if err := s.products.Create(ctx, p); err != nil {
		return nil, dbErr(err)
	}
	s.log.Info("product created", zap.String("sid", sl.ID), zap.String("pid", p.ID))
	return p, nil
}

// owned 其他卖家的商品按不存在处理
func (s *ProductService) owned(ctx context.Context, sl *domain.Seller, id string) (*domain.Product, error) {
	if err := requireApproved(sl); err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id, false)
	if err != nil {
		return nil, dbErr(err)
	}
	if p == nil || p.SellerID != sl.ID {
		return nil, apperr.NotFound("product not found")
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, sl *domain.Seller, id string, in UpdateProductInput) (*domain.Product, error) {
	p, err := s.owned(ctx, sl, id)
	if err != nil {
		return nil, err
	}
	var cols []string
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		cols = append(cols, "name")
	}
	if in.Description != nil {
		p.Description = *in.Description
		cols = append(cols, "description")
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
		cols = append(cols, "price")
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = in.OriginalPrice.Round(2)
		cols = append(cols, "original_price")
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
		cols = append(cols, "category")
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
		cols = append(cols, "brand")
	}
	if in.Images != nil {
		p.Images = domain.StringList(*in.Images)
		cols = append(cols, "images")
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
		cols = append(cols, "stock")
	}
	if err := checkPricing(p); err != nil {
		return nil, err
	}
	p.ComputeDiscount()
	cols = append(cols, "discount")
	if err := s.products.Update(ctx, p, cols...); err != nil {
		return nil, dbErr(err)
	}
	s.cache.Invalidate(ctx, p.ID)
	return s.reload(ctx, p)
}

// reload 返回库中最新值（库存可能已被并发下单扣减）
func (s *ProductService) reload(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	fresh, err := s.products.FindByID(ctx, p.ID, false)
	if err != nil {
		return nil, dbErr(err)
	}
	if fresh == nil {
		return p, nil
	}
	return fresh, nil
}

func (s *ProductService) Delete(ctx context.Context, sl *domain.Seller, id string) error {
	if _, err := s.owned(ctx, sl, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return dbErr(err)
	}
	s.cache.Invalidate(ctx, id)
	s.log.Info("product deleted", zap.String("sid", sl.ID), zap.String("pid", id))
	return nil
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadImages 上传到对象存储并追加到商品图片列表
func (s *ProductService) UploadImages(ctx context.Context, sl *domain.Seller, id string, files []*multipart.FileHeader) (*domain.Product, error) {
	if s.store == nil {
		return nil, apperr.Validation("image upload is not configured")
	}
	p, err := s.owned(ctx, sl, id)
	if err != nil {
		return nil, err
	}
	if len(p.Images)+len(files) > maxImages {
		return nil, apperr.Validation(fmt.Sprintf("a product can have at most %d images", maxImages))
	}
	for _, fh := range files {
		ct := fh.Header.Get("Content-Type")
		ext, ok := imageExt[ct]
		if !ok {
			return nil, apperr.Validation("unsupported image type " + filepath.Base(fh.Filename))
		}
		if fh.Size > maxImageBytes {
			return nil, apperr.Validation("image too large: " + filepath.Base(fh.Filename))
		}
		f, err := fh.Open()
		if err != nil {
			return nil, apperr.Validation("cannot read " + filepath.Base(fh.Filename))
		}
		u, err := s.store.Put(ctx, "products/"+p.ID+"/"+utils.NewID()+ext, f, ct)
		_ = f.Close()
		if err != nil {
			return nil, apperr.Internal("upload image failed", err)
		}
		p.Images = append(p.Images, u)
	}
	if err := s.products.Update(ctx, p, "images"); err != nil {
		return nil, dbErr(err)
	}
	s.cache.Invalidate(ctx, p.ID)
	return s.reload(ctx, p)
}

// AddReview 每个用户每个商品一条，评分与条数在同一事务内重算
func (s *ProductService) AddReview(ctx context.Context, u *domain.User, productID string, in ReviewInput) (*ReviewResult, error) {
	rv := &domain.Review{
		ID:        utils.NewID(),
		ProductID: productID,
		UserID:    u.ID,
		Name:      u.Name,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	var out *domain.Product
	err := s.tx.Do(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		p, err := products.FindByID(ctx, productID, false)
		if err != nil {
			return dbErr(err)
		}
		if p == nil {
			return apperr.NotFound("product not found")
		}
		prev, err := products.FindReview(ctx, productID, u.ID)
		if err != nil {
			return dbErr(err)
		}
		if prev != nil {
			return apperr.Conflict("you have already reviewed this product")
		}
		if err := products.CreateReview(ctx, rv); err != nil {
			if repo.IsDupKey(err) {
				return apperr.Conflict("you have already reviewed this product")
			}
			return dbErr(err)
		}
		if err := products.RecomputeRating(ctx, productID); err != nil {
			return dbErr(err)
		}
		out, err = products.FindByID(ctx, productID, false)
		if err != nil {
			return dbErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productID)
	return &ReviewResult{Review: rv, Rating: out.Rating, NumReviews: out.NumReviews}, nil
}
