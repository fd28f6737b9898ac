package service

import (
	"context"
	"io"
	"strings"

	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"luxora/internal/core/apperr"
	"luxora/internal/domain"
	"luxora/internal/repo"
)

type UpdateSellerInput struct {
	Name              *string         `json:"name"              binding:"omitempty,min=2,max=64"`
	BusinessName      *string         `json:"businessName"      binding:"omitempty,min=2,max=128"`
	BusinessType      *string         `json:"businessType"      binding:"omitempty,oneof=individual partnership company"`
	BusinessAddress   *domain.Address `json:"businessAddress"`
	GSTIN             *string         `json:"gstin"             binding:"omitempty,gstin"`
	PAN               *string         `json:"pan"               binding:"omitempty,pan"`
	BankAccountNumber *string         `json:"bankAccountNumber" binding:"omitempty,numeric,min=9,max=18"`
	IFSC              *string         `json:"ifsc"              binding:"omitempty,ifsc"`
	AccountHolderName *string         `json:"accountHolderName" binding:"omitempty,max=64"`
}

type SellerService struct {
	sellers  *repo.SellerRepo
	products *repo.ProductRepo
	log      *zap.Logger
}

func NewSellerService(sellers *repo.SellerRepo, products *repo.ProductRepo, l *zap.Logger) *SellerService {
	return &SellerService{sellers: sellers, products: products, log: l}
}

func (s *SellerService) Settings(ctx context.Context, sellerID string) (*domain.SellerSettings, error) {
	sl, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, dbErr(err)
	}
	if sl == nil {
		return nil, apperr.NotFound("seller not found")
	}
	st := sl.Settings()
	return &st, nil
}

func setTrim(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setUpper(dst *string, v *string) {
	if v != nil {
		*dst = strings.ToUpper(strings.TrimSpace(*v))
	}
}

func (s *SellerService) UpdateSettings(ctx context.Context, sellerID string, in UpdateSellerInput) (*domain.SellerSettings, error) {
	sl, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, dbErr(err)
	}
	if sl == nil {
		return nil, apperr.NotFound("seller not found")
	}
	setTrim(&sl.Name, in.Name)
	setTrim(&sl.BusinessName, in.BusinessName)
	setTrim(&sl.BusinessType, in.BusinessType)
	setTrim(&sl.BankAccountNumber, in.BankAccountNumber)
	setTrim(&sl.AccountHolderName, in.AccountHolderName)
	setUpper(&sl.GSTIN, in.GSTIN)
	setUpper(&sl.PAN, in.PAN)
	setUpper(&sl.IFSC, in.IFSC)
	if in.BusinessAddress != nil {
		sl.BusinessAddress = *in.BusinessAddress
	}
	if err := s.sellers.Update(ctx, sl); err != nil {
		return nil, dbErr(err)
	}
	st := sl.Settings()
	return &st, nil
}

var exportHeader = []string{
	"ID", "Name", "Category", "Brand", "Price", "OriginalPrice", "Discount%",
	"Stock", "Rating", "Reviews", "Images", "CreatedAt", "UpdatedAt",
}

// ExportCatalog 卖家全部商品导出为 xlsx
func (s *SellerService) ExportCatalog(ctx context.Context, sellerID string, w io.Writer) error {
	items, err := s.products.ListBySeller(ctx, sellerID)
	if err != nil {
		return dbErr(err)
	}
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return apperr.Internal("create sheet failed", err)
	}
	head := sheet.AddRow()
	for _, h := range exportHeader {
		head.AddCell().SetValue(h)
	}
	for _, p := range items {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetValue(p.Brand)
		row.AddCell().SetFloat(p.Price.InexactFloat64())
		row.AddCell().SetFloat(p.OriginalPrice.InexactFloat64())
		row.AddCell().SetInt(p.Discount)
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetFloat(p.Rating)
		row.AddCell().SetInt(p.NumReviews)
		row.AddCell().SetValue(strings.Join(p.Images, ","))
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if err := file.Write(w); err != nil {
		return apperr.Internal("write xlsx failed", err)
	}
	s.log.Info("catalog exported", zap.String("sid", sellerID), zap.Int("rows", len(items)))
	return nil
}
