// Package testutil 测试用的内存库与种子数据。
package testutil

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"luxora/internal/core/database"
	"luxora/internal/domain"
	"luxora/internal/repo"
	"luxora/pkg/utils"
)

// NewDB 每个测试一个独立的内存 SQLite；单连接保证事务串行
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:" + utils.NewID() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func SeedUser(t testing.TB, db *gorm.DB, email, mobile, password string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           utils.NewID(),
		Name:         "Test User",
		Email:        email,
		Mobile:       mobile,
		PasswordHash: utils.HashPassword(password),
		Role:         "user",
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func SeedSeller(t testing.TB, db *gorm.DB, email, mobile string, approved bool) *domain.Seller {
	t.Helper()
	s := &domain.Seller{
		ID:           utils.NewID(),
		Name:         "Test Seller",
		Email:        email,
		Mobile:       mobile,
		PasswordHash: utils.HashPassword("Seller123"),
		BusinessName: "Test Traders",
		IsApproved:   approved,
		IsActive:     true,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func SeedProduct(t testing.TB, db *gorm.DB, sellerID, name string, price int64, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:       utils.NewID(),
		SellerID: sellerID,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Category: "general",
		Brand:    "acme",
		Images:   domain.StringList{},
		Stock:    stock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func StockOf(t testing.TB, db *gorm.DB, productID string) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.Unscoped().First(&p, "id = ?", productID).Error)
	return p.Stock
}
