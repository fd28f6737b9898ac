package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Address 用户资料与订单里内嵌的地址
type Address struct {
	Line1   string `gorm:"size:255" json:"line1"   binding:"omitempty,max=255"`
	Line2   string `gorm:"size:255" json:"line2"   binding:"omitempty,max=255"`
	City    string `gorm:"size:64"  json:"city"    binding:"omitempty,max=64"`
	State   string `gorm:"size:64"  json:"state"   binding:"omitempty,max=64"`
	Pincode string `gorm:"size:6"   json:"pincode" binding:"omitempty,pincode"`
	Country string `gorm:"size:64"  json:"country" binding:"omitempty,max=64"`
}

func (a Address) Empty() bool { return a.Line1 == "" && a.City == "" && a.Pincode == "" }

type User struct {
	ID             string         `gorm:"primaryKey;size:32" json:"id"`
	Name           string         `gorm:"size:64;not null" json:"name"`
	Email          string         `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Mobile         string         `gorm:"uniqueIndex;size:10;not null" json:"mobile"`
	PasswordHash   string         `gorm:"size:100;not null" json:"-"`
	Role           string         `gorm:"size:16;not null;default:user" json:"role"` // user / seller / admin
	Address        Address        `gorm:"embedded;embeddedPrefix:addr_" json:"address"`
	IsActive       bool           `gorm:"not null;default:true" json:"isActive"`
	IsVerified     bool           `gorm:"not null;default:false" json:"isVerified"`
	ResetTokenHash string         `gorm:"size:64;index" json:"-"`
	ResetExpiresAt *time.Time     `json:"-"`
	LastLogin      *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByMobile(ctx context.Context, mobile string) (*User, error)
	FindByResetToken(ctx context.Context, hash string) (*User, error)
	List(ctx context.Context, q string, withDeleted bool, offset, limit int) ([]User, int64, error)
	Update(ctx context.Context, u *User) error
	SoftDelete(ctx context.Context, id string) (bool, error)
}
