package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Seller struct {
	ID           string `gorm:"primaryKey;size:32" json:"id"`
	Name         string `gorm:"size:64;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Mobile       string `gorm:"uniqueIndex;size:10;not null" json:"mobile"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`

	BusinessName    string  `gorm:"size:128;not null" json:"businessName"`
	BusinessType    string  `gorm:"size:32" json:"businessType"` // individual / partnership / company
	BusinessAddress Address `gorm:"embedded;embeddedPrefix:biz_" json:"businessAddress"`

	// 税务与结算信息，只允许出现在卖家自己的设置接口里
	GSTIN             string `gorm:"size:15" json:"gstin"`
	PAN               string `gorm:"size:10" json:"pan"`
	BankAccountNumber string `gorm:"size:32" json:"bankAccountNumber"`
	IFSC              string `gorm:"size:11" json:"ifsc"`
	AccountHolderName string `gorm:"size:64" json:"accountHolderName"`

	IsApproved bool           `gorm:"not null;default:false" json:"isApproved"`
	IsActive   bool           `gorm:"not null;default:true" json:"isActive"`
	LastLogin  *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Seller) TableName() string { return "sellers" }

// PublicSeller 对外的卖家视图（不含税号、银行信息）
type PublicSeller struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Mobile          string    `json:"mobile"`
	BusinessName    string    `json:"businessName"`
	BusinessType    string    `json:"businessType"`
	BusinessAddress Address   `json:"businessAddress"`
	IsApproved      bool      `json:"isApproved"`
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s *Seller) PublicData() PublicSeller {
	return PublicSeller{
		ID:              s.ID,
		Name:            s.Name,
		Email:           s.Email,
		Mobile:          s.Mobile,
		BusinessName:    s.BusinessName,
		BusinessType:    s.BusinessType,
		BusinessAddress: s.BusinessAddress,
		IsApproved:      s.IsApproved,
		Role:            "seller",
		CreatedAt:       s.CreatedAt,
	}
}

// SellerSettings 卖家本人查看的设置页；银行账号只露后四位
type SellerSettings struct {
	PublicSeller
	GSTIN             string `json:"gstin"`
	PAN               string `json:"pan"`
	BankAccountMasked string `json:"bankAccount"`
	IFSC              string `json:"ifsc"`
	AccountHolderName string `json:"accountHolderName"`
}

func (s *Seller) Settings() SellerSettings {
	masked := ""
	if n := len(s.BankAccountNumber); n > 4 {
		masked = strings.Repeat("*", n-4) + s.BankAccountNumber[n-4:]
	} else if n > 0 {
		masked = strings.Repeat("*", n)
	}
	return SellerSettings{
		PublicSeller:      s.PublicData(),
		GSTIN:             s.GSTIN,
		PAN:               s.PAN,
		BankAccountMasked: masked,
		IFSC:              s.IFSC,
		AccountHolderName: s.AccountHolderName,
	}
}
