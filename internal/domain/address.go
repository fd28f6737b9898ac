package domain

import "time"

// SavedAddress 用户保存的收货地址
type SavedAddress struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	UserID    string    `gorm:"size:32;not null;index" json:"userId"`
	Label     string    `gorm:"size:32" json:"label" binding:"omitempty,max=32"`
	FullName  string    `gorm:"size:64" json:"fullName" binding:"omitempty,max=64"`
	Mobile    string    `gorm:"size:10" json:"mobile" binding:"omitempty,mobile"`
	Address   `gorm:"embedded"`
	IsDefault bool      `gorm:"not null;default:false" json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SavedAddress) TableName() string { return "addresses" }
