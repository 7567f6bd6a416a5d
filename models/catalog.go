package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service 服务目录项
// UserID 为空表示全局目录项，所有人可见；否则仅创建者可见
type Service struct {
	ID           string           `json:"id" gorm:"primaryKey;size:36"`
	Name         string           `json:"name" gorm:"size:120;not null"`
	Category     string           `json:"category" gorm:"size:60;not null;index"`
	DefaultPrice *decimal.Decimal `json:"default_price" gorm:"type:decimal(10,2)"`
	UserID       *string          `json:"user_id" gorm:"size:36;index"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// TableName 设置表名
func (Service) TableName() string {
	return TableServices
}

// BeforeCreate 生成主键
func (s *Service) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// IsGlobal 是否为全局目录项
func (s *Service) IsGlobal() bool {
	return s.UserID == nil
}

// Manicurist 美甲师
type Manicurist struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:80;not null;uniqueIndex"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	UserID    string    `json:"user_id" gorm:"size:36;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (Manicurist) TableName() string {
	return TableManicurists
}

// BeforeCreate 生成主键
func (m *Manicurist) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}

// DefaultServiceCatalog 初始全局服务目录（仅在表为空时写入）
func DefaultServiceCatalog() []Service {
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	return []Service{
		{Name: "Manicura básica", Category: "Manicura", DefaultPrice: price("15.00")},
		{Name: "Manicura semipermanente", Category: "Manicura", DefaultPrice: price("25.00")},
		{Name: "Pedicura básica", Category: "Pedicura", DefaultPrice: price("20.00")},
		{Name: "Pedicura semipermanente", Category: "Pedicura", DefaultPrice: price("30.00")},
		{Name: "Uñas acrílicas", Category: "Extensiones", DefaultPrice: price("40.00")},
		{Name: "Relleno acrílico", Category: "Extensiones", DefaultPrice: price("30.00")},
		{Name: "Retirada", Category: "Otros", DefaultPrice: price("8.00")},
		{Name: "Decoración", Category: "Otros"},
	}
}
