package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IncomeSchemaVersion 当前收入记录结构版本
// v1: manicurist 为自由文本；v2: 通过 manicurist_id 关联 manicurists 表
const IncomeSchemaVersion = 2

// IncomeRecord 收入记录（一次服务一行）
type IncomeRecord struct {
	ID             string          `json:"id" gorm:"primaryKey;size:36"`
	ClientName     string          `json:"client_name" gorm:"size:120;not null;index"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	ManicuristID   *string         `json:"manicurist_id" gorm:"size:36;index"`
	ManicuristName string          `json:"manicurist_name" gorm:"size:80;index"` // 写入时冗余的展示名
	LegacyName     string          `json:"-" gorm:"column:manicurist;size:80"`   // v1 自由文本，迁移后保留原值
	PaymentMethod  PaymentMethod   `json:"payment_method" gorm:"size:20;not null"`
	ServiceID      *string         `json:"service_id" gorm:"size:36;index"`
	BatchID        string          `json:"batch_id,omitempty" gorm:"size:36;index"`
	Date           Day             `json:"date" gorm:"type:date;not null;index"`
	UserID         string          `json:"user_id" gorm:"size:36;index;not null"`
	SchemaVersion  int             `json:"-" gorm:"not null;default:1"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (IncomeRecord) TableName() string {
	return TableIncomeRecords
}

// BeforeCreate 生成主键并标记结构版本
func (r *IncomeRecord) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	if r.SchemaVersion == 0 {
		r.SchemaVersion = IncomeSchemaVersion
	}
	return nil
}

// IsExtras 是否为"附加费用"行（不关联服务）
func (r *IncomeRecord) IsExtras() bool {
	return r.ServiceID == nil
}

// IncomePatch 收入记录可修改字段（编辑弹窗）
type IncomePatch struct {
	ClientName    *string
	Price         *decimal.Decimal
	PaymentMethod *PaymentMethod
	Date          *Day
}

// Empty 是否没有任何修改
func (p IncomePatch) Empty() bool {
	return p.ClientName == nil && p.Price == nil && p.PaymentMethod == nil && p.Date == nil
}

// Columns 转为 gorm Updates 使用的列映射
func (p IncomePatch) Columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.ClientName != nil {
		updates["client_name"] = *p.ClientName
	}
	if p.Price != nil {
		updates["price"] = *p.Price
	}
	if p.PaymentMethod != nil {
		updates["payment_method"] = *p.PaymentMethod
	}
	if p.Date != nil {
		updates["date"] = *p.Date
	}
	return updates
}
