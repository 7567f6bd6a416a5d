package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseRecord 支出记录，只支持新增与删除
type ExpenseRecord struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	Reason        string          `json:"reason" gorm:"size:120;not null"`
	Description   string          `json:"description" gorm:"size:255"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"size:20;not null"`
	Date          Day             `json:"date" gorm:"type:date;not null;index"`
	UserID        string          `json:"user_id" gorm:"size:36;index;not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (ExpenseRecord) TableName() string {
	return TableExpenseRecords
}

// BeforeCreate 生成主键
func (r *ExpenseRecord) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}
