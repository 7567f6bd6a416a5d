// Package store 记录的数据访问层
//
// 每个 Store 持有 *gorm.DB，写入成功后向 Notifier 发布变更通知。
// 所有方法接收请求的 context，客户端断开时进行中的查询随之取消。
package store

import (
	"errors"
	"strings"

	"palmera/metrics"
	"palmera/models"
	"palmera/realtime"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在或不属于当前用户
	ErrNotFound = errors.New("registro no encontrado")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("registro duplicado")
)

// Notifier 接收写入后的变更通知
type Notifier interface {
	Publish(change realtime.Change)
}

// Filter 列表查询条件，零值字段不参与过滤
// OwnerID 为空表示管理员跨用户读取
type Filter struct {
	OwnerID      string
	From         models.Day
	To           models.Day
	Date         models.Day
	ManicuristID string
	Category     string
	ActiveOnly   bool
}

type base struct {
	db       *gorm.DB
	notifier Notifier
}

func (b base) notify(table string, t realtime.ChangeType, id string) {
	metrics.RecordsWrittenTotal.WithLabelValues(table, string(t)).Inc()
	if b.notifier != nil {
		b.notifier.Publish(realtime.Change{Table: table, Type: t, ID: id})
	}
}

// owned 按所有者限定查询
func owned(db *gorm.DB, ownerID string) *gorm.DB {
	if ownerID == "" {
		return db
	}
	return db.Where("user_id = ?", ownerID)
}

// dated 按日期条件过滤
func dated(db *gorm.DB, f Filter) *gorm.DB {
	if !f.Date.IsZero() {
		db = db.Where("date = ?", f.Date)
	}
	if !f.From.IsZero() {
		db = db.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		db = db.Where("date <= ?", f.To)
	}
	return db
}

// translate 把驱动错误转换为包内哨兵错误
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key") // postgres
}

// Set 应用使用的全部 Store
type Set struct {
	Income        *IncomeStore
	Expenses      *ExpenseStore
	Services      *ServiceStore
	Manicurists   *ManicuristStore
	Profiles      *ProfileStore
	Verifications *VerificationStore
}

// NewSet 基于同一个数据库连接创建全部 Store；记录类写入通知 n
func NewSet(db *gorm.DB, n Notifier) *Set {
	return &Set{
		Income:        NewIncomeStore(db, n),
		Expenses:      NewExpenseStore(db, n),
		Services:      NewServiceStore(db, n),
		Manicurists:   NewManicuristStore(db, n),
		Profiles:      NewProfileStore(db),
		Verifications: NewVerificationStore(db),
	}
}
