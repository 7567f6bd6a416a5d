package store

import (
	"context"

	"palmera/models"
	"palmera/realtime"

	"gorm.io/gorm"
)

// ExpenseStore 支出记录，不支持修改
type ExpenseStore struct {
	base
}

// NewExpenseStore 创建支出记录 Store
func NewExpenseStore(db *gorm.DB, n Notifier) *ExpenseStore {
	return &ExpenseStore{base{db: db, notifier: n}}
}

// List 按日期倒序列出支出记录
func (s *ExpenseStore) List(ctx context.Context, f Filter) ([]models.ExpenseRecord, error) {
	q := dated(owned(s.db.WithContext(ctx), f.OwnerID), f)
	var rows []models.ExpenseRecord
	if err := q.Order("date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get 获取单条记录
func (s *ExpenseStore) Get(ctx context.Context, id, ownerID string) (*models.ExpenseRecord, error) {
	var r models.ExpenseRecord
	if err := owned(s.db.WithContext(ctx), ownerID).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// Create 新增支出记录
func (s *ExpenseStore) Create(ctx context.Context, r *models.ExpenseRecord) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return translate(err)
	}
	s.notify(models.TableExpenseRecords, realtime.Insert, r.ID)
	return nil
}

// Delete 删除支出记录
func (s *ExpenseStore) Delete(ctx context.Context, id, ownerID string) error {
	res := owned(s.db.WithContext(ctx), ownerID).Where("id = ?", id).Delete(&models.ExpenseRecord{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(models.TableExpenseRecords, realtime.Delete, id)
	return nil
}
