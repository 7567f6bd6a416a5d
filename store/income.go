package store

import (
	"context"

	"palmera/models"
	"palmera/realtime"

	"gorm.io/gorm"
)

// IncomeStore 收入记录
type IncomeStore struct {
	base
}

// NewIncomeStore 创建收入记录 Store
func NewIncomeStore(db *gorm.DB, n Notifier) *IncomeStore {
	return &IncomeStore{base{db: db, notifier: n}}
}

// List 按日期倒序（同日按创建时间倒序）列出收入记录
func (s *IncomeStore) List(ctx context.Context, f Filter) ([]models.IncomeRecord, error) {
	q := dated(owned(s.db.WithContext(ctx), f.OwnerID), f)
	if f.ManicuristID != "" {
		q = q.Where("manicurist_id = ?", f.ManicuristID)
	}
	var rows []models.IncomeRecord
	if err := q.Order("date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get 获取单条记录；ownerID 非空时只返回该用户的记录
func (s *IncomeStore) Get(ctx context.Context, id, ownerID string) (*models.IncomeRecord, error) {
	var r models.IncomeRecord
	if err := owned(s.db.WithContext(ctx), ownerID).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// Create 新增一条收入记录
func (s *IncomeStore) Create(ctx context.Context, r *models.IncomeRecord) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return translate(err)
	}
	s.notify(models.TableIncomeRecords, realtime.Insert, r.ID)
	return nil
}

// CreateBatch 在一个事务内写入多条记录，任一失败则全部回滚
func (s *IncomeStore) CreateBatch(ctx context.Context, rows []models.IncomeRecord) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}
	for _, r := range rows {
		s.notify(models.TableIncomeRecords, realtime.Insert, r.ID)
	}
	return nil
}

// Update 修改记录的可编辑字段，返回修改后的记录
func (s *IncomeStore) Update(ctx context.Context, id, ownerID string, patch models.IncomePatch) (*models.IncomeRecord, error) {
	r, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return r, nil
	}
	if err := s.db.WithContext(ctx).Model(r).Updates(patch.Columns()).Error; err != nil {
		return nil, translate(err)
	}
	s.notify(models.TableIncomeRecords, realtime.Update, id)
	return s.Get(ctx, id, ownerID)
}

// Delete 删除记录
func (s *IncomeStore) Delete(ctx context.Context, id, ownerID string) error {
	res := owned(s.db.WithContext(ctx), ownerID).Where("id = ?", id).Delete(&models.IncomeRecord{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(models.TableIncomeRecords, realtime.Delete, id)
	return nil
}
