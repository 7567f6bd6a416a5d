package store

import (
	"context"

	"palmera/models"
	"palmera/realtime"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceStore 服务目录
type ServiceStore struct {
	base
}

// NewServiceStore 创建服务目录 Store
func NewServiceStore(db *gorm.DB, n Notifier) *ServiceStore {
	return &ServiceStore{base{db: db, notifier: n}}
}

// List 列出可见的服务：全局目录项加上 OwnerID 自己的；OwnerID 为空时列出全部
func (s *ServiceStore) List(ctx context.Context, f Filter) ([]models.Service, error) {
	q := s.db.WithContext(ctx)
	if f.OwnerID != "" {
		q = q.Where("user_id IS NULL OR user_id = ?", f.OwnerID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	var rows []models.Service
	if err := q.Order("category").Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get 获取服务
func (s *ServiceStore) Get(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, translate(err)
	}
	return &svc, nil
}

// GetMany 按 ID 批量获取，返回 ID → 服务
func (s *ServiceStore) GetMany(ctx context.Context, ids []string) (map[string]models.Service, error) {
	out := make(map[string]models.Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Service
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// Create 新增服务
func (s *ServiceStore) Create(ctx context.Context, svc *models.Service) error {
	if err := s.db.WithContext(ctx).Create(svc).Error; err != nil {
		return translate(err)
	}
	s.notify(models.TableServices, realtime.Insert, svc.ID)
	return nil
}

// ServicePatch 服务可修改字段
type ServicePatch struct {
	Name         *string
	Category     *string
	DefaultPrice *decimal.Decimal
	ClearPrice   bool // 清空默认价格
}

// Update 修改服务
func (s *ServiceStore) Update(ctx context.Context, id string, p ServicePatch) (*models.Service, error) {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Category != nil {
		updates["category"] = *p.Category
	}
	if p.DefaultPrice != nil {
		updates["default_price"] = *p.DefaultPrice
	} else if p.ClearPrice {
		updates["default_price"] = nil
	}
	if len(updates) == 0 {
		return svc, nil
	}
	if err := s.db.WithContext(ctx).Model(svc).Updates(updates).Error; err != nil {
		return nil, translate(err)
	}
	s.notify(models.TableServices, realtime.Update, id)
	return s.Get(ctx, id)
}

// Delete 删除服务，已有收入记录保留原 service_id
func (s *ServiceStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Service{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(models.TableServices, realtime.Delete, id)
	return nil
}

// ManicuristStore 美甲师
type ManicuristStore struct {
	base
}

// NewManicuristStore 创建美甲师 Store
func NewManicuristStore(db *gorm.DB, n Notifier) *ManicuristStore {
	return &ManicuristStore{base{db: db, notifier: n}}
}

// List 按名称排序列出美甲师；ActiveOnly 只列出在职的
func (s *ManicuristStore) List(ctx context.Context, f Filter) ([]models.Manicurist, error) {
	q := s.db.WithContext(ctx)
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Manicurist
	if err := q.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get 获取美甲师
func (s *ManicuristStore) Get(ctx context.Context, id string) (*models.Manicurist, error) {
	var m models.Manicurist
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// Create 新增美甲师，名称重复返回 ErrDuplicate
func (s *ManicuristStore) Create(ctx context.Context, m *models.Manicurist) error {
	active := m.IsActive
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		// is_active 带默认值，false 不会写入
		if !active {
			m.IsActive = false
			return tx.Model(m).Update("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		return translate(err)
	}
	s.notify(models.TableManicurists, realtime.Insert, m.ID)
	return nil
}

// ManicuristPatch 美甲师可修改字段
type ManicuristPatch struct {
	Name     *string
	IsActive *bool
}

// Update 修改美甲师
func (s *ManicuristStore) Update(ctx context.Context, id string, p ManicuristPatch) (*models.Manicurist, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.IsActive != nil {
		updates["is_active"] = *p.IsActive
	}
	if len(updates) == 0 {
		return m, nil
	}
	if err := s.db.WithContext(ctx).Model(m).Updates(updates).Error; err != nil {
		return nil, translate(err)
	}
	s.notify(models.TableManicurists, realtime.Update, id)
	return s.Get(ctx, id)
}

// Delete 删除美甲师
func (s *ManicuristStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Manicurist{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(models.TableManicurists, realtime.Delete, id)
	return nil
}
