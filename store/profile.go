package store

import (
	"context"
	"strings"
	"time"

	"palmera/models"
	"palmera/realtime"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStore 用户资料与角色
type ProfileStore struct {
	base
}

// NewProfileStore 创建用户资料 Store
func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{base{db: db}}
}

// NormalizeEmail 邮箱统一小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail 按邮箱查找
func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindByUserID 按用户 ID 查找
func (s *ProfileStore) FindByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// RoleOf 查询角色，没有角色记录时返回 ErrNotFound
func (s *ProfileStore) RoleOf(ctx context.Context, userID string) (models.Role, error) {
	var r models.UserRole
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&r).Error; err != nil {
		return "", translate(err)
	}
	return r.Role, nil
}

// Register 新建用户资料；系统中的第一个用户自动成为管理员。
// 并发的首批注册通过唯一的引导标记决出唯一的管理员。
func (s *ProfileStore) Register(ctx context.Context, p *models.UserProfile) error {
	p.Email = NormalizeEmail(p.Email)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserProfile{}).Count(&count).Error; err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.BootstrapMarker{Key: models.AdminBootstrapKey, UserID: p.UserID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Create(&models.UserRole{UserID: p.UserID, Role: models.RoleAdmin}).Error
	})
	return translate(err)
}

// Confirm 标记邮箱已确认并激活账户
func (s *ProfileStore) Confirm(ctx context.Context, userID string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"email_confirmed": true,
			"confirmed_at":    now,
			"is_active":       true,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(models.TableUserProfiles, realtime.Update, userID)
	return nil
}

// SetRole 设置角色（不存在则插入）
func (s *ProfileStore) SetRole(ctx context.Context, userID string, role models.Role) error {
	if _, err := s.FindByUserID(ctx, userID); err != nil {
		return err
	}
	r := models.UserRole{UserID: userID, Role: role}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&r).Error
	if err != nil {
		return translate(err)
	}
	s.notify(models.TableUserRoles, realtime.Update, userID)
	return nil
}

// SetActive 启用或停用账户
func (s *ProfileStore) SetActive(ctx context.Context, userID string, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("user_id = ?", userID).
		Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(models.TableUserProfiles, realtime.Update, userID)
	return nil
}

// ProfileWithRole 用户资料及其角色
type ProfileWithRole struct {
	models.UserProfile
	Role models.Role `json:"role"`
}

// List 列出所有用户，按创建时间倒序
func (s *ProfileStore) List(ctx context.Context) ([]ProfileWithRole, error) {
	var profiles []models.UserProfile
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	var roles []models.UserRole
	if err := s.db.WithContext(ctx).Find(&roles).Error; err != nil {
		return nil, err
	}
	byUser := make(map[string]models.Role, len(roles))
	for _, r := range roles {
		byUser[r.UserID] = r.Role
	}

	out := make([]ProfileWithRole, 0, len(profiles))
	for _, p := range profiles {
		role, ok := byUser[p.UserID]
		if !ok {
			role = models.RoleEmployee
		}
		out = append(out, ProfileWithRole{UserProfile: p, Role: models.ParseRole(string(role))})
	}
	return out, nil
}

// VerificationStore 邮箱验证码
type VerificationStore struct {
	db *gorm.DB
}

// NewVerificationStore 创建验证码 Store
func NewVerificationStore(db *gorm.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

// Create 保存新验证码，同一邮箱同一用途的旧验证码作废
func (s *VerificationStore) Create(ctx context.Context, v *models.EmailVerification) error {
	v.Email = NormalizeEmail(v.Email)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailVerification{}).
			Where("email = ? AND purpose = ? AND used = ?", v.Email, v.Purpose, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(v).Error
	})
}

// Consume 校验并使用验证码，无有效验证码时返回 ErrNotFound
func (s *VerificationStore) Consume(ctx context.Context, email, purpose, code string) error {
	var v models.EmailVerification
	err := s.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND code = ? AND used = ?", NormalizeEmail(email), purpose, code, false).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		return translate(err)
	}
	if !v.IsValid() {
		return ErrNotFound
	}
	return s.db.WithContext(ctx).Model(&v).Update("used", true).Error
}
