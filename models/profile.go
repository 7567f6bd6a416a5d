package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProfile 用户资料，与登录身份一对一
type UserProfile struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	UserID         string     `json:"user_id" gorm:"size:36;not null;uniqueIndex"`
	Email          string     `json:"email" gorm:"size:120;not null;uniqueIndex"`
	PasswordHash   string     `json:"-" gorm:"size:255;not null"`
	FullName       string     `json:"full_name" gorm:"size:120"`
	ManicuristName string     `json:"manicurist_name" gorm:"size:80"`
	ManicuristID   *string    `json:"manicurist_id" gorm:"size:36;index"`
	IsActive       bool       `json:"is_active" gorm:"not null;default:false;index"`
	EmailConfirmed bool       `json:"email_confirmed" gorm:"not null;default:false"`
	ConfirmedAt    *time.Time `json:"confirmed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName 设置表名
func (UserProfile) TableName() string {
	return TableUserProfiles
}

// BeforeCreate 生成主键与用户 ID
func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	newID(&p.UserID)
	return nil
}

// UserRole 用户角色，无记录时按最低权限（employee）处理
type UserRole struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:36"`
	Role      Role      `json:"role" gorm:"size:20;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 设置表名
func (UserRole) TableName() string {
	return TableUserRoles
}

// AdminBootstrapKey 首位管理员的引导标记
const AdminBootstrapKey = "first_admin"

// BootstrapMarker 一次性引导标记，主键唯一保证只有一个注册请求能领取
type BootstrapMarker struct {
	Key       string    `gorm:"primaryKey;size:40"`
	UserID    string    `gorm:"size:36;not null"`
	CreatedAt time.Time
}

// TableName 设置表名
func (BootstrapMarker) TableName() string {
	return "bootstrap_markers"
}
