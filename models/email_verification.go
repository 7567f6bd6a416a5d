package models

import (
	cryptoRand "crypto/rand"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 验证码用途
const (
	VerificationSignUp = "sign_up"
)

// EmailVerification 邮箱验证码，注册后待确认状态依赖此表
type EmailVerification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Email     string    `json:"email" gorm:"index;size:120;not null"`
	Code      string    `json:"-" gorm:"size:6;not null"`
	Purpose   string    `json:"purpose" gorm:"size:20;not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 设置表名
func (EmailVerification) TableName() string {
	return "email_verifications"
}

// BeforeCreate 生成主键
func (e *EmailVerification) BeforeCreate(tx *gorm.DB) error {
	newID(&e.ID)
	return nil
}

// IsExpired 检查验证码是否过期
func (e *EmailVerification) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// IsValid 检查验证码是否有效
func (e *EmailVerification) IsValid() bool {
	return !e.Used && !e.IsExpired()
}

// GenerateVerificationCode 生成6位数字验证码
func GenerateVerificationCode() (string, error) {
	bytes := make([]byte, 3)
	if _, err := randRead(bytes); err != nil {
		return "", err
	}
	code := int(bytes[0])<<16 | int(bytes[1])<<8 | int(bytes[2])
	code = code%900000 + 100000 // 确保是6位数
	return fmt.Sprintf("%06d", code), nil
}

// 为了使用 crypto/rand，测试可替换
var randRead = func(b []byte) (int, error) {
	return cryptoRand.Read(b)
}
