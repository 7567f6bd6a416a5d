package session

import (
	"context"
	"errors"

	"palmera/models"
	"palmera/store"

	"github.com/rs/zerolog"
)

// Profile 角色解析结果
type Profile struct {
	Role           models.Role `json:"role"`
	IsActive       bool        `json:"is_active"`
	ManicuristName string      `json:"manicurist_name"`
	ManicuristID   *string     `json:"manicurist_id,omitempty"`
	FullName       string      `json:"full_name"`
}

// IsAdmin 是否管理员
func (p Profile) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Resolver 按用户 ID 解析角色与资料
type Resolver struct {
	profiles ProfileRepository
	log      zerolog.Logger
}

// NewResolver 创建解析器
func NewResolver(profiles ProfileRepository, log zerolog.Logger) *Resolver {
	return &Resolver{profiles: profiles, log: log}
}

// Resolve 解析用户资料
// 没有角色记录按 employee 处理；查询失败记录日志并返回最低权限，只有 ctx 结束时返回错误
func (r *Resolver) Resolve(ctx context.Context, userID string) (Profile, error) {
	out := Profile{Role: models.RoleEmployee}

	role, err := r.profiles.RoleOf(ctx, userID)
	switch {
	case err == nil:
		out.Role = models.ParseRole(string(role))
	case ctx.Err() != nil:
		return out, ctx.Err()
	case !errors.Is(err, store.ErrNotFound):
		r.log.Warn().Err(err).Str("user_id", userID).Msg("查询角色失败，按最低权限处理")
	}

	p, err := r.profiles.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		out.IsActive = p.IsActive
		out.ManicuristName = p.ManicuristName
		out.ManicuristID = p.ManicuristID
		out.FullName = p.FullName
	case ctx.Err() != nil:
		return out, ctx.Err()
	case !errors.Is(err, store.ErrNotFound):
		r.log.Warn().Err(err).Str("user_id", userID).Msg("查询用户资料失败")
	}
	return out, nil
}
