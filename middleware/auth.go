package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"palmera/guard"
	"palmera/session"

	"github.com/gin-gonic/gin"
)

// CookieName 会话 Cookie 名
const CookieName = "palmera_session"

const identityKey = "identity"

// Authenticator 令牌解析
type Authenticator interface {
	Resolve(ctx context.Context, token string) (*session.Identity, error)
}

// TokenFromRequest 优先取 Authorization: Bearer，其次取会话 Cookie
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := c.Cookie(CookieName); err == nil {
		return v
	}
	return ""
}

// JWTAuth API 认证中间件，失败返回 401；账户停用返回 403
func JWTAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "Inicia sesión para continuar.")
			return
		}
		id, err := auth.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				msg, _ := session.Message(err)
				abortJSON(c, http.StatusUnauthorized, msg)
				return
			}
			abortJSON(c, http.StatusServiceUnavailable, "No se pudo verificar la sesión. Inténtalo de nuevo.")
			return
		}
		if !id.Profile.IsActive {
			msg, _ := session.Message(session.ErrInactiveUser)
			abortJSON(c, http.StatusForbidden, msg)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// GetIdentity 当前身份，未认证返回 nil
func GetIdentity(c *gin.Context) *session.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(*session.Identity); ok {
			return id
		}
	}
	return nil
}

// SetIdentity 写入当前身份（测试与内部使用）
func SetIdentity(c *gin.Context, id *session.Identity) {
	c.Set(identityKey, id)
}

// GetCurrentUserID 当前用户 ID
func GetCurrentUserID(c *gin.Context) string {
	if id := GetIdentity(c); id != nil {
		return id.UserID
	}
	return ""
}

// IsAdmin 当前用户是否管理员
func IsAdmin(c *gin.Context) bool {
	id := GetIdentity(c)
	return id != nil && id.Profile.IsAdmin()
}

// OwnerScope 记录查询的所有者范围，管理员返回空串表示不限
func OwnerScope(c *gin.Context) string {
	if IsAdmin(c) {
		return ""
	}
	return GetCurrentUserID(c)
}

// IdentitySource 以请求中的令牌构造守卫的访问者来源
// 无令牌、令牌无效或账户停用均视为未登录
func IdentitySource(c *gin.Context, auth Authenticator) guard.IdentitySource {
	token := TokenFromRequest(c)
	return guard.IdentityFunc(func(ctx context.Context) (*guard.Subject, error) {
		if token == "" {
			return nil, nil
		}
		id, err := auth.Resolve(ctx, token)
		if errors.Is(err, session.ErrInvalidToken) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !id.Profile.IsActive {
			return nil, nil
		}
		return &guard.Subject{UserID: id.UserID, Admin: id.Profile.IsAdmin()}, nil
	})
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}
