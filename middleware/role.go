package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin 管理接口权限校验，需在 JWTAuth 之后使用
// API 调用返回 403；页面的软降级由 PageGuard 负责
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetIdentity(c) == nil {
			abortJSON(c, http.StatusUnauthorized, "Inicia sesión para continuar.")
			return
		}
		if !IsAdmin(c) {
			abortJSON(c, http.StatusForbidden, "No tienes permisos para realizar esta acción.")
			return
		}
		c.Next()
	}
}
