package api

import (
	"net/http"
	"time"

	"palmera/config"
	"palmera/middleware"

	"github.com/gin-gonic/gin"
)

// getCookieOptions 根据运行模式返回 Cookie 的安全选项
// release 模式下启用 Secure（仅 HTTPS 传输）
func getCookieOptions() (secure bool, sameSite http.SameSite) {
	if config.GlobalConfig.IsRelease() {
		secure = true
	}
	// SameSite=Lax: 跨站 POST 不携带 Cookie，同站导航正常
	sameSite = http.SameSiteLaxMode
	return
}

// setSessionCookie 写入会话 Cookie，有效期与令牌一致
func setSessionCookie(c *gin.Context, token string, expires time.Time) {
	secure, sameSite := getCookieOptions()
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(sameSite)
	c.SetCookie(middleware.CookieName, token, maxAge, "/", "", secure, true)
}

// clearSessionCookie 清除会话 Cookie
func clearSessionCookie(c *gin.Context) {
	secure, sameSite := getCookieOptions()
	c.SetSameSite(sameSite)
	c.SetCookie(middleware.CookieName, "", -1, "/", "", secure, true)
}
