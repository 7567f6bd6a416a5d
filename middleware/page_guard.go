package middleware

import (
	"net/http"

	"palmera/guard"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const decisionKey = "guard_decision"

// PageGuard 页面导航守卫：未登录 302 到 /auth，权限不足 302 到默认内页
// 会话解析失败或超时返回 503
func PageGuard(g *guard.Guard, auth Authenticator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Evaluate(c.Request.Context(), c.Request.URL.Path, IdentitySource(c, auth))
		c.Set(decisionKey, d)
		switch d.Outcome {
		case guard.Allow:
			c.Next()
		case guard.Redirect:
			c.Redirect(http.StatusFound, d.Target)
			c.Abort()
		case guard.NotFound:
			c.AbortWithStatus(http.StatusNotFound)
		default:
			log.Warn().Err(d.Err).Str("path", d.Path).Msg("页面守卫解析会话失败")
			c.AbortWithStatus(http.StatusServiceUnavailable)
		}
	}
}

// GetDecision 本次请求的守卫判定
func GetDecision(c *gin.Context) (guard.Decision, bool) {
	v, ok := c.Get(decisionKey)
	if !ok {
		return guard.Decision{}, false
	}
	d, ok := v.(guard.Decision)
	return d, ok
}
