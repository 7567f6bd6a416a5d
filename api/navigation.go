package api

import (
	"net/http"

	"palmera/guard"
	"palmera/middleware"

	"github.com/gin-gonic/gin"
)

// NavigationHandler 供前端路由查询页面守卫判定
type NavigationHandler struct {
	guard *guard.Guard
	auth  middleware.Authenticator
}

// NewNavigationHandler 创建导航处理器
func NewNavigationHandler(g *guard.Guard, auth middleware.Authenticator) *NavigationHandler {
	return &NavigationHandler{guard: g, auth: auth}
}

// Decide 判定一次导航
// @Summary 导航判定
// @Description 返回 allow、redirect（附 target）、not_found 或 failed
// @Tags 导航
// @Produce json
// @Param path query string true "页面路径" example(/admin/reports)
// @Success 200 {object} Response{data=guard.Decision} "判定结果"
// @Failure 503 {object} Response{data=guard.Decision} "会话解析超时"
// @Router /api/v1/navigation [get]
func (h *NavigationHandler) Decide(c *gin.Context) {
	d := h.guard.Evaluate(c.Request.Context(), c.Query("path"), middleware.IdentitySource(c, h.auth))
	if d.Outcome == guard.Failed {
		c.JSON(http.StatusServiceUnavailable, Response{
			Code:    http.StatusServiceUnavailable,
			Message: "No se pudo verificar la sesión. Inténtalo de nuevo.",
			Data:    d,
		})
		return
	}
	Success(c, d)
}

// Routes 页面路由表
// @Summary 页面路由表
// @Tags 导航
// @Produce json
// @Success 200 {object} Response{data=[]guard.Route} "路由表"
// @Router /api/v1/navigation/routes [get]
func (h *NavigationHandler) Routes(c *gin.Context) {
	Success(c, h.guard.Routes())
}
