package api

import (
	"strconv"
	"strings"

	"palmera/middleware"
	"palmera/models"
	"palmera/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CatalogHandler 服务目录与美甲师
type CatalogHandler struct {
	services    *store.ServiceStore
	manicurists *store.ManicuristStore
}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler(services *store.ServiceStore, manicurists *store.ManicuristStore) *CatalogHandler {
	return &CatalogHandler{services: services, manicurists: manicurists}
}

type ServiceRequest struct {
	Name         string           `json:"name" binding:"required" example:"Manicura básica"`
	Category     string           `json:"category" binding:"required" example:"Manicura"`
	DefaultPrice *decimal.Decimal `json:"default_price" swaggertype:"string" example:"15.00"`
	Global       bool             `json:"global"`
}

type UpdateServiceRequest struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	DefaultPrice *decimal.Decimal `json:"default_price" swaggertype:"string"`
	ClearPrice   bool             `json:"clear_price"`
}

type ManicuristRequest struct {
	Name     string `json:"name" binding:"required" example:"Tamar"`
	IsActive *bool  `json:"is_active"`
}

type UpdateManicuristRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// ListServices 服务目录
// @Summary 服务目录
// @Description 全局服务加当前用户自己的服务，按类别、名称排序
// @Tags 目录
// @Produce json
// @Security BearerAuth
// @Param category query string false "类别"
// @Success 200 {object} Response{data=[]models.Service} "获取成功"
// @Router /api/v1/services [get]
func (h *CatalogHandler) ListServices(c *gin.Context) {
	rows, err := h.services.List(c.Request.Context(), store.Filter{
		OwnerID:  middleware.GetCurrentUserID(c),
		Category: c.Query("category"),
	})
	if err != nil {
		respondError(c, err, "查询服务目录失败")
		return
	}
	Success(c, rows)
}

// ListManicurists 美甲师列表
// @Summary 美甲师列表
// @Tags 目录
// @Produce json
// @Security BearerAuth
// @Param active query bool false "只返回在职"
// @Success 200 {object} Response{data=[]models.Manicurist} "获取成功"
// @Router /api/v1/manicurists [get]
func (h *CatalogHandler) ListManicurists(c *gin.Context) {
	active, _ := strconv.ParseBool(c.Query("active"))
	rows, err := h.manicurists.List(c.Request.Context(), store.Filter{ActiveOnly: active})
	if err != nil {
		respondError(c, err, "查询美甲师失败")
		return
	}
	Success(c, rows)
}

// CreateService 新增服务
// @Summary 新增服务
// @Description global=true 时为全局服务，否则仅创建者可见
// @Tags 管理-目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ServiceRequest true "服务"
// @Success 201 {object} Response{data=models.Service} "创建成功"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/admin/services [post]
func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.DefaultPrice != nil && req.DefaultPrice.IsNegative() {
		BadRequest(c, "El precio no puede ser negativo")
		return
	}
	if req.DefaultPrice != nil && !models.IsCents(*req.DefaultPrice) {
		BadRequest(c, msgCents)
		return
	}
	svc := models.Service{
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		DefaultPrice: req.DefaultPrice,
	}
	if !req.Global {
		owner := middleware.GetCurrentUserID(c)
		svc.UserID = &owner
	}
	if err := h.services.Create(c.Request.Context(), &svc); err != nil {
		respondError(c, err, "创建服务失败")
		return
	}
	Created(c, "Servicio creado", svc)
}

// UpdateService 修改服务
// @Summary 修改服务
// @Tags 管理-目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "服务ID"
// @Param request body UpdateServiceRequest true "修改内容"
// @Success 200 {object} Response{data=models.Service} "更新成功"
// @Failure 404 {object} Response "服务不存在"
// @Router /api/v1/admin/services/{id} [put]
func (h *CatalogHandler) UpdateService(c *gin.Context) {
	var req UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.DefaultPrice != nil && req.DefaultPrice.IsNegative() {
		BadRequest(c, "El precio no puede ser negativo")
		return
	}
	if req.DefaultPrice != nil && !models.IsCents(*req.DefaultPrice) {
		BadRequest(c, msgCents)
		return
	}
	svc, err := h.services.Update(c.Request.Context(), c.Param("id"), store.ServicePatch{
		Name:         trimmed(req.Name),
		Category:     trimmed(req.Category),
		DefaultPrice: req.DefaultPrice,
		ClearPrice:   req.ClearPrice,
	})
	if err != nil {
		respondError(c, err, "更新服务失败")
		return
	}
	SuccessWithMessage(c, "Servicio actualizado", svc)
}

// DeleteService 删除服务
// @Summary 删除服务
// @Tags 管理-目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "服务ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "服务不存在"
// @Router /api/v1/admin/services/{id} [delete]
func (h *CatalogHandler) DeleteService(c *gin.Context) {
	if err := h.services.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "删除服务失败")
		return
	}
	SuccessWithMessage(c, "Servicio eliminado", nil)
}

// CreateManicurist 新增美甲师
// @Summary 新增美甲师
// @Tags 管理-目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ManicuristRequest true "美甲师"
// @Success 201 {object} Response{data=models.Manicurist} "创建成功"
// @Failure 409 {object} Response "名称已存在"
// @Router /api/v1/admin/manicurists [post]
func (h *CatalogHandler) CreateManicurist(c *gin.Context) {
	var req ManicuristRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m := models.Manicurist{
		Name:     strings.TrimSpace(req.Name),
		IsActive: req.IsActive == nil || *req.IsActive,
		UserID:   middleware.GetCurrentUserID(c),
	}
	if err := h.manicurists.Create(c.Request.Context(), &m); err != nil {
		respondError(c, err, "创建美甲师失败")
		return
	}
	Created(c, "Manicurista creada", m)
}

// UpdateManicurist 修改美甲师
// @Summary 修改美甲师
// @Tags 管理-目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "美甲师ID"
// @Param request body UpdateManicuristRequest true "修改内容"
// @Success 200 {object} Response{data=models.Manicurist} "更新成功"
// @Failure 404 {object} Response "美甲师不存在"
// @Router /api/v1/admin/manicurists/{id} [put]
func (h *CatalogHandler) UpdateManicurist(c *gin.Context) {
	var req UpdateManicuristRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	m, err := h.manicurists.Update(c.Request.Context(), c.Param("id"), store.ManicuristPatch{
		Name:     trimmed(req.Name),
		IsActive: req.IsActive,
	})
	if err != nil {
		respondError(c, err, "更新美甲师失败")
		return
	}
	SuccessWithMessage(c, "Manicurista actualizada", m)
}

// DeleteManicurist 删除美甲师
// @Summary 删除美甲师
// @Tags 管理-目录
// @Produce json
// @Security BearerAuth
// @Param id path string true "美甲师ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "美甲师不存在"
// @Router /api/v1/admin/manicurists/{id} [delete]
func (h *CatalogHandler) DeleteManicurist(c *gin.Context) {
	if err := h.manicurists.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "删除美甲师失败")
		return
	}
	SuccessWithMessage(c, "Manicurista eliminada", nil)
}

// trimmed 去除首尾空白，空串视为未修改
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
