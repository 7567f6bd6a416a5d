package api

import (
	"context"
	"time"

	"palmera/middleware"
	"palmera/models"
	"palmera/report"
	"palmera/store"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理后台
type AdminHandler struct {
	income   *store.IncomeStore
	expenses *store.ExpenseStore
	profiles *store.ProfileStore
	now      func() time.Time
}

// NewAdminHandler 创建管理后台处理器
func NewAdminHandler(income *store.IncomeStore, expenses *store.ExpenseStore, profiles *store.ProfileStore) *AdminHandler {
	return &AdminHandler{income: income, expenses: expenses, profiles: profiles, now: time.Now}
}

type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin employee" example:"admin"`
}

type StatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// windowFromQuery 解析 from/to，缺省为不限
func windowFromQuery(c *gin.Context) (report.Window, bool) {
	var w report.Window
	for _, p := range []struct {
		key string
		dst *models.Day
	}{{"from", &w.From}, {"to", &w.To}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		d, err := models.ParseDay(raw)
		if err != nil {
			BadRequest(c, "Fecha inválida, usa el formato AAAA-MM-DD")
			return w, false
		}
		*p.dst = d
	}
	if !w.From.IsZero() && !w.To.IsZero() && w.To.Before(w.From) {
		BadRequest(c, "La fecha final no puede ser anterior a la inicial")
		return w, false
	}
	return w, true
}

// members 全部用户，转为汇总使用的成员资料
func (h *AdminHandler) members(ctx context.Context) ([]report.Member, error) {
	profiles, err := h.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]report.Member, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, report.Member{
			UserID:         p.UserID,
			Email:          p.Email,
			FullName:       p.FullName,
			ManicuristName: p.ManicuristName,
			IsActive:       p.IsActive,
			Role:           p.Role,
		})
	}
	return out, nil
}

// buildReport 按窗口生成跨用户汇总
func (h *AdminHandler) buildReport(ctx context.Context, w report.Window) (report.AdminReport, error) {
	f := store.Filter{From: w.From, To: w.To}
	income, err := h.income.List(ctx, f)
	if err != nil {
		return report.AdminReport{}, err
	}
	expenses, err := h.expenses.List(ctx, f)
	if err != nil {
		return report.AdminReport{}, err
	}
	members, err := h.members(ctx)
	if err != nil {
		return report.AdminReport{}, err
	}
	return report.BuildAdminReport(w, income, expenses, members), nil
}

// Overview 本月概览
// @Summary 管理概览
// @Description 本月全店汇总
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=report.AdminReport} "获取成功"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/admin/overview [get]
func (h *AdminHandler) Overview(c *gin.Context) {
	r, err := h.buildReport(c.Request.Context(), report.Month(h.now()))
	if err != nil {
		respondError(c, err, "生成管理概览失败")
		return
	}
	Success(c, r)
}

// Reports 区间报表
// @Summary 区间报表
// @Description 按日期区间汇总每位用户的收入、支出与服务数
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param from query string false "开始日期 (2024-05-01)"
// @Param to query string false "结束日期 (2024-05-31)"
// @Success 200 {object} Response{data=report.AdminReport} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/admin/reports [get]
func (h *AdminHandler) Reports(c *gin.Context) {
	w, ok := windowFromQuery(c)
	if !ok {
		return
	}
	r, err := h.buildReport(c.Request.Context(), w)
	if err != nil {
		respondError(c, err, "生成报表失败")
		return
	}
	Success(c, r)
}

// Leaderboard 美甲师排行
// @Summary 美甲师排行
// @Description 按总额降序，总额相同按名称升序
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param from query string false "开始日期"
// @Param to query string false "结束日期"
// @Success 200 {object} Response{data=[]report.Standing} "获取成功"
// @Router /api/v1/admin/leaderboard [get]
func (h *AdminHandler) Leaderboard(c *gin.Context) {
	w, ok := windowFromQuery(c)
	if !ok {
		return
	}
	rows, err := h.income.List(c.Request.Context(), store.Filter{From: w.From, To: w.To})
	if err != nil {
		respondError(c, err, "生成排行失败")
		return
	}
	Success(c, report.Leaderboard(rows, report.ByManicurist))
}

// Users 用户列表
// @Summary 用户列表
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]report.Member} "获取成功"
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) Users(c *gin.Context) {
	members, err := h.members(c.Request.Context())
	if err != nil {
		respondError(c, err, "查询用户失败")
		return
	}
	Success(c, members)
}

// SetRole 设置角色
// @Summary 设置用户角色
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param request body RoleRequest true "角色"
// @Success 200 {object} Response "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/admin/users/{user_id}/role [put]
func (h *AdminHandler) SetRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID := c.Param("user_id")
	if userID == middleware.GetCurrentUserID(c) && models.Role(req.Role) != models.RoleAdmin {
		BadRequest(c, "No puedes quitarte el rol de administrador")
		return
	}
	if err := h.profiles.SetRole(c.Request.Context(), userID, models.Role(req.Role)); err != nil {
		respondError(c, err, "设置角色失败")
		return
	}
	SuccessWithMessage(c, "Rol actualizado", gin.H{"user_id": userID, "role": req.Role})
}

// SetStatus 启用或停用账户
// @Summary 启用或停用账户
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param request body StatusRequest true "状态"
// @Success 200 {object} Response "更新成功"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/admin/users/{user_id}/status [put]
func (h *AdminHandler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID := c.Param("user_id")
	if userID == middleware.GetCurrentUserID(c) && !*req.IsActive {
		BadRequest(c, "No puedes desactivar tu propia cuenta")
		return
	}
	if err := h.profiles.SetActive(c.Request.Context(), userID, *req.IsActive); err != nil {
		respondError(c, err, "设置账户状态失败")
		return
	}
	SuccessWithMessage(c, "Estado actualizado", gin.H{"user_id": userID, "is_active": *req.IsActive})
}
