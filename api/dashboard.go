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

// DashboardHandler 首页统计
type DashboardHandler struct {
	income   *store.IncomeStore
	expenses *store.ExpenseStore
	now      func() time.Time
}

// NewDashboardHandler 创建首页统计处理器
func NewDashboardHandler(income *store.IncomeStore, expenses *store.ExpenseStore) *DashboardHandler {
	return &DashboardHandler{income: income, expenses: expenses, now: time.Now}
}

// build 计算 ownerID 范围内本月的首页统计
func (h *DashboardHandler) build(ctx context.Context, ownerID string) (report.Dashboard, error) {
	now := h.now()
	month := report.Month(now)
	f := store.Filter{OwnerID: ownerID, From: month.From, To: month.To}
	income, err := h.income.List(ctx, f)
	if err != nil {
		return report.Dashboard{}, err
	}
	expenses, err := h.expenses.List(ctx, f)
	if err != nil {
		return report.Dashboard{}, err
	}
	return report.BuildDashboard(now, income, expenses), nil
}

// Dashboard 首页统计
// @Summary 首页统计
// @Description 今日与本月收入、支出、净额，本月独立客户数与美甲师排行；管理员为全店数据
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=report.Dashboard} "获取成功"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	d, err := h.build(c.Request.Context(), middleware.OwnerScope(c))
	if err != nil {
		respondError(c, err, "计算首页统计失败")
		return
	}
	Success(c, d)
}

// ManicuristDay 美甲师今日统计
// @Summary 美甲师今日统计
// @Description 当前用户关联美甲师的今日合计与客户数；未关联时按本人记录统计
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=report.ManicuristDay} "获取成功"
// @Router /api/v1/dashboard/manicurist [get]
func (h *DashboardHandler) ManicuristDay(c *gin.Context) {
	today := models.DayOf(h.now())
	f := store.Filter{Date: today}
	if id := middleware.GetIdentity(c); id != nil && id.Profile.ManicuristID != nil {
		f.ManicuristID = *id.Profile.ManicuristID
	} else {
		f.OwnerID = middleware.GetCurrentUserID(c)
	}
	rows, err := h.income.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "计算美甲师统计失败")
		return
	}
	Success(c, report.BuildManicuristDay(today, rows))
}
