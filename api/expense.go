package api

import (
	"palmera/middleware"
	"palmera/models"
	"palmera/report"
	"palmera/service"
	"palmera/store"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 支出记录，只支持新增、查询与删除
type ExpenseHandler struct {
	store *store.ExpenseStore
	form  *service.ExpenseFlow
}

// NewExpenseHandler 创建支出处理器
func NewExpenseHandler(s *store.ExpenseStore, form *service.ExpenseFlow) *ExpenseHandler {
	return &ExpenseHandler{store: s, form: form}
}

// ExpenseList 列表及合计
type ExpenseList struct {
	Records []models.ExpenseRecord `json:"records"`
	Total   report.Money           `json:"total"`
	Count   int                    `json:"count"`
}

// List 支出列表
// @Summary 支出列表
// @Description 员工只能看到自己的记录，管理员看到全部；按日期倒序
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param from query string false "开始日期 (2024-05-01)"
// @Param to query string false "结束日期 (2024-05-31)"
// @Param date query string false "指定日期"
// @Success 200 {object} Response{data=ExpenseList} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	rows, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "查询支出失败")
		return
	}
	Success(c, ExpenseList{Records: rows, Total: report.NewMoney(report.SumExpenses(rows)), Count: len(rows)})
}

// Get 获取单条支出
// @Summary 获取单条支出
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path string true "支出ID"
// @Success 200 {object} Response{data=models.ExpenseRecord} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	r, err := h.store.Get(c.Request.Context(), c.Param("id"), middleware.OwnerScope(c))
	if err != nil {
		respondError(c, err, "查询支出失败")
		return
	}
	Success(c, r)
}

// Create 新增支出
// @Summary 新增支出
// @Description 与表单接口使用相同的校验，返回写入的记录
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ExpenseForm true "支出信息"
// @Success 201 {object} Response{data=models.ExpenseRecord} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 422 {object} Response "字段校验失败"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var form service.ExpenseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.form.Submit(c.Request.Context(), middleware.GetCurrentUserID(c), form)
	if err != nil {
		respondError(c, err, "创建支出失败")
		return
	}
	Created(c, "Gasto registrado", res.Record)
}

// Delete 删除支出
// @Summary 删除支出
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path string true "支出ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id"), middleware.OwnerScope(c)); err != nil {
		respondError(c, err, "删除支出失败")
		return
	}
	SuccessWithMessage(c, "Gasto eliminado", nil)
}

// SubmitForm 新增支出表单
// @Summary 提交支出表单
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ExpenseForm true "表单"
// @Success 201 {object} Response{data=service.ExpenseResult} "创建成功"
// @Failure 422 {object} Response "字段校验失败"
// @Router /api/v1/expenses/form [post]
func (h *ExpenseHandler) SubmitForm(c *gin.Context) {
	var form service.ExpenseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.form.Submit(c.Request.Context(), middleware.GetCurrentUserID(c), form)
	if err != nil {
		respondError(c, err, "提交支出表单失败")
		return
	}
	Created(c, "Gasto registrado", res)
}
