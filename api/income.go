package api

import (
	"strings"

	"palmera/middleware"
	"palmera/models"
	"palmera/report"
	"palmera/service"
	"palmera/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IncomeHandler 收入记录
type IncomeHandler struct {
	store *store.IncomeStore
	form  *service.IncomeFlow
}

// NewIncomeHandler 创建收入处理器
func NewIncomeHandler(s *store.IncomeStore, form *service.IncomeFlow) *IncomeHandler {
	return &IncomeHandler{store: s, form: form}
}

type UpdateIncomeRequest struct {
	ClientName    *string          `json:"client_name" example:"Ana"`
	Price         *decimal.Decimal `json:"price" swaggertype:"string" example:"30.00"`
	PaymentMethod *string          `json:"payment_method" example:"card"`
	Date          *string          `json:"date" example:"2024-05-02"`
}

type ListQuery struct {
	From         string `form:"from" example:"2024-05-01"`
	To           string `form:"to" example:"2024-05-31"`
	Date         string `form:"date" example:"2024-05-10"`
	ManicuristID string `form:"manicurist_id"`
}

// IncomeList 列表及合计
type IncomeList struct {
	Records []models.IncomeRecord `json:"records"`
	Total   report.Money          `json:"total"`
	Count   int                   `json:"count"`
}

// filterFromQuery 解析日期过滤条件，所有者范围按当前角色
func filterFromQuery(c *gin.Context) (store.Filter, bool) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return store.Filter{}, false
	}
	f := store.Filter{OwnerID: middleware.OwnerScope(c), ManicuristID: q.ManicuristID}
	for _, p := range []struct {
		raw string
		dst *models.Day
	}{{q.From, &f.From}, {q.To, &f.To}, {q.Date, &f.Date}} {
		if p.raw == "" {
			continue
		}
		d, err := models.ParseDay(p.raw)
		if err != nil {
			BadRequest(c, "Fecha inválida, usa el formato AAAA-MM-DD")
			return store.Filter{}, false
		}
		*p.dst = d
	}
	return f, true
}

// List 收入列表
// @Summary 收入列表
// @Description 员工只能看到自己的记录，管理员看到全部；按日期倒序
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param from query string false "开始日期 (2024-05-01)"
// @Param to query string false "结束日期 (2024-05-31)"
// @Param date query string false "指定日期"
// @Param manicurist_id query string false "美甲师 ID"
// @Success 200 {object} Response{data=IncomeList} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	f, ok := filterFromQuery(c)
	if !ok {
		return
	}
	rows, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "查询收入失败")
		return
	}
	Success(c, IncomeList{Records: rows, Total: report.NewMoney(report.SumIncome(rows)), Count: len(rows)})
}

// Get 获取单条收入
// @Summary 获取单条收入
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path string true "收入ID"
// @Success 200 {object} Response{data=models.IncomeRecord} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [get]
func (h *IncomeHandler) Get(c *gin.Context) {
	r, err := h.store.Get(c.Request.Context(), c.Param("id"), middleware.OwnerScope(c))
	if err != nil {
		respondError(c, err, "查询收入失败")
		return
	}
	Success(c, r)
}

// Create 新增单条收入
// @Summary 新增单条收入
// @Description 直接写入一行收入；美甲师必须存在且在职，名称取自美甲师记录。多项服务请使用表单接口
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.IncomeEntry true "收入信息"
// @Success 201 {object} Response{data=models.IncomeRecord} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 422 {object} Response "字段校验失败"
// @Router /api/v1/incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	var entry service.IncomeEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		bindError(c, err)
		return
	}
	r, err := h.form.Record(c.Request.Context(), middleware.GetCurrentUserID(c), entry)
	if err != nil {
		respondError(c, err, "创建收入失败")
		return
	}
	Created(c, "Ingreso registrado", r)
}

// Update 修改收入
// @Summary 修改收入
// @Description 只能修改客户、价格、支付方式与日期
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "收入ID"
// @Param request body UpdateIncomeRequest true "修改内容"
// @Success 200 {object} Response{data=models.IncomeRecord} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	var req UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	var patch models.IncomePatch
	if req.ClientName != nil {
		name := strings.TrimSpace(*req.ClientName)
		if name == "" {
			BadRequest(c, "El nombre de la clienta es obligatorio")
			return
		}
		patch.ClientName = &name
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			BadRequest(c, "El precio debe ser mayor que 0")
			return
		}
		if !models.IsCents(*req.Price) {
			BadRequest(c, msgCents)
			return
		}
		patch.Price = req.Price
	}
	if req.PaymentMethod != nil {
		m, err := models.ParsePaymentMethod(*req.PaymentMethod)
		if err != nil {
			BadRequest(c, "Método de pago no válido")
			return
		}
		patch.PaymentMethod = &m
	}
	if req.Date != nil {
		d, err := models.ParseDay(*req.Date)
		if err != nil {
			BadRequest(c, "Fecha inválida, usa el formato AAAA-MM-DD")
			return
		}
		patch.Date = &d
	}
	r, err := h.store.Update(c.Request.Context(), c.Param("id"), middleware.OwnerScope(c), patch)
	if err != nil {
		respondError(c, err, "更新收入失败")
		return
	}
	SuccessWithMessage(c, "Ingreso actualizado", r)
}

// Delete 删除收入
// @Summary 删除收入
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path string true "收入ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id"), middleware.OwnerScope(c)); err != nil {
		respondError(c, err, "删除收入失败")
		return
	}
	SuccessWithMessage(c, "Ingreso eliminado", nil)
}

// SubmitForm 新增收入表单
// @Summary 提交收入表单
// @Description 每项服务一行，附加费用单独一行，同一批次在一个事务内写入
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.IncomeForm true "表单"
// @Success 201 {object} Response{data=service.IncomeResult} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 422 {object} Response "字段校验失败"
// @Router /api/v1/incomes/form [post]
func (h *IncomeHandler) SubmitForm(c *gin.Context) {
	var form service.IncomeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.form.Submit(c.Request.Context(), middleware.GetCurrentUserID(c), form)
	if err != nil {
		respondError(c, err, "提交收入表单失败")
		return
	}
	Created(c, "Ingreso registrado", res)
}
