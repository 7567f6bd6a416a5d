package service

import (
	"context"
	"fmt"
	"strings"

	"palmera/metrics"
	"palmera/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ExpenseForm 新增支出表单
type ExpenseForm struct {
	Reason        string          `json:"reason" validate:"required,max=120" example:"Material"`
	Description   string          `json:"description" validate:"max=255"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0,cents" swaggertype:"string" example:"12.50"`
	PaymentMethod string          `json:"payment_method" validate:"required,payment_method" example:"card"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02" example:"2024-05-01"`
}

// ExpenseResult 提交结果
type ExpenseResult struct {
	Record   models.ExpenseRecord `json:"record"`
	Redirect string               `json:"redirect"`
}

// ExpenseWriter 写入支出
type ExpenseWriter interface {
	Create(ctx context.Context, r *models.ExpenseRecord) error
}

// ExpenseFlow 支出表单流程
type ExpenseFlow struct {
	validator *Validator
	expenses  ExpenseWriter
	log       zerolog.Logger
}

// NewExpenseFlow 创建支出表单流程
func NewExpenseFlow(v *Validator, expenses ExpenseWriter, log zerolog.Logger) *ExpenseFlow {
	return &ExpenseFlow{validator: v, expenses: expenses, log: log.With().Str("form", "expense").Logger()}
}

// Submit 校验并写入一条支出
func (f *ExpenseFlow) Submit(ctx context.Context, ownerID string, form ExpenseForm) (*ExpenseResult, error) {
	res, err := f.submit(ctx, ownerID, form)
	metrics.FormSubmissionsTotal.WithLabelValues("expense", formResult(err)).Inc()
	return res, err
}

func (f *ExpenseFlow) submit(ctx context.Context, ownerID string, form ExpenseForm) (*ExpenseResult, error) {
	form.Reason = strings.TrimSpace(form.Reason)
	form.Description = strings.TrimSpace(form.Description)
	if errs := f.validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}
	method, _ := models.ParsePaymentMethod(form.PaymentMethod)
	day, _ := models.ParseDay(form.Date)

	rec := models.ExpenseRecord{
		Reason:        form.Reason,
		Description:   form.Description,
		Amount:        form.Amount,
		PaymentMethod: method,
		Date:          day,
		UserID:        ownerID,
	}
	if err := f.expenses.Create(ctx, &rec); err != nil {
		return nil, fmt.Errorf("保存支出失败: %w", err)
	}
	f.log.Info().Str("id", rec.ID).Str("amount", rec.Amount.StringFixed(2)).Msg("支出表单已提交")
	return &ExpenseResult{Record: rec, Redirect: ExpenseListPath}, nil
}
