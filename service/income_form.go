// Package service 表单流程、邮件与定时任务
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"palmera/metrics"
	"palmera/models"
	"palmera/report"
	"palmera/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// 提交成功后的跳转目标
const (
	IncomeListPath  = "/income"
	ExpenseListPath = "/expenses"
)

// IncomeLine 一项服务
type IncomeLine struct {
	ServiceID string           `json:"service_id" validate:"required"`
	Price     *decimal.Decimal `json:"price" validate:"omitempty,gt=0,cents" swaggertype:"string" example:"15.00"`
}

// IncomeForm 新增收入表单：多项服务加可选的附加费用
type IncomeForm struct {
	ClientName    string           `json:"client_name" validate:"required,max=120" example:"Ana"`
	ManicuristID  string           `json:"manicurist_id" validate:"required"`
	PaymentMethod string           `json:"payment_method" validate:"required,payment_method" example:"cash"`
	Date          string           `json:"date" validate:"required,datetime=2006-01-02" example:"2024-05-01"`
	Lines         []IncomeLine     `json:"lines" validate:"dive"`
	Extras        *decimal.Decimal `json:"extras" validate:"omitempty,gte=0,cents" swaggertype:"string" example:"5.00"`
}

// IncomeEntry 直接新增的单条收入；美甲师名称取自美甲师记录
type IncomeEntry struct {
	ClientName    string          `json:"client_name" validate:"required,max=120" example:"Ana"`
	ManicuristID  string          `json:"manicurist_id" validate:"required"`
	ServiceID     string          `json:"service_id"`
	Price         decimal.Decimal `json:"price" validate:"gt=0,cents" swaggertype:"string" example:"25.00"`
	PaymentMethod string          `json:"payment_method" validate:"required,payment_method" example:"cash"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02" example:"2024-05-01"`
}

// IncomeResult 提交结果
type IncomeResult struct {
	Rows     []models.IncomeRecord `json:"rows"`
	Total    report.Money          `json:"total"`
	Redirect string                `json:"redirect"`
}

// ServiceCatalog 服务目录查询
type ServiceCatalog interface {
	GetMany(ctx context.Context, ids []string) (map[string]models.Service, error)
}

// ManicuristDirectory 美甲师查询
type ManicuristDirectory interface {
	Get(ctx context.Context, id string) (*models.Manicurist, error)
}

// IncomeWriter 批量写入收入
type IncomeWriter interface {
	CreateBatch(ctx context.Context, rows []models.IncomeRecord) error
}

// IncomeFlow 收入表单流程
type IncomeFlow struct {
	validator   *Validator
	services    ServiceCatalog
	manicurists ManicuristDirectory
	income      IncomeWriter
	log         zerolog.Logger
}

// NewIncomeFlow 创建收入表单流程
func NewIncomeFlow(v *Validator, services ServiceCatalog, manicurists ManicuristDirectory, income IncomeWriter, log zerolog.Logger) *IncomeFlow {
	return &IncomeFlow{
		validator:   v,
		services:    services,
		manicurists: manicurists,
		income:      income,
		log:         log.With().Str("form", "income").Logger(),
	}
}

// Submit 校验并写入一次提交的所有行，全部成功或全部回滚
func (f *IncomeFlow) Submit(ctx context.Context, ownerID string, form IncomeForm) (*IncomeResult, error) {
	res, err := f.submit(ctx, ownerID, form)
	metrics.FormSubmissionsTotal.WithLabelValues("income", formResult(err)).Inc()
	return res, err
}

func (f *IncomeFlow) submit(ctx context.Context, ownerID string, form IncomeForm) (*IncomeResult, error) {
	form.ClientName = strings.TrimSpace(form.ClientName)
	if errs := f.validator.Struct(form); len(errs) > 0 {
		return nil, errs
	}
	hasExtras := form.Extras != nil && form.Extras.IsPositive()
	if len(form.Lines) == 0 && !hasExtras {
		return nil, FieldErrors{"lines": "Añade al menos un servicio o un importe de extras"}
	}

	method, _ := models.ParsePaymentMethod(form.PaymentMethod)
	day, _ := models.ParseDay(form.Date)

	m, err := f.activeManicurist(ctx, form.ManicuristID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(form.Lines))
	for _, l := range form.Lines {
		ids = append(ids, l.ServiceID)
	}
	catalog, err := f.services.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询服务目录失败: %w", err)
	}

	batchID := uuid.NewString()
	template := models.IncomeRecord{
		ClientName:     form.ClientName,
		ManicuristID:   &m.ID,
		ManicuristName: m.Name,
		PaymentMethod:  method,
		BatchID:        batchID,
		Date:           day,
		UserID:         ownerID,
	}

	errs := FieldErrors{}
	rows := make([]models.IncomeRecord, 0, len(form.Lines)+1)
	for i, l := range form.Lines {
		svc, ok := catalog[l.ServiceID]
		if !ok || !visibleTo(svc, ownerID) {
			errs[fmt.Sprintf("lines[%d].service_id", i)] = "Servicio no encontrado"
			continue
		}
		price := l.Price
		if price == nil {
			price = svc.DefaultPrice
		}
		if price == nil || !price.IsPositive() {
			errs[fmt.Sprintf("lines[%d].price", i)] = "Indica un precio: el servicio no tiene precio por defecto"
			continue
		}
		row := template
		row.ServiceID = &svc.ID
		row.Price = *price
		rows = append(rows, row)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if hasExtras {
		row := template
		row.Price = *form.Extras
		rows = append(rows, row)
	}

	if err := f.income.CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("保存收入失败: %w", err)
	}
	total := report.SumIncome(rows)
	f.log.Info().
		Str("batch_id", batchID).
		Int("rows", len(rows)).
		Str("total", report.FormatMoney(total)).
		Msg("收入表单已提交")
	return &IncomeResult{Rows: rows, Total: report.NewMoney(total), Redirect: IncomeListPath}, nil
}

// Record 校验并写入一条收入
func (f *IncomeFlow) Record(ctx context.Context, ownerID string, entry IncomeEntry) (*models.IncomeRecord, error) {
	res, err := f.record(ctx, ownerID, entry)
	metrics.FormSubmissionsTotal.WithLabelValues("income_entry", formResult(err)).Inc()
	return res, err
}

func (f *IncomeFlow) record(ctx context.Context, ownerID string, entry IncomeEntry) (*models.IncomeRecord, error) {
	entry.ClientName = strings.TrimSpace(entry.ClientName)
	entry.ServiceID = strings.TrimSpace(entry.ServiceID)
	if errs := f.validator.Struct(entry); len(errs) > 0 {
		return nil, errs
	}
	method, _ := models.ParsePaymentMethod(entry.PaymentMethod)
	day, _ := models.ParseDay(entry.Date)

	m, err := f.activeManicurist(ctx, entry.ManicuristID)
	if err != nil {
		return nil, err
	}

	row := models.IncomeRecord{
		ClientName:     entry.ClientName,
		Price:          entry.Price,
		ManicuristID:   &m.ID,
		ManicuristName: m.Name,
		PaymentMethod:  method,
		BatchID:        uuid.NewString(),
		Date:           day,
		UserID:         ownerID,
	}
	if entry.ServiceID != "" {
		catalog, err := f.services.GetMany(ctx, []string{entry.ServiceID})
		if err != nil {
			return nil, fmt.Errorf("查询服务目录失败: %w", err)
		}
		svc, ok := catalog[entry.ServiceID]
		if !ok || !visibleTo(svc, ownerID) {
			return nil, FieldErrors{"service_id": "Servicio no encontrado"}
		}
		row.ServiceID = &svc.ID
	}

	rows := []models.IncomeRecord{row}
	if err := f.income.CreateBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("保存收入失败: %w", err)
	}
	return &rows[0], nil
}

// activeManicurist 美甲师必须存在且在职
func (f *IncomeFlow) activeManicurist(ctx context.Context, id string) (*models.Manicurist, error) {
	m, err := f.manicurists.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, FieldErrors{"manicurist_id": "Manicurista no encontrada"}
	}
	if err != nil {
		return nil, fmt.Errorf("查询美甲师失败: %w", err)
	}
	if !m.IsActive {
		return nil, FieldErrors{"manicurist_id": "La manicurista está inactiva"}
	}
	return m, nil
}

// visibleTo 全局服务或本人创建的服务
func visibleTo(svc models.Service, ownerID string) bool {
	return svc.UserID == nil || ownerID == "" || *svc.UserID == ownerID
}

func formResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
