package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"palmera/models"
	"palmera/report"
	"palmera/store"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const (
	exportIncome   = "income"
	exportExpenses = "expenses"

	sheetIncome   = "Ingresos"
	sheetExpenses = "Gastos"
)

var (
	incomeHeaders  = []string{"Fecha", "Clienta", "Manicurista", "Precio", "Método de pago", "Servicio", "Lote", "Usuario"}
	expenseHeaders = []string{"Fecha", "Motivo", "Descripción", "Importe", "Método de pago", "Usuario"}
)

// ExportHandler 导出处理器，仅管理员可用，跨全部用户
type ExportHandler struct {
	income   *store.IncomeStore
	expenses *store.ExpenseStore
}

// NewExportHandler 创建导出处理器
func NewExportHandler(income *store.IncomeStore, expenses *store.ExpenseStore) *ExportHandler {
	return &ExportHandler{income: income, expenses: expenses}
}

func incomeRow(r models.IncomeRecord) []string {
	service := ""
	if r.ServiceID != nil {
		service = *r.ServiceID
	} else {
		service = "extras"
	}
	return []string{
		string(r.Date),
		r.ClientName,
		r.ManicuristName,
		report.FormatMoney(r.Price),
		string(r.PaymentMethod),
		service,
		r.BatchID,
		r.UserID,
	}
}

func expenseRow(r models.ExpenseRecord) []string {
	return []string{
		string(r.Date),
		r.Reason,
		r.Description,
		report.FormatMoney(r.Amount),
		string(r.PaymentMethod),
		r.UserID,
	}
}

// load 查询窗口内全部收入与支出
func (h *ExportHandler) load(ctx context.Context, w report.Window) ([]models.IncomeRecord, []models.ExpenseRecord, error) {
	f := store.Filter{From: w.From, To: w.To}
	income, err := h.income.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := h.expenses.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return income, expenses, nil
}

// exportName 文件名，例如 ingresos_2024-05-01_2024-05-31.csv
func exportName(prefix string, w report.Window, ext string) string {
	from, to := string(w.From), string(w.To)
	if from == "" {
		from = "inicio"
	}
	if to == "" {
		to = "hoy"
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, from, to, ext)
}

// ExportCSV 导出收入或支出为 CSV
// @Summary 导出 CSV
// @Description 按日期区间导出收入（type=income，默认）或支出（type=expenses），带 BOM 以便 Excel 正确显示
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param type query string false "income 或 expenses"
// @Param from query string false "开始日期 (2024-05-01)"
// @Param to query string false "结束日期 (2024-05-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/admin/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	kind := strings.ToLower(c.DefaultQuery("type", exportIncome))
	if kind != exportIncome && kind != exportExpenses {
		BadRequest(c, "Tipo de exportación no válido")
		return
	}
	w, ok := windowFromQuery(c)
	if !ok {
		return
	}

	f := store.Filter{From: w.From, To: w.To}
	var (
		headers []string
		rows    [][]string
		prefix  string
	)
	if kind == exportIncome {
		records, err := h.income.List(c.Request.Context(), f)
		if err != nil {
			respondError(c, err, "查询收入失败")
			return
		}
		headers, prefix = incomeHeaders, "ingresos"
		for _, r := range records {
			rows = append(rows, incomeRow(r))
		}
	} else {
		records, err := h.expenses.List(c.Request.Context(), f)
		if err != nil {
			respondError(c, err, "查询支出失败")
			return
		}
		headers, prefix = expenseHeaders, "gastos"
		for _, r := range records {
			rows = append(rows, expenseRow(r))
		}
	}

	buf := new(bytes.Buffer)
	// BOM，Excel 打开时按 UTF-8 识别
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)
	if err := writer.Write(headers); err != nil {
		InternalError(c, msgInternal)
		return
	}
	if err := writer.WriteAll(rows); err != nil {
		InternalError(c, msgInternal)
		return
	}

	filename := exportName(prefix, w, "csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出收入与支出为 Excel
// @Summary 导出 Excel
// @Description 按日期区间导出，"Ingresos" 与 "Gastos" 两个工作表，末行为合计
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param from query string false "开始日期 (2024-05-01)"
// @Param to query string false "结束日期 (2024-05-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/admin/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	w, ok := windowFromQuery(c)
	if !ok {
		return
	}
	income, expenses, err := h.load(c.Request.Context(), w)
	if err != nil {
		respondError(c, err, "查询导出数据失败")
		return
	}

	buf, err := buildWorkbook(income, expenses)
	if err != nil {
		respondError(c, err, "生成 Excel 失败")
		return
	}

	filename := exportName("palmera", w, "xlsx")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// buildWorkbook 生成两个工作表的工作簿
func buildWorkbook(income []models.IncomeRecord, expenses []models.ExpenseRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"C2185B"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("创建表头样式失败: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"F8BBD0"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return nil, fmt.Errorf("创建合计样式失败: %w", err)
	}

	incomeRows := make([][]string, 0, len(income))
	for _, r := range income {
		incomeRows = append(incomeRows, incomeRow(r))
	}
	expenseRows := make([][]string, 0, len(expenses))
	for _, r := range expenses {
		expenseRows = append(expenseRows, expenseRow(r))
	}

	if err := f.SetSheetName("Sheet1", sheetIncome); err != nil {
		return nil, fmt.Errorf("重命名工作表失败: %w", err)
	}
	if _, err := f.NewSheet(sheetExpenses); err != nil {
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]string
		amount  int
		total   string
	}{
		{sheetIncome, incomeHeaders, incomeRows, 3, report.FormatMoney(report.SumIncome(income))},
		{sheetExpenses, expenseHeaders, expenseRows, 3, report.FormatMoney(report.SumExpenses(expenses))},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.headers, s.rows, s.amount, s.total, headerStyle, totalStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return buf, nil
}

// writeSheet 写入表头、数据行与合计行；amountCol 为金额列下标
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string, amountCol int, total string, headerStyle, totalStyle int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("写入表头失败: %w", err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("设置表头样式失败: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return fmt.Errorf("设置列宽失败: %w", err)
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("写入数据失败: %w", err)
		}
	}

	totalRow := len(rows) + 2
	label, _ := excelize.CoordinatesToCellName(1, totalRow)
	amount, _ := excelize.CoordinatesToCellName(amountCol+1, totalRow)
	if err := f.SetCellValue(sheet, label, "Total"); err != nil {
		return fmt.Errorf("写入合计失败: %w", err)
	}
	if err := f.SetCellValue(sheet, amount, total); err != nil {
		return fmt.Errorf("写入合计失败: %w", err)
	}
	end, _ := excelize.CoordinatesToCellName(len(headers), totalRow)
	if err := f.SetCellStyle(sheet, label, end, totalStyle); err != nil {
		return fmt.Errorf("设置合计样式失败: %w", err)
	}
	return nil
}
