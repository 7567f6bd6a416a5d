package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"palmera/models"
	"palmera/report"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// seedIncome 直接写入一条收入
func (s *testServer) seedIncome(t *testing.T, owner, client, manicurist, price string, day models.Day) {
	t.Helper()
	r := models.IncomeRecord{
		ClientName:     client,
		ManicuristName: manicurist,
		Price:          decimal.RequireFromString(price),
		PaymentMethod:  models.PaymentCash,
		Date:           day,
		UserID:         owner,
	}
	require.NoError(t, s.income.Create(context.Background(), &r))
}

func (s *testServer) seedExpense(t *testing.T, owner, reason, amount string, day models.Day) {
	t.Helper()
	r := models.ExpenseRecord{
		Reason:        reason,
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: models.PaymentCard,
		Date:          day,
		UserID:        owner,
	}
	require.NoError(t, s.expenses.Create(context.Background(), &r))
}

func TestAdminHandler_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "duena@palmera.es", "Dueña")
	token, _ := s.register(t, "tamar@palmera.es", "Tamar")

	for _, path := range []string{
		"/api/v1/admin/overview",
		"/api/v1/admin/reports",
		"/api/v1/admin/users",
		"/api/v1/admin/export/csv",
	} {
		w := s.do("GET", path, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
	w := s.do("GET", "/api/v1/admin/overview", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_Reports(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := s.register(t, "duena@palmera.es", "Dueña")
	_, tamarID := s.register(t, "tamar@palmera.es", "Tamar")

	s.seedIncome(t, tamarID, "Ana", "Tamar", "20.00", "2024-05-02")
	s.seedIncome(t, tamarID, "Eva", "Tamar", "15.00", "2024-05-03")
	s.seedIncome(t, adminID, "Ana", "Luna", "35.00", "2024-05-03")
	s.seedIncome(t, adminID, "Mar", "Luna", "10.00", "2024-06-01")
	s.seedExpense(t, adminID, "Material", "12.50", "2024-05-04")

	w := s.do("GET", "/api/v1/admin/reports?from=2024-05-01&to=2024-05-31", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "70.00", data["total_income"])
	assert.Equal(t, "12.50", data["total_expenses"])
	assert.Equal(t, "57.50", data["net_profit"])
	assert.EqualValues(t, 3, data["total_services"])
	assert.EqualValues(t, 2, data["total_users"])

	w = s.do("GET", "/api/v1/admin/leaderboard?from=2024-05-01&to=2024-05-31", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	standings := decode(t, w)["data"].([]interface{})
	require.Len(t, standings, 2)
	// 总额相同按名称升序
	first := standings[0].(map[string]interface{})
	second := standings[1].(map[string]interface{})
	assert.Equal(t, "Luna", first["name"])
	assert.Equal(t, "Tamar", second["name"])

	w = s.do("GET", "/api/v1/admin/reports?from=2024-05-31&to=2024-05-01", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do("GET", "/api/v1/admin/reports?from=ayer", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_Users(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := s.register(t, "duena@palmera.es", "Dueña")
	tamarToken, tamarID := s.register(t, "tamar@palmera.es", "Tamar")

	w := s.do("GET", "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].([]interface{}), 2)

	w = s.do("PUT", "/api/v1/admin/users/"+adminID+"/role", adminToken, gin.H{"role": "employee"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "不能取消自己的管理员角色")
	w = s.do("PUT", "/api/v1/admin/users/"+adminID+"/status", adminToken, gin.H{"is_active": false})
	assert.Equal(t, http.StatusBadRequest, w.Code, "不能停用自己")
	w = s.do("PUT", "/api/v1/admin/users/"+tamarID+"/role", adminToken, gin.H{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do("PUT", "/api/v1/admin/users/nadie/role", adminToken, gin.H{"role": "admin"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do("PUT", "/api/v1/admin/users/"+tamarID+"/role", adminToken, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do("GET", "/api/v1/admin/overview", tamarToken, nil)
	assert.Equal(t, http.StatusOK, w.Code, "提升后立即生效")
}

func TestExportHandler_CSV(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := s.register(t, "duena@palmera.es", "Dueña")
	s.seedIncome(t, adminID, "Ana", "Tamar", "20.00", "2024-05-02")
	s.seedIncome(t, adminID, "Eva", "Tamar", "15.50", "2024-05-03")
	s.seedIncome(t, adminID, "Mar", "Tamar", "10.00", "2024-06-01")
	s.seedExpense(t, adminID, "Material", "12.50", "2024-05-04")

	w := s.do("GET", "/api/v1/admin/export/csv?from=2024-05-01&to=2024-05-31", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ingresos_2024-05-01_2024-05-31.csv")

	body := w.Body.String()
	require.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, incomeHeaders, records[0])
	assert.Equal(t, "2024-05-03", records[1][0])
	assert.Equal(t, "15.50", records[1][3])
	assert.Equal(t, "extras", records[1][5])

	w = s.do("GET", "/api/v1/admin/export/csv?type=expenses", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	records, err = csv.NewReader(strings.NewReader(strings.TrimPrefix(w.Body.String(), "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Material", records[1][1])
	assert.Equal(t, "12.50", records[1][3])

	w = s.do("GET", "/api/v1/admin/export/csv?type=pdf", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandler_Excel(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := s.register(t, "duena@palmera.es", "Dueña")
	s.seedIncome(t, adminID, "Ana", "Tamar", "20.00", "2024-05-02")
	s.seedIncome(t, adminID, "Eva", "Tamar", "15.50", "2024-05-03")
	s.seedExpense(t, adminID, "Material", "12.50", "2024-05-04")

	w := s.do("GET", "/api/v1/admin/export/excel?from=2024-05-01&to=2024-05-31", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheetIncome, sheetExpenses}, f.GetSheetList())

	rows, err := f.GetRows(sheetIncome)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Clienta", rows[0][1])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "35.50", rows[3][3])

	rows, err = f.GetRows(sheetExpenses)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "12.50", rows[2][3])
}

func TestDashboardHandler(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := s.register(t, "duena@palmera.es", "Dueña")
	tamarToken, tamarID := s.register(t, "tamar@palmera.es", "Tamar")

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	s.dashboard.now = func() time.Time { return now }

	// 空数据
	w := s.do("GET", "/api/v1/dashboard", tamarToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["empty"])
	assert.Equal(t, report.EmptyMessage, data["empty_message"])

	s.seedIncome(t, tamarID, "Ana", "Tamar", "20.00", "2024-05-10")
	s.seedIncome(t, adminID, "Eva", "Luna", "30.00", "2024-05-02")
	s.seedExpense(t, adminID, "Material", "5.00", "2024-05-10")

	w = s.do("GET", "/api/v1/dashboard", tamarToken, nil)
	data = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "20.00", data["today_income"])
	assert.Equal(t, "20.00", data["month_income"])
	assert.Equal(t, "0.00", data["month_expenses"])

	w = s.do("GET", "/api/v1/dashboard", adminToken, nil)
	data = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "50.00", data["month_income"])
	assert.Equal(t, "45.00", data["month_net"])
	assert.Equal(t, "15.00", data["today_net"])
	assert.EqualValues(t, 2, data["unique_clients"])
	assert.Equal(t, "Luna", data["top_manicurist"])

	w = s.do("GET", "/api/v1/dashboard/manicurist", tamarToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	day := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "20.00", day["total"])
	assert.EqualValues(t, 1, day["clients"])
}
