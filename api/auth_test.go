package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"palmera/database"
	"palmera/guard"
	"palmera/middleware"
	"palmera/realtime"
	"palmera/service"
	"palmera/session"
	"palmera/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// codeMailer 记录发出的验证码
type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *codeMailer) SendVerificationCode(to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[to] = code
	return nil
}

func (m *codeMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type testServer struct {
	engine      *gin.Engine
	db          *gorm.DB
	hub         *realtime.Hub
	income      *store.IncomeStore
	expenses    *store.ExpenseStore
	services    *store.ServiceStore
	manicurists *store.ManicuristStore
	profiles    *store.ProfileStore
	provider    *session.Provider
	mailer      *codeMailer
	dashboard   *DashboardHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory("")
	require.NoError(t, err)

	s := &testServer{db: db, hub: realtime.NewHub(16), mailer: &codeMailer{}}
	t.Cleanup(s.hub.Close)
	s.income = store.NewIncomeStore(db, s.hub)
	s.expenses = store.NewExpenseStore(db, s.hub)
	s.services = store.NewServiceStore(db, s.hub)
	s.manicurists = store.NewManicuristStore(db, s.hub)
	s.profiles = store.NewProfileStore(db)
	s.provider = session.NewProvider(session.Options{
		Profiles:      s.profiles,
		Verifications: store.NewVerificationStore(db),
		Mailer:        s.mailer,
		Secret:        "test-secret",
		TokenTTL:      time.Hour,
		BcryptCost:    bcrypt.MinCost,
		Logger:        zerolog.Nop(),
	})

	v := service.NewValidator()
	incomeFlow := service.NewIncomeFlow(v, s.services, s.manicurists, s.income, zerolog.Nop())
	expenseFlow := service.NewExpenseFlow(v, s.expenses, zerolog.Nop())

	authH := NewAuthHandler(s.provider)
	incomeH := NewIncomeHandler(s.income, incomeFlow)
	expenseH := NewExpenseHandler(s.expenses, expenseFlow)
	catalogH := NewCatalogHandler(s.services, s.manicurists)
	s.dashboard = NewDashboardHandler(s.income, s.expenses)
	adminH := NewAdminHandler(s.income, s.expenses, s.profiles)
	exportH := NewExportHandler(s.income, s.expenses)
	navH := NewNavigationHandler(guard.New(guard.DefaultRoutes(), time.Second), s.provider)
	rtH := NewRealtimeHandler(s.hub, s.dashboard, 20*time.Millisecond)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/sign-in", authH.SignIn)
	v1.POST("/auth/sign-up", authH.SignUp)
	v1.POST("/auth/confirm", authH.Confirm)
	v1.POST("/auth/sign-out", authH.SignOut)
	v1.GET("/navigation", navH.Decide)

	authed := v1.Group("", middleware.JWTAuth(s.provider))
	authed.GET("/session", authH.Session)
	authed.GET("/incomes", incomeH.List)
	authed.POST("/incomes", incomeH.Create)
	authed.POST("/incomes/form", incomeH.SubmitForm)
	authed.GET("/incomes/:id", incomeH.Get)
	authed.PUT("/incomes/:id", incomeH.Update)
	authed.DELETE("/incomes/:id", incomeH.Delete)
	authed.GET("/expenses", expenseH.List)
	authed.POST("/expenses", expenseH.Create)
	authed.POST("/expenses/form", expenseH.SubmitForm)
	authed.DELETE("/expenses/:id", expenseH.Delete)
	authed.GET("/services", catalogH.ListServices)
	authed.GET("/manicurists", catalogH.ListManicurists)
	authed.GET("/dashboard", s.dashboard.Dashboard)
	authed.GET("/dashboard/manicurist", s.dashboard.ManicuristDay)
	authed.GET("/realtime/dashboard", rtH.Dashboard)
	authed.GET("/realtime/:table", rtH.Changes)

	admin := authed.Group("/admin", middleware.RequireAdmin())
	admin.GET("/overview", adminH.Overview)
	admin.GET("/reports", adminH.Reports)
	admin.GET("/leaderboard", adminH.Leaderboard)
	admin.GET("/users", adminH.Users)
	admin.PUT("/users/:user_id/role", adminH.SetRole)
	admin.PUT("/users/:user_id/status", adminH.SetStatus)
	admin.POST("/services", catalogH.CreateService)
	admin.POST("/manicurists", catalogH.CreateManicurist)
	admin.GET("/export/csv", exportH.ExportCSV)
	admin.GET("/export/excel", exportH.ExportExcel)

	s.engine = r
	return s
}

// do 发送请求；token 非空时带 Bearer 头
func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// register 注册、确认并登录，返回令牌与用户 ID
func (s *testServer) register(t *testing.T, email, name string) (token, userID string) {
	t.Helper()
	w := s.do("POST", "/api/v1/auth/sign-up", "", gin.H{
		"email": email, "password": "secreto1", "confirm_password": "secreto1", "full_name": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do("POST", "/api/v1/auth/confirm", "", gin.H{"email": email, "code": s.mailer.code(email)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do("POST", "/api/v1/auth/sign-in", "", gin.H{"email": email, "password": "secreto1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data session.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Token, resp.Data.Identity.UserID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// setupMockDB sqlmock 驱动的 gorm，用于数据库失败路径
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock, func() { sqlDB.Close() }
}

func TestAuthHandler_SignUpConfirmSignIn(t *testing.T) {
	s := newTestServer(t)

	token, userID := s.register(t, "duena@palmera.es", "Dueña")
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, userID)

	w := s.do("GET", "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "duena@palmera.es", data["email"])
	profile := data["profile"].(map[string]interface{})
	assert.Equal(t, "admin", profile["role"], "第一个用户成为管理员")

	_, _ = s.register(t, "tamar@palmera.es", "Tamar")
	w = s.do("POST", "/api/v1/auth/sign-in", "", gin.H{"email": "tamar@palmera.es", "password": "secreto1"})
	require.Equal(t, http.StatusOK, w.Code)
	profile = decode(t, w)["data"].(map[string]interface{})["identity"].(map[string]interface{})["profile"].(map[string]interface{})
	assert.Equal(t, "employee", profile["role"])

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
}

func TestAuthHandler_SignUpErrors(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "duena@palmera.es", "Dueña")

	tests := []struct {
		name   string
		body   gin.H
		status int
		field  string
	}{
		{"密码太短", gin.H{"email": "a@palmera.es", "password": "123", "confirm_password": "123"}, http.StatusUnprocessableEntity, "password"},
		{"两次密码不一致", gin.H{"email": "a@palmera.es", "password": "secreto1", "confirm_password": "secreto2"}, http.StatusUnprocessableEntity, "confirm_password"},
		{"已注册", gin.H{"email": "duena@palmera.es", "password": "secreto1", "confirm_password": "secreto1"}, http.StatusUnauthorized, ""},
		{"邮箱格式错误", gin.H{"email": "no-es-email", "password": "secreto1", "confirm_password": "secreto1"}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do("POST", "/api/v1/auth/sign-up", "", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.field != "" {
				errs := decode(t, w)["errors"].(map[string]interface{})
				assert.Contains(t, errs, tt.field)
			}
		})
	}
}

func TestAuthHandler_SignInErrors(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "duena@palmera.es", "Dueña")

	w := s.do("POST", "/api/v1/auth/sign-in", "", gin.H{"email": "duena@palmera.es", "password": "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	msg, _ := session.Message(session.ErrInvalidCredentials)
	assert.Equal(t, msg, decode(t, w)["message"])

	// 未确认邮箱
	w = s.do("POST", "/api/v1/auth/sign-up", "", gin.H{"email": "nueva@palmera.es", "password": "secreto1", "confirm_password": "secreto1"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do("POST", "/api/v1/auth/sign-in", "", gin.H{"email": "nueva@palmera.es", "password": "secreto1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	msg, _ = session.Message(session.ErrEmailNotConfirmed)
	assert.Equal(t, msg, decode(t, w)["message"])

	// 错误验证码
	w = s.do("POST", "/api/v1/auth/confirm", "", gin.H{"email": "nueva@palmera.es", "code": "000000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	msg, _ = session.Message(session.ErrInvalidCode)
	assert.Equal(t, msg, decode(t, w)["message"])
}

func TestAuthHandler_SignOutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "duena@palmera.es", "Dueña")

	w := s.do("POST", "/api/v1/auth/sign-out", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, guard.AuthPath, data["redirect"])
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			assert.True(t, c.MaxAge < 0)
		}
	}

	w = s.do("GET", "/api/v1/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_InactiveUser(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register(t, "duena@palmera.es", "Dueña")
	token, userID := s.register(t, "tamar@palmera.es", "Tamar")

	w := s.do("PUT", "/api/v1/admin/users/"+userID+"/status", adminToken, gin.H{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do("GET", "/api/v1/incomes", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("POST", "/api/v1/auth/sign-in", "", gin.H{"email": "tamar@palmera.es", "password": "secreto1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNavigationHandler_Decide(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.register(t, "duena@palmera.es", "Dueña")
	token, _ := s.register(t, "tamar@palmera.es", "Tamar")

	tests := []struct {
		name    string
		token   string
		path    string
		outcome string
		target  string
	}{
		{"未登录访问首页", "", "/", "redirect", guard.AuthPath},
		{"员工访问管理页", token, "/admin/reports", "redirect", "/income/new"},
		{"管理员访问管理页", adminToken, "/admin/reports", "allow", ""},
		{"未知页面", token, "/no-existe", "not_found", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do("GET", "/api/v1/navigation?path="+tt.path, tt.token, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			data := decode(t, w)["data"].(map[string]interface{})
			assert.Equal(t, tt.outcome, data["outcome"])
			if tt.target != "" {
				assert.Equal(t, tt.target, data["target"])
			}
		})
	}
}

func TestGetCookieOptions(t *testing.T) {
	secure, sameSite := getCookieOptions()
	assert.False(t, secure)
	assert.Equal(t, http.SameSiteLaxMode, sameSite)
}
