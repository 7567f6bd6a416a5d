package router

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"palmera/api"
	"palmera/config"
	_ "palmera/docs"
	"palmera/guard"
	"palmera/middleware"
	"palmera/realtime"
	"palmera/service"
	"palmera/session"
	"palmera/store"
	"palmera/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	slowRequest      = time.Second
	defaultCoalesce  = 200 * time.Millisecond
	pageNotFoundText = "Página no encontrada"
)

// Deps 路由依赖
type Deps struct {
	Stores   *store.Set
	Hub      *realtime.Hub
	Provider *session.Provider
	Limiter  *middleware.RateLimiter
	Logger   zerolog.Logger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger, slowRequest))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s := deps.Stores
	v := service.NewValidator()
	incomeFlow := service.NewIncomeFlow(v, s.Services, s.Manicurists, s.Income, deps.Logger)
	expenseFlow := service.NewExpenseFlow(v, s.Expenses, deps.Logger)
	g := guard.New(guard.DefaultRoutes(), cfg.Guard.ResolveTimeout)

	window := cfg.Realtime.CoalesceWindow
	if window <= 0 {
		window = defaultCoalesce
	}

	authHandler := api.NewAuthHandler(deps.Provider)
	incomeHandler := api.NewIncomeHandler(s.Income, incomeFlow)
	expenseHandler := api.NewExpenseHandler(s.Expenses, expenseFlow)
	catalogHandler := api.NewCatalogHandler(s.Services, s.Manicurists)
	dashboardHandler := api.NewDashboardHandler(s.Income, s.Expenses)
	adminHandler := api.NewAdminHandler(s.Income, s.Expenses, s.Profiles)
	exportHandler := api.NewExportHandler(s.Income, s.Expenses)
	navigationHandler := api.NewNavigationHandler(g, deps.Provider)
	realtimeHandler := api.NewRealtimeHandler(deps.Hub, dashboardHandler, window)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			limited := auth.Group("")
			if deps.Limiter != nil {
				limited.Use(middleware.LoginRateLimit(deps.Limiter))
			}
			limited.POST("/sign-in", authHandler.SignIn)
			limited.POST("/sign-up", authHandler.SignUp)
			limited.POST("/confirm", authHandler.Confirm)
			auth.POST("/sign-out", authHandler.SignOut)
		}

		v1.GET("/navigation", navigationHandler.Decide)
		v1.GET("/navigation/routes", navigationHandler.Routes)

		authed := v1.Group("")
		authed.Use(middleware.JWTAuth(deps.Provider))
		{
			authed.GET("/session", authHandler.Session)

			authed.GET("/incomes", incomeHandler.List)
			authed.POST("/incomes", incomeHandler.Create)
			authed.POST("/incomes/form", incomeHandler.SubmitForm)
			authed.GET("/incomes/:id", incomeHandler.Get)
			authed.PUT("/incomes/:id", incomeHandler.Update)
			authed.DELETE("/incomes/:id", incomeHandler.Delete)

			authed.GET("/expenses", expenseHandler.List)
			authed.POST("/expenses", expenseHandler.Create)
			authed.POST("/expenses/form", expenseHandler.SubmitForm)
			authed.GET("/expenses/:id", expenseHandler.Get)
			authed.DELETE("/expenses/:id", expenseHandler.Delete)

			authed.GET("/services", catalogHandler.ListServices)
			authed.GET("/manicurists", catalogHandler.ListManicurists)

			authed.GET("/dashboard", dashboardHandler.Dashboard)
			authed.GET("/dashboard/manicurist", dashboardHandler.ManicuristDay)

			authed.GET("/realtime/dashboard", realtimeHandler.Dashboard)
			authed.GET("/realtime/:table", realtimeHandler.Changes)

			admin := authed.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/overview", adminHandler.Overview)
				admin.GET("/reports", adminHandler.Reports)
				admin.GET("/leaderboard", adminHandler.Leaderboard)
				admin.GET("/users", adminHandler.Users)
				admin.PUT("/users/:user_id/role", adminHandler.SetRole)
				admin.PUT("/users/:user_id/status", adminHandler.SetStatus)

				admin.POST("/services", catalogHandler.CreateService)
				admin.PUT("/services/:id", catalogHandler.UpdateService)
				admin.DELETE("/services/:id", catalogHandler.DeleteService)
				admin.POST("/manicurists", catalogHandler.CreateManicurist)
				admin.PUT("/manicurists/:id", catalogHandler.UpdateManicurist)
				admin.DELETE("/manicurists/:id", catalogHandler.DeleteManicurist)

				admin.GET("/export/csv", exportHandler.ExportCSV)
				admin.GET("/export/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 前端页面：经守卫判定后返回内嵌外壳
	staticFS, _ := fs.Sub(web.StaticFS, ".")
	shell := servePage(staticFS, web.ShellPage, http.StatusOK)
	pageGuard := middleware.PageGuard(g, deps.Provider, deps.Logger)
	for _, route := range g.Routes() {
		r.GET(route.Path, pageGuard, shell)
	}

	notFoundPage := servePage(staticFS, web.NotFoundPage, http.StatusNotFound)
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			api.NotFound(c, "Recurso no encontrado.")
			return
		}
		notFoundPage(c)
	})

	return r
}

func servePage(staticFS fs.FS, name string, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		content, err := fs.ReadFile(staticFS, name)
		if err != nil {
			c.String(http.StatusInternalServerError, pageNotFoundText)
			return
		}
		c.Data(status, "text/html; charset=utf-8", content)
	}
}

// corsMiddleware 未配置来源时放行全部来源，此时不允许携带凭证
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
