package api

import (
	"context"       // Health check timeout
	"fmt"           // Error wrapping
	"html/template" // Page templates
	"io/fs"         // Embedded static files
	"net/http"      // HTTP status codes
	"time"          // Timeouts

	"finance_portfolio/internal/config"     // Configuration
	"finance_portfolio/internal/ledger"     // Transactions and balances
	"finance_portfolio/internal/middleware" // Middleware
	"finance_portfolio/internal/portfolio"  // Watchlist
	"finance_portfolio/internal/quotes"     // Price lookups
	"finance_portfolio/internal/realtime"   // Live balance updates
	"finance_portfolio/web"                 // Embedded templates and assets

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the services the router wires into handlers
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redis.Client // Optional
	Ledger    *ledger.Service
	Portfolio *portfolio.Service
	Quotes    *quotes.Client
	Hub       *realtime.Hub
	Limiter   *middleware.RateLimiter
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	t, err := template.New("pages").Funcs(TemplateFuncs()).ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// NewRouter builds the gin engine with every route
func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static files: %w", err)
	}

	r := gin.New()
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), middleware.SecurityHeaders(middleware.DefaultHeadersConfig()))
	if len(d.Config.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.Config.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))
	r.NoRoute(middleware.LoadSession(d.Config.JWTSecret), notFound)

	r.GET("/health", HealthHandler(d.DB, d.Redis))

	auth := AuthConfig{Secret: d.Config.JWTSecret, SessionTTL: d.Config.SessionTTL, Secure: d.Config.IsProd}
	limit := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware()
	}

	// Auth routes
	public := r.Group("/", middleware.LoadSession(d.Config.JWTSecret))
	public.GET("/login/", LoginPageHandler())
	public.POST("/login/", limit, LoginHandler(d.DB, auth))
	public.GET("/signup/", SignupPageHandler())
	public.POST("/signup/", limit, SignupHandler(d.DB))
	public.GET("/logout/", LogoutHandler(auth))
	public.POST("/logout/", LogoutHandler(auth))

	// Personal routes (protected by the session cookie)
	app := r.Group("/", middleware.RequireSession(d.Config.JWTSecret))
	app.GET("/", DashboardHandler(d.Ledger))

	txs := app.Group("/transactions")
	txs.GET("/", ListTransactionsHandler(d.Ledger))
	txs.GET("/add/", NewTransactionPageHandler())
	txs.POST("/add/", CreateTransactionHandler(d.Ledger))
	txs.GET("/budget/", BudgetPageHandler(d.Ledger))
	txs.POST("/budget/", UpdateBudgetHandler(d.Ledger))
	txs.GET("/:id/edit/", EditTransactionPageHandler(d.Ledger))
	txs.POST("/:id/edit/", UpdateTransactionHandler(d.Ledger))
	txs.GET("/:id/delete/", DeleteTransactionPageHandler(d.Ledger))
	txs.POST("/:id/delete/", DeleteTransactionHandler(d.Ledger))

	wl := app.Group("/watchlist")
	wl.GET("/", ListWatchlistHandler(d.Portfolio))
	wl.GET("/add/", NewWatchlistPageHandler())
	wl.POST("/add/", CreateWatchlistHandler(d.Portfolio))
	wl.GET("/:id/", WatchlistDetailHandler(d.Portfolio, d.Quotes))
	wl.GET("/:id/edit/", EditWatchlistPageHandler(d.Portfolio))
	wl.POST("/:id/edit/", UpdateWatchlistHandler(d.Portfolio))
	wl.GET("/:id/delete/", DeleteWatchlistPageHandler(d.Portfolio))
	wl.POST("/:id/delete/", DeleteWatchlistHandler(d.Portfolio))
	wl.POST("/:id/refresh/", RefreshPriceHandler(d.Portfolio))

	if d.Hub != nil {
		app.GET("/ws/", d.Hub.HandleWS)
	}

	// Admin routes (protected, admin only)
	admin := r.Group("/admin", middleware.RequireSessionJSON(d.Config.JWTSecret), middleware.AdminOnlyMiddleware(d.DB))
	admin.GET("/users", ListUsersHandler(d.DB, d.Redis))
	admin.GET("/transactions", ListAllTransactionsHandler(d.DB, d.Redis))

	return r, nil
}

// HealthHandler reports whether the database and cache answer
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status = http.StatusServiceUnavailable
			body["status"], body["database"] = "unavailable", "unavailable"
		}
		if rdb != nil {
			body["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				body["redis"] = "unavailable" // Caching degrades, the app keeps working
			}
		}
		c.JSON(status, body)
	}
}
