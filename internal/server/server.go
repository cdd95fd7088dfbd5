package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymdesk/internal/auth"
	"gymdesk/internal/config"
	"gymdesk/internal/email"
	"gymdesk/internal/ledger"
	"gymdesk/internal/member"
	"gymdesk/internal/report"
	"gymdesk/internal/session"
	"gymdesk/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	userRepo := user.NewRepository(db)
	memberRepo := member.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	sessionRepo := session.NewRepository(db)
	reportRepo := report.NewRepository(db)

	ledgerService := ledger.NewService(ledgerRepo, userRepo, memberRepo)
	memberService := member.NewService(memberRepo, userRepo, ledgerRepo, emailService, cfg.DefaultMemberPassword)
	sessionService := session.NewService(sessionRepo, memberRepo)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	memberHandler := member.NewHandler(memberService, memberRepo, userRepo, sessionRepo, ledgerService)
	ledgerHandler := ledger.NewHandler(ledgerService, userRepo)
	sessionHandler := session.NewHandler(sessionService, userRepo)
	reportHandler := report.NewHandler(reportRepo)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", memberHandler.Me)
		protected.GET("/me/balance-logs", ledgerHandler.MyBalanceLogs)
		protected.GET("/me/sessions", sessionHandler.MySessions)
		protected.POST("/time/toggle", sessionHandler.Toggle)
		protected.GET("/time/status", sessionHandler.Status)
		protected.GET("/time/live-balance", sessionHandler.LiveBalance)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/members", memberHandler.List)
		admin.POST("/members", memberHandler.Create)
		admin.PUT("/members/:memberID", memberHandler.Update)
		admin.DELETE("/members/:memberID", memberHandler.Delete)
		admin.POST("/members/:memberID/renew", memberHandler.Renew)
		admin.POST("/members/:memberID/toggle-status", memberHandler.ToggleStatus)
		admin.POST("/members/remind-expiring", memberHandler.RemindExpiring)

		admin.GET("/balances", ledgerHandler.ListBalances)
		admin.POST("/users/:userID/balance", ledgerHandler.UpdateBalance)
		admin.GET("/users/:userID/balance-logs", ledgerHandler.Outstanding)
		admin.POST("/users/:userID/mark-paid", ledgerHandler.MarkPaid)
		admin.POST("/transactions", ledgerHandler.StoreTransaction)
		admin.GET("/users/:userID/summary", memberHandler.UserSummary)
		admin.POST("/scan/:userID", sessionHandler.Scan)

		admin.GET("/reports/daily", reportHandler.Daily)
		admin.GET("/reports/monthly", reportHandler.Monthly)
		admin.GET("/reports/annual", reportHandler.Annual)
		admin.GET("/reports/attendance", reportHandler.Attendance)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
