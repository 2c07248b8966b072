package server

import (
	"net/http"
	"time"

	"ad-rewards-go/internal/api"
	"ad-rewards-go/internal/models"
	"ad-rewards-go/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Server is the HTTP surface over the points and admin services
type Server struct {
	cfg       models.ServerConfig
	auth      *Authenticator
	points    *api.PointsService
	admin     *api.AdminService
	store     store.LedgerStore
	limiter   *RateLimiter
	metrics   *Metrics
	engine    *gin.Engine
	scheduler gocron.Scheduler
}

// NewServer builds the router. The store is only used by housekeeping jobs;
// every request goes through the services.
func NewServer(cfg *models.Config, s store.LedgerStore, points *api.PointsService, admin *api.AdminService) (*Server, error) {
	auth, err := NewAuthenticator(cfg.Auth)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:     cfg.Server,
		auth:    auth,
		points:  points,
		admin:   admin,
		store:   s,
		limiter: NewRateLimiter(cfg.Server.CreditRatePerMin, cfg.Server.CreditBurst),
		metrics: NewMetrics(),
	}
	srv.engine = srv.routes()
	return srv, nil
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), s.metrics.Middleware())

	if len(s.cfg.AllowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	engine.GET("/healthz", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	user := engine.Group("/api", s.requireUser())
	user.GET("/auth/me", s.handleMe)
	user.GET("/points", s.handleGetBalance)
	user.POST("/points/credit", s.limiter.Middleware(s.metrics.rateLimited.Inc), s.handleCredit)
	user.GET("/points/ad-views", s.handleAdViews)
	user.GET("/points/history", s.handleHistory)
	user.POST("/withdrawals", s.handleSubmitWithdrawal)
	user.GET("/withdrawals", s.handleListWithdrawals)
	user.GET("/ads", s.handleListAds)

	admin := user.Group("/admin", s.requireAdmin())
	admin.GET("/users", s.handleAdminUsers)
	admin.PUT("/users/:id/points", s.handleSetPoints)
	admin.PUT("/users/:id/block", s.handleSetBlocked)
	admin.POST("/users/:id/fraud-signal", s.handleFraudSignal)
	admin.GET("/withdrawals", s.handleAdminWithdrawals)
	admin.PATCH("/withdrawals/:id", s.handleReviewWithdrawal)
	admin.GET("/stats", s.handleStats)
	admin.GET("/reconcile", s.handleReconcile)

	return engine
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Authenticator exposes token issuing for tooling and tests
func (s *Server) Authenticator() *Authenticator {
	return s.auth
}

// HTTPServer wraps the router with the configured timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
}

// requestLogger emits one zap line per request
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if user := currentUser(c); user != nil {
			fields = append(fields, zap.Int64("user_id", user.Id))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			zap.L().Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			zap.L().Warn("HTTP request", fields...)
		default:
			zap.L().Info("HTTP request", fields...)
		}
	}
}
