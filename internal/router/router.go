package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/opd-scheduler/internal/handler"
	authHandler "github.com/jwalitptl/opd-scheduler/internal/handler/auth"
	closureHandler "github.com/jwalitptl/opd-scheduler/internal/handler/closure"
	doctorHandler "github.com/jwalitptl/opd-scheduler/internal/handler/doctor"
	eventsHandler "github.com/jwalitptl/opd-scheduler/internal/handler/events"
	messageHandler "github.com/jwalitptl/opd-scheduler/internal/handler/message"
	opsHandler "github.com/jwalitptl/opd-scheduler/internal/handler/ops"
	scheduleHandler "github.com/jwalitptl/opd-scheduler/internal/handler/schedule"
	"github.com/jwalitptl/opd-scheduler/internal/middleware"
	"github.com/jwalitptl/opd-scheduler/internal/model"
)

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware

	h         *handler.Handler
	authH     *authHandler.Handler
	doctorH   *doctorHandler.Handler
	scheduleH *scheduleHandler.Handler
	closureH  *closureHandler.Handler
	messageH  *messageHandler.Handler
	eventsH   *eventsHandler.Handler
	opsH      *opsHandler.Handler

	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

type Config struct {
	RateLimit     rate.Limit
	RateBurst     int
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	authH *authHandler.Handler,
	doctorH *doctorHandler.Handler,
	scheduleH *scheduleHandler.Handler,
	closureH *closureHandler.Handler,
	messageH *messageHandler.Handler,
	eventsH *eventsHandler.Handler,
	opsH *opsHandler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	handler.RegisterValidations()

	r := &Router{
		engine:    engine,
		auth:      auth,
		h:         h,
		authH:     authH,
		doctorH:   doctorH,
		scheduleH: scheduleH,
		closureH:  closureH,
		messageH:  messageH,
		eventsH:   eventsH,
		opsH:      opsH,
		metrics:   initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)

	// Public routes: login, webhook, read-only schedule views, SSE.
	r.authH.RegisterRoutes(api)
	r.messageH.RegisterRoutes(api)
	r.eventsH.RegisterRoutes(api)
	r.scheduleH.RegisterRoutes(api)
	r.closureH.RegisterRoutes(api)

	// Protected routes: directory management, ops, account admin.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.doctorH.RegisterRoutes(protected)
	r.opsH.RegisterRoutes(protected)

	admin := protected.Group("")
	admin.Use(r.auth.RequireRoles(model.RoleAdmin))
	r.scheduleH.RegisterAdminRoutes(admin)
	r.authH.RegisterAdminRoutes(admin)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	if prefix == "" {
		prefix = "opd"
	}
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
