package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayquote/internal/infra/config"
	"stayquote/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Select(c *gin.Context)
}

type QuoteHTTP interface {
	Quote(c *gin.Context)
}

type HostCalendarHTTP interface {
	ImportICal(c *gin.Context)
	Refresh(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Quote        QuoteHTTP
	HostCalendar HostCalendarHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine; tests drive it through httptest.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Quote-Session"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if cfg.MetricsEnabled && obsMW.Metrics != nil {
		router.GET("/metrics", gin.WrapH(obsMW.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	if h.Availability != nil {
		api.GET("/listings/:id/calendar", h.Availability.Calendar)
		api.POST("/listings/:id/selection", h.Availability.Select)
	}
	if h.Quote != nil {
		api.POST("/listings/:id/quote", h.Quote.Quote)
	}
	if h.HostCalendar != nil {
		hostGroup := api.Group("/host/listings")
		hostGroup.PUT("/:id/calendar/ical", h.HostCalendar.ImportICal)
		hostGroup.POST("/:id/calendar/refresh", h.HostCalendar.Refresh)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
