// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggofiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-helpdesk-backend/docs"
	"github.com/tbourn/go-helpdesk-backend/internal/config"
	"github.com/tbourn/go-helpdesk-backend/internal/http/handlers"
	"github.com/tbourn/go-helpdesk-backend/internal/http/middleware"
	"github.com/tbourn/go-helpdesk-backend/internal/integrations"
	"github.com/tbourn/go-helpdesk-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), compression, CORS
// and security headers, health and metrics endpoints, static serving of
// uploaded files, and then mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip compression
//  8. CORS and security headers
//
// The per-IP rate limiter is scoped to the public submission endpoint only;
// staff routes are not throttled.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (8 MiB; uploads carry images)
	r.Use(limitBody(8 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress responses. /metrics stays uncompressed for scrapers.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Uploaded images are served straight from disk.
	r.Static("/uploads", cfg.UploadDir)

	// API documentation (off unless explicitly enabled)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginswagger.WrapHandler(swaggofiles.Handler))
	}

	// Dependency injection: services ← db + outbound dispatchers
	httpClient := &http.Client{Timeout: cfg.IntegrationTimeout}

	loc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		log.Warn().Str("tz", cfg.DisplayTimezone).Err(err).Msg("unknown display timezone, using UTC")
		loc = time.UTC
	}

	ticketSvc := &services.TicketService{
		DB: db,
		Notifier: &integrations.SlackNotifier{
			DB:            db,
			Client:        httpClient,
			PublicBaseURL: cfg.PublicBaseURL,
		},
		IssueSync: &integrations.JiraClient{
			DB:     db,
			Client: httpClient,
		},
		DisplayLocation: loc,
	}
	kbSvc := &services.KnowledgeBaseService{DB: db}
	integrationSvc := &services.IntegrationService{DB: db}
	h := handlers.New(ticketSvc, kbSvc, integrationSvc, cfg.UploadDir)

	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Tickets (staff)
		api.GET("/tickets", h.ListTickets)
		api.POST("/tickets", h.CreateTicket)
		api.GET("/tickets/:id", h.GetTicket)
		api.PUT("/tickets/:id", h.UpdateTicket)
		api.DELETE("/tickets/:id", h.DeleteTicket)

		// Public submission form, throttled per IP
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
		pub := api.Group("/public")
		pub.Use(rl.Handler())
		pub.POST("/tickets", h.SubmitPublicTicket)

		// Integrations
		api.GET("/integrations/:name", h.GetIntegration)
		api.PUT("/integrations/:name", h.UpdateIntegration)

		// Knowledge base
		api.GET("/kb/topics", h.ListTopics)
		api.POST("/kb/topics", h.CreateTopic)
		api.DELETE("/kb/topics/:id", h.DeleteTopic)
		api.POST("/kb/articles", h.CreateArticle)
		api.GET("/kb/articles/:id", h.GetArticle)
		api.GET("/kb/articles/:id/edit", h.GetArticleForEdit)
		api.PUT("/kb/articles/:id", h.UpdateArticle)
		api.DELETE("/kb/articles/:id", h.DeleteArticle)
		api.GET("/kb/search", h.SearchArticles)

		// Image uploads for article bodies
		api.POST("/uploads", h.UploadFile)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
