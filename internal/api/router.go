// Package api exposes OCR sessions over HTTP with gin.
//
// A client creates a session, uploads images, optionally changes the
// language selection and format options, starts a batch, follows its
// progress as a server-sent event stream and downloads exports.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ocrdoc/internal/logger"
	"ocrdoc/internal/session"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Config configures the router.
type Config struct {
	AllowedOrigins []string // "*" allows every origin
	MaxUploadBytes int64
	ExportBaseName string
	Version        string
}

// Handler serves the session API.
type Handler struct {
	sessions *session.Manager
	cfg      Config
	// baseCtx outlives requests; background batches run under it.
	baseCtx context.Context
}

// NewHandler creates a handler. Batches started over HTTP are canceled when
// baseCtx is done.
func NewHandler(baseCtx context.Context, sessions *session.Manager, cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	return &Handler{sessions: sessions, cfg: cfg, baseCtx: baseCtx}
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors(h.cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"service":  "ocrdoc",
			"version":  h.cfg.Version,
			"sessions": h.sessions.Len(),
		})
	})

	v1 := router.Group("/api/v1")
	v1.GET("/languages", h.listLanguages)
	v1.POST("/sessions", h.createSession)

	s := v1.Group("/sessions/:id", h.loadSession)
	s.GET("", h.getSession)
	s.DELETE("", h.deleteSession)
	s.POST("/images", h.uploadImages)
	s.DELETE("/images", h.clearImages)
	s.DELETE("/images/:index", h.removeImage)
	s.PUT("/languages", h.setLanguages)
	s.PUT("/options", h.setOptions)
	s.POST("/process", h.process)
	s.GET("/progress", h.streamProgress)
	s.GET("/results", h.results)
	s.GET("/text", h.combinedText)
	s.GET("/export/:format", h.export)
	s.POST("/reset", h.reset)

	return router
}

// requestLogger tags each request with an ID, attaches a request logger to
// the request context and logs the outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		log := logger.WithRequestID(id)
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))

		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

// cors answers preflight requests and sets the allow-origin header for
// permitted origins.
func cors(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[strings.TrimSuffix(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && set[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, "+RequestIDHeader)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
