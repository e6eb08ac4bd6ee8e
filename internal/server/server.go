package server

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/videosnatcherz/snatcher/internal/config"
	"github.com/videosnatcherz/snatcher/internal/mailer"
	"github.com/videosnatcherz/snatcher/internal/media"
	"github.com/videosnatcherz/snatcher/internal/progress"
)

// Response is the standard API response structure for errors and simple
// acknowledgements.
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// Server is the HTTP server for snatcher. All collaborators are injected so
// tests can swap the extraction engine, tracker, and mailer.
type Server struct {
	cfg     *config.Config
	fetcher *media.Fetcher
	tracker *progress.Tracker
	mailer  *mailer.Mailer
	engine  *gin.Engine
	server  *http.Server

	// progressExpiry is how long a finished download's record stays pollable.
	progressExpiry time.Duration
	// progressTick and maxEmptyTicks drive the SSE polling loop; tests
	// shrink them.
	progressTick  time.Duration
	maxEmptyTicks int
}

// New creates a server from its collaborators.
func New(cfg *config.Config, fetcher *media.Fetcher, tracker *progress.Tracker, m *mailer.Mailer) *Server {
	s := &Server{
		cfg:            cfg,
		fetcher:        fetcher,
		tracker:        tracker,
		mailer:         m,
		progressExpiry: 60 * time.Second,
		progressTick:   100 * time.Millisecond,
		maxEmptyTicks:  300,
	}
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(s.loggingMiddleware())
	engine.Use(s.corsMiddleware())
	engine.Use(s.headersMiddleware())

	engine.SetHTMLTemplate(template.Must(template.ParseFS(webFS, "web/templates/*.html")))
	engine.StaticFS("/static", http.FS(staticFS()))

	// Pages
	engine.GET("/", s.page("home.html", "Home"))
	engine.GET("/downloader", s.page("downloader.html", "Downloader"))
	engine.GET("/features", s.page("features.html", "Features"))
	engine.GET("/about", s.page("about.html", "About"))
	engine.GET("/faq", s.page("faq.html", "FAQ"))
	engine.GET("/privacy", s.page("privacy.html", "Privacy"))
	engine.GET("/contact", s.page("contact.html", "Contact"))

	// API
	api := engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/download", s.handleDownload)
	api.POST("/stream-audio", s.handleStreamAudio)
	api.GET("/progress/:download_id", s.handleProgress)
	api.GET("/metadata", s.handleMetadata)
	api.POST("/get-download-url", s.handleGetDownloadURL)
	api.POST("/contact", s.handleContact)

	return engine
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the HTTP server until Stop or a listener error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // downloads and progress streams are long-lived
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting snatcher server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Middleware

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// headersMiddleware sets security headers on every response and cache
// headers on static assets: a year of immutable caching in production,
// no caching otherwise.
func (s *Server) headersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")

		if strings.HasPrefix(c.Request.URL.Path, "/static/") {
			if s.cfg.Production() {
				c.Header("Cache-Control", "public, max-age=31536000, immutable")
			} else {
				c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
				c.Header("Pragma", "no-cache")
				c.Header("Expires", "0")
			}
		}
		c.Next()
	}
}

// page renders one of the embedded HTML templates.
func (s *Server) page(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{
			"Title":         title,
			"StaticVersion": StaticVersion,
		})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    gin.H{"status": "ok"},
		Message: "everything is good",
	})
}

// apiError answers a classified media failure with its HTTP status.
func apiError(c *gin.Context, err error) {
	me := media.AsError(err)
	status := errorStatus(me.Kind)
	c.JSON(status, Response{
		Code:    status,
		Data:    nil,
		Message: me.Message,
	})
}

func errorStatus(kind media.ErrorKind) int {
	switch kind {
	case media.KindInvalidInput, media.KindContentUnavailable, media.KindExtractionFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// badRequest answers a plain validation failure.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    400,
		Data:    nil,
		Message: msg,
	})
}
