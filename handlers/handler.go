package handlers

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"

	"github.com/angle/backend/services"
)

const (
	cacheImageDefault  = "public, max-age=3600, s-maxage=86400"
	cacheImageEpisode  = "public, max-age=31536000, immutable"
	cacheSitemap       = "public, max-age=3600"
	cachePage          = "public, max-age=0, s-maxage=300"
	contentTypeHTML    = "text/html; charset=utf-8"
	contentTypeXML     = "application/xml; charset=utf-8"
	contentTypeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF     = "application/pdf"
	genericServerError = "Internal server error"
)

// Options holds the collaborators of Handler
type Options struct {
	Source   services.EpisodeSource
	Renderer *services.Renderer // nil when the shell could not be loaded
	Images   *services.ImageGenerator
	Exports  *services.ExportService

	SiteURL                  string // fallback base URL when the request carries no host
	Dev                      bool
	SitemapIncludeCategories bool
}

// Handler serves the JSON API, crawler pages, preview images and sitemap
type Handler struct {
	opts Options
}

// NewHandler creates a new handler
func NewHandler(opts Options) *Handler {
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	return &Handler{opts: opts}
}

// envelope is the uniform JSON response shape
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Success: false, Error: msg})
}

// fail converts a service error to a JSON error response
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found")
		return
	case errors.Is(err, services.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("[ERROR] %s %s failed, %v", c.Request.Method, c.Request.URL.Path, err)
	msg := genericServerError
	if h.opts.Dev {
		msg = err.Error()
	}
	respondError(c, http.StatusInternalServerError, msg)
}

// pageFailure redirects crawlers home, or shows diagnostics in development
func (h *Handler) pageFailure(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidInput) {
		log.Printf("[DEBUG] %s redirected home, %v", c.Request.URL.Path, err)
		c.Redirect(http.StatusFound, "/")
		return
	}

	log.Printf("[ERROR] render %s failed, %v", c.Request.URL.Path, err)
	if h.opts.Dev {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"stack":   string(debug.Stack()),
		})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// baseURL builds the absolute site origin of the request
func (h *Handler) baseURL(c *gin.Context) string {
	host := firstValue(c.GetHeader("X-Forwarded-Host"))
	if host == "" {
		host = c.Request.Host
	}
	if host == "" {
		return h.opts.SiteURL
	}

	proto := firstValue(c.GetHeader("X-Forwarded-Proto"))
	if proto == "" {
		proto = "http"
		if c.Request.TLS != nil {
			proto = "https"
		}
	}
	return proto + "://" + host
}

func firstValue(header string) string {
	if i := strings.IndexByte(header, ','); i >= 0 {
		header = header[:i]
	}
	return strings.TrimSpace(header)
}

// CORS sets permissive cross-origin headers and answers preflight requests
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
