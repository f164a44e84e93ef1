package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/angle/backend/services"
)

func (h *Handler) writePage(c *gin.Context, page []byte) {
	c.Header("Cache-Control", cachePage)
	c.Data(http.StatusOK, contentTypeHTML, page)
}

// HomePage serves the shell with site-wide preview metadata
func (h *Handler) HomePage(c *gin.Context) {
	if h.opts.Renderer == nil {
		h.homeFailure(c, fmt.Errorf("%w: shell not loaded", services.ErrRenderUnavailable))
		return
	}
	page, err := h.opts.Renderer.Home(h.baseURL(c))
	if err != nil {
		h.homeFailure(c, err)
		return
	}
	h.writePage(c, page)
}

// homeFailure cannot redirect to itself, so it reports a plain server error
func (h *Handler) homeFailure(c *gin.Context, err error) {
	if h.opts.Dev {
		h.pageFailure(c, err)
		return
	}
	h.fail(c, err)
}

// CategoryPage serves a top-level category path such as /health or /new.
// It is installed as the fallback route, so anything that is not a single
// non-reserved segment is answered with an ordinary 404.
func (h *Handler) CategoryPage(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || path == "/api" {
		respondError(c, http.StatusNotFound, "Not found")
		return
	}

	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}

	segment := strings.Trim(path, "/")
	if segment == "" || strings.Contains(segment, "/") || services.IsReservedSegment(segment) {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}

	if h.opts.Renderer == nil {
		h.pageFailure(c, fmt.Errorf("%w: shell not loaded", services.ErrRenderUnavailable))
		return
	}
	page, _, err := h.opts.Renderer.Category(c.Request.Context(), h.baseURL(c), segment)
	if err != nil {
		h.pageFailure(c, err)
		return
	}
	h.writePage(c, page)
}

// EpisodePage serves /episode/:id with the episode's preview metadata
func (h *Handler) EpisodePage(c *gin.Context) {
	if h.opts.Renderer == nil {
		h.pageFailure(c, fmt.Errorf("%w: shell not loaded", services.ErrRenderUnavailable))
		return
	}
	page, _, err := h.opts.Renderer.Episode(c.Request.Context(), h.baseURL(c), c.Param("id"))
	if err != nil {
		h.pageFailure(c, err)
		return
	}
	h.writePage(c, page)
}
