package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"

	"github.com/angle/backend/services"
)

const contentTypePNG = "image/png"

func writeImage(c *gin.Context, data []byte, cacheControl string) {
	c.Header("Cache-Control", cacheControl)
	c.Data(http.StatusOK, contentTypePNG, data)
}

// DefaultImage serves the branded site preview
func (h *Handler) DefaultImage(c *gin.Context) {
	data, err := h.opts.Images.Default(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	writeImage(c, data, cacheImageDefault)
}

// EpisodeImage serves the preview of one episode; unknown or failing
// episodes get the default image with a short cache lifetime
func (h *Handler) EpisodeImage(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "Episode ID is required")
		return
	}

	data, specific, err := h.opts.Images.Episode(c.Request.Context(), id)
	if err != nil {
		h.imageFailure(c, err)
		return
	}
	if specific {
		writeImage(c, data, cacheImageEpisode)
		return
	}
	writeImage(c, data, cacheImageDefault)
}

// CategoryImage serves the preview of a category page
func (h *Handler) CategoryImage(c *gin.Context) {
	segment := strings.TrimSpace(c.Param("category"))
	if segment == "" {
		respondError(c, http.StatusBadRequest, "Category is required")
		return
	}

	data, err := h.opts.Images.Category(c.Request.Context(), segment)
	if err != nil {
		h.imageFailure(c, err)
		return
	}
	writeImage(c, data, cacheImageDefault)
}

func (h *Handler) imageFailure(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidInput) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("[WARN] image %s failed, %v", c.Request.URL.Path, err)
	h.fail(c, err)
}
