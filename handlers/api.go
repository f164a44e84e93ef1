package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/angle/backend/services"
)

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "angle"})
}

// ListEpisodes returns all completed episodes, newest first
func (h *Handler) ListEpisodes(c *gin.Context) {
	episodes, err := h.opts.Source.ListEpisodes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if episodes == nil {
		episodes = []services.Episode{}
	}
	respondOK(c, episodes)
}

// GetEpisode returns a single completed episode
func (h *Handler) GetEpisode(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.fail(c, fmt.Errorf("%w: episode id is required", services.ErrInvalidInput))
		return
	}

	ep, err := h.opts.Source.GetEpisode(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ep == nil {
		respondError(c, http.StatusNotFound, "Episode not found")
		return
	}
	respondOK(c, ep)
}

// ListCategories returns the sorted distinct categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.opts.Source.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondOK(c, categories)
}

// Sitemap renders the XML sitemap, degrading to the home page entry on failure
func (h *Handler) Sitemap(c *gin.Context) {
	data := services.BuildSitemap(c.Request.Context(), h.opts.Source, services.SitemapOptions{
		BaseURL:           h.baseURL(c),
		IncludeCategories: h.opts.SitemapIncludeCategories,
	})
	c.Header("Cache-Control", cacheSitemap)
	c.Data(http.StatusOK, contentTypeXML, data)
}

// ExportExcel downloads the episode catalog workbook
func (h *Handler) ExportExcel(c *gin.Context) {
	data, filename, err := h.opts.Exports.ExportToExcel(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentTypeXLSX, data)
}

// ExportPDF downloads the episode catalog as PDF
func (h *Handler) ExportPDF(c *gin.Context) {
	data, filename, err := h.opts.Exports.ExportToPDF(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentTypePDF, data)
}
