package handlers

import (
	"github.com/gin-gonic/gin"
)

// Register installs every route on the engine
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.HomePage)
	r.HEAD("/", h.HomePage)
	r.GET("/episode/:id", h.EpisodePage)
	r.HEAD("/episode/:id", h.EpisodePage)

	r.GET("/sitemap.xml", CORS(), h.Sitemap)
	r.OPTIONS("/sitemap.xml", CORS())

	api := r.Group("/api", CORS())
	{
		api.OPTIONS("/*path", func(*gin.Context) {})
		api.GET("/health", h.Health)

		api.GET("/episodes", h.ListEpisodes)
		api.GET("/episodes/:id", h.GetEpisode)
		api.GET("/categories", h.ListCategories)
		api.GET("/sitemap", h.Sitemap)

		api.GET("/og-image", h.DefaultImage)
		api.GET("/og-image/:id", h.EpisodeImage)
		api.GET("/og-image/category", h.CategoryImage) // no segment, answered with 400
		api.GET("/og-image/category/:category", h.CategoryImage)

		if h.opts.Exports != nil {
			api.GET("/export/episodes.xlsx", h.ExportExcel)
			api.GET("/export/episodes.pdf", h.ExportPDF)
		}
	}

	r.NoRoute(h.CategoryPage)
}
