package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler is the serverless health check for Vercel, independent of MongoDB
func Handler(w http.ResponseWriter, r *http.Request) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "angle",
		})
	})

	engine.ServeHTTP(w, r)
}
