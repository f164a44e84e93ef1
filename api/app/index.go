package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"

	"github.com/angle/backend/config"
	"github.com/angle/backend/server"
)

// Global variables for reusing connections across warm invocations
var (
	mu     sync.Mutex
	engine *gin.Engine
)

func init() {
	log.Setup(log.Msec, log.LevelBraces)
}

// Handler is the serverless function entry point for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	e, err := getEngine()
	if err != nil {
		log.Printf("[ERROR] failed to initialize services: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	e.ServeHTTP(w, r)
}

// getEngine initializes services once per cold start, retrying on the next request after a failure
func getEngine() (*gin.Engine, error) {
	mu.Lock()
	defer mu.Unlock()

	if engine != nil {
		return engine, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	srv, err := server.New(cfg)
	if err != nil {
		return nil, err
	}

	engine = srv.Engine
	log.Printf("[INFO] services initialized, env %s", cfg.AppEnv)
	return engine, nil
}
