package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"

	"github.com/angle/backend/config"
	"github.com/angle/backend/handlers"
	"github.com/angle/backend/services"
)

// Server holds the wired engine and the connections it owns
type Server struct {
	Engine *gin.Engine

	mongo    *services.MongoDBService
	firebase *services.FirebaseService
}

// New connects to MongoDB, builds every service and registers the routes
func New(cfg *config.Config) (*Server, error) {
	mongoService, err := services.NewMongoDBService(cfg.MongoDBURI, cfg.MongoDBName, cfg.EpisodeCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}

	srv := &Server{mongo: mongoService}

	// Firebase is optional
	if cfg.HasFirebase() {
		firebaseService, err := services.NewFirebaseService(cfg.FirebaseCredentials, cfg.FirebaseStorageBucket)
		if err != nil {
			log.Printf("[WARN] Firebase initialization failed: %v", err)
		} else {
			srv.firebase = firebaseService
		}
	}

	srv.Engine, err = srv.build(cfg, mongoService)
	if err != nil {
		srv.Close()
		return nil, err
	}
	return srv, nil
}

func (s *Server) build(cfg *config.Config, db services.EpisodeSource) (*gin.Engine, error) {
	var source services.EpisodeSource = db
	if cfg.EpisodeCache {
		source = services.NewCachedEpisodeSource(db, cfg.EpisodeCacheTTL)
		log.Printf("[INFO] episode cache enabled, ttl %s", cfg.EpisodeCacheTTL)
	}

	// a missing shell only disables crawler pages
	renderer, err := services.NewRenderer(cfg.ShellPath, source, cfg.SiteName)
	if err != nil {
		log.Printf("[ERROR] crawler pages disabled, %v", err)
		renderer = nil
	}

	imgOpts := services.ImageOptions{SiteName: cfg.SiteName, BackgroundObject: cfg.OGBackgroundObject}
	if s.firebase != nil {
		imgOpts.Assets = s.firebase
	}
	images, err := services.NewImageGenerator(source, imgOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image generator: %w", err)
	}

	h := handlers.NewHandler(handlers.Options{
		Source:                   source,
		Renderer:                 renderer,
		Images:                   images,
		Exports:                  services.NewExportService(source, cfg.SiteName),
		SiteURL:                  cfg.SiteURL,
		Dev:                      cfg.IsDevelopment(),
		SitemapIncludeCategories: cfg.SitemapIncludeCategories,
	})

	engine := NewEngine(cfg)
	h.Register(engine)
	return engine, nil
}

// NewEngine creates a gin engine with request logging in development only
func NewEngine(cfg *config.Config) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.IsDevelopment() {
		return gin.Default()
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine
}

// Close releases database and storage connections
func (s *Server) Close() {
	if s.firebase != nil {
		if err := s.firebase.Close(); err != nil {
			log.Printf("[WARN] can't close Firebase, %v", err)
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Close(); err != nil {
			log.Printf("[WARN] can't close MongoDB, %v", err)
		}
	}
}
