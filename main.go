package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/angle/backend/config"
	"github.com/angle/backend/server"
)

var opts struct {
	Port    string `short:"p" long:"port" description:"listen port, overrides PORT"`
	Dev     bool   `long:"dev" description:"development mode, overrides APP_ENV"`
	EnvFile string `short:"e" long:"env-file" default:".env" description:"dotenv file to load"`
	Dbg     bool   `long:"dbg" env:"DEBUG" description:"show debug info"`
}

func main() {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		p.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	if opts.Dbg {
		log.Setup(log.Debug, log.CallerFile, log.Msec, log.LevelBraces)
	} else {
		log.Setup(log.Msec, log.LevelBraces)
	}

	// Load configuration
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		log.Fatalf("[ERROR] failed to load config: %v", err)
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	if opts.Dev {
		cfg.AppEnv = "development"
		cfg.GinMode = "debug"
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("[ERROR] failed to initialize services: %v", err)
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown failed, %v", err)
		}
	}()

	log.Printf("[INFO] starting Angle server on port %s (env %s)", cfg.Port, cfg.AppEnv)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[ERROR] server failed: %v", err)
	}
}
