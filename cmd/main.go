package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pageforge/config"
	"pageforge/internal/ai"
	"pageforge/internal/api"
	"pageforge/internal/resolve"
	"pageforge/internal/session"
	"pageforge/pkg/logger"
)

func main() {
	// Load .env before viper reads the environment. Missing .env is the
	// normal case in production.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatalf("cannot load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Infof("model=%s contract=%s streaming=%t", cfg.ModelID, cfg.ResponseContract, cfg.StreamResponses)

	contract, err := resolve.ForName(cfg.ResponseContract)
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	client := ai.NewClient(&cfg)
	controller := session.New(client, contract, cfg.StreamResponses)
	handler := api.NewHandler(controller)

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsCfg))

	api.RegisterRoutes(router, handler)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
		// The write timeout must cover an entire streamed generation, which
		// can run for minutes on complex prompts.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("starting server on %s", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Infof("received signal %s, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("forced shutdown: %v", err)
	}
	logger.Infof("server stopped")
}
