package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"pokedex/internal/client/pokeapi"
	"pokedex/internal/config"
	cronrunner "pokedex/internal/cron"
	"pokedex/internal/db"
	"pokedex/internal/handler"
	"pokedex/internal/logger"
	gormrepository "pokedex/internal/repository/gorm"
	"pokedex/internal/service"

	_ "pokedex/docs"
)

func main() {
	cfgPath := os.Getenv("PD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PD_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	apiHTTP := &http.Client{Timeout: cfg.PokeAPI.Timeout}
	apiClient := pokeapi.NewClient(apiHTTP, cfg.PokeAPI.BaseURL)
	store := gormrepository.New(dbConn.Gorm)

	resolver := &service.Resolver{Store: store, API: apiClient, Logger: logger}
	fetchService := &service.FetchService{Store: store, API: apiClient, Logger: logger}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(requestLogger(logger))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	pokemonHandler := &handler.PokemonHandler{
		Resolver: resolver,
		Fetch:    fetchService,
		Logger:   logger,
	}
	pokemonHandler.Register(engine)
	typeHandler := &handler.TypeHandler{Resolver: resolver, Logger: logger}
	typeHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		limit := cfg.Fetch.PageLimit
		maxPages := cfg.Fetch.MaxPages
		resume := cfg.Fetch.Resume
		_, err = cronRunner.Add(cfg.Cron.PokemonFetch, func(ctx context.Context) {
			result, err := fetchService.FetchAndStore(ctx, service.FetchOptions{
				Limit:    limit,
				MaxPages: maxPages,
				Resume:   resume,
			})
			if err != nil {
				logger.Warn("cron pokemon fetch failed", zap.Error(err))
				return
			}
			logger.Info("cron pokemon fetch done",
				zap.Bool("success", result.Success),
				zap.Int("count", result.Count),
				zap.Int("failed", result.Failed),
				zap.Int("next_offset", result.NextOffset),
			)
		})
		if err != nil {
			logger.Warn("cron register pokemon fetch failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
