package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"schoolhub/onboard/internal/config"
	"schoolhub/onboard/internal/handler"
	"schoolhub/onboard/internal/model"
	"schoolhub/onboard/internal/repository"
	"schoolhub/onboard/internal/service"
	jwtpkg "schoolhub/onboard/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize preview cache (Redis or in-memory)
	var cache repository.CacheStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cache = repository.NewRedisCacheStore(redisClient)
		logger.Info("using Redis cache store")
	case "memory":
		cache = repository.NewMemoryCacheStore()
		logger.Info("using in-memory cache store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 6. Initialize repository
	codeRepo := repository.NewPGCodeRepository(db)

	// 7. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)

	// 8. Initialize services
	generator := service.NewGenerator(cfg.Code.Length, cfg.Code.MaxGenerateAttempts)
	codeService := service.NewCodeService(codeRepo, cache, generator, cfg.Code.DefaultLeadDuration, cfg.Code.PreviewCacheTTL)
	redeemService := service.NewRedeemService(codeRepo, cfg.Code.ExpiryTolerance)

	// Mail dispatch is optional; issuance works without it.
	var mailer *service.CodeMailer
	if cfg.SMTP.Enabled {
		sender, err := service.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logger.Fatal("failed to init smtp sender", zap.Error(err))
		}
		mailer = service.NewCodeMailer(sender, cfg.Code.RedemptionURL, logger)
		logger.Info("SMTP sender initialized", zap.String("host", cfg.SMTP.Host))
	}

	// 9. Initialize handlers
	codeHandler := handler.NewCodeHandler(codeService, mailer)
	redeemHandler := handler.NewRedeemHandler(redeemService)
	adminHandler := handler.NewAdminHandler(codeService)

	// 10. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, codeHandler, redeemHandler, adminHandler)

	// 11. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 12. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
