package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "clubportal/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"clubportal/internal/access"
	"clubportal/internal/auth"
	"clubportal/internal/cache"
	"clubportal/internal/config"
	"clubportal/internal/db"
	"clubportal/internal/handler"
	"clubportal/internal/repository"
	"clubportal/internal/router"
	"clubportal/internal/service"
	"clubportal/internal/storage"
)

// @title Club Portal API
// @version 1.0
// @description Club membership, roles, forms, projects and public site content.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.DBDebug)
	if err != nil {
		fatal(logger, "database init", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		models := db.Models()
		for i := len(models) - 1; i >= 0; i-- {
			if err := gormDB.Migrator().DropTable(models[i]); err != nil {
				logger.Warn("drop table failed (may not exist)", slog.Any("error", err))
			}
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		fatal(logger, "migrate", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	var objects storage.ObjectStorage
	if cfg.Minio.Endpoint != "" {
		mc, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			fatal(logger, "object storage init", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = mc.EnsureBucket(ctx)
		cancel()
		if err != nil {
			fatal(logger, "object storage bucket", err)
		}
		objects = mc
	} else {
		logger.Warn("MINIO_ENDPOINT not set, image uploads are disabled")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	sigRepo := repository.NewSigRepository(gormDB)
	auditRepo := repository.NewAuditLogRepository(gormDB)
	formRepo := repository.NewFormRepository(gormDB)
	projectRepo := repository.NewProjectRepository(gormDB)
	contentRepo := repository.NewContentRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	evaluator := access.NewEvaluator(userRepo, logger)

	// Initialize services
	auditService := service.NewAuditService(auditRepo, logger)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, evaluator, auditService)
	userService := service.NewUserService(userRepo, roleRepo, sigRepo, evaluator, auditService, cacheClient)
	roleService := service.NewRoleService(roleRepo, auditService)
	sigService := service.NewSigService(sigRepo, auditService)
	formService := service.NewFormService(formRepo)
	projectService := service.NewProjectService(projectRepo, evaluator, logger)
	presenceService := service.NewPresenceService(projectRepo, cacheClient)
	contentService := service.NewContentService(contentRepo, objects)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, jwtService, authService, evaluator, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Users:    handler.NewUserHandler(userService, contentService),
		Roles:    handler.NewRoleHandler(roleService),
		Sigs:     handler.NewSigHandler(sigService),
		Audit:    handler.NewAuditHandler(auditService),
		Forms:    handler.NewFormHandler(formService),
		Projects: handler.NewProjectHandler(projectService, presenceService),
		Content:  handler.NewContentHandler(contentService, evaluator),
	})

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "localhost:5000"
	}
	if !strings.HasPrefix(swaggerHost, "http://") && !strings.HasPrefix(swaggerHost, "https://") {
		swaggerHost = "http://" + swaggerHost
	}
	logger.Info("swagger documentation available", slog.String("url", swaggerHost+"/swagger/index.html"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server start", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
