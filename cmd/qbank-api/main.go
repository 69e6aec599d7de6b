package main

import (
	"context"
	"fmt"
	"log"

	_ "github.com/sibaso/qbank-api/api/swagger"
	"github.com/sibaso/qbank-api/internal/handler"
	"github.com/sibaso/qbank-api/internal/repository"
	"github.com/sibaso/qbank-api/internal/router"
	"github.com/sibaso/qbank-api/internal/service"
	"github.com/sibaso/qbank-api/pkg/cache"
	"github.com/sibaso/qbank-api/pkg/config"
	"github.com/sibaso/qbank-api/pkg/database"
	"github.com/sibaso/qbank-api/pkg/logger"
	"github.com/sibaso/qbank-api/pkg/storage"
)

// @title Question Bank API
// @version 1.0.0
// @description Question bank management backend for lecturers and admins
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database, logr)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("uploads storage init failed", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	courseTagRepo := repository.NewCourseTagRepository(db)
	materialTagRepo := repository.NewMaterialTagRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	setRepo := repository.NewQuestionSetRepository(db)
	fileRepo := repository.NewFileRepository(db)
	historyRepo := repository.NewQuestionHistoryRepository(db)
	packageRepo := repository.NewQuestionPackageRepository(db)

	audit := service.NewAuditService(auditRepo, logr, cfg.Audit.Workers, cfg.Audit.BufferSize)
	audit.Start(context.Background())
	defer audit.Stop()

	var cacheSvc *service.CacheService
	if cacheRepo != nil {
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dropdown.CacheTTL, logr, true)
	}

	authSvc := service.NewAuthService(userRepo, audit, cfg.JWT, logr)
	userSvc := service.NewUserService(userRepo, audit, logr)
	dropdownSvc := service.NewDropdownService(courseTagRepo, materialTagRepo, cacheSvc, cfg.Dropdown.CacheTTL, logr)
	courseTagSvc := service.NewTagService(courseTagRepo, dropdownSvc, logr)
	materialTagSvc := service.NewTagService(materialTagRepo, dropdownSvc, logr)
	questionSvc := service.NewQuestionService(questionRepo, courseTagRepo, materialTagRepo, logr)
	setSvc := service.NewQuestionSetService(setRepo, fileRepo, store, logr)
	fileSvc := service.NewFileService(fileRepo, setRepo, store, signer, cfg.Uploads, logr)
	historySvc := service.NewQuestionHistoryService(historyRepo, setRepo, logr)
	packageSvc := service.NewQuestionPackageService(packageRepo, courseTagRepo, setRepo, logr)

	engine := router.New(cfg, logr, authSvc, metrics, router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc),
		CourseTags:   handler.NewTagHandler(courseTagSvc),
		MaterialTags: handler.NewTagHandler(materialTagSvc),
		Questions:    handler.NewQuestionHandler(questionSvc),
		Sets:         handler.NewQuestionSetHandler(setSvc),
		Files:        handler.NewFileHandler(fileSvc),
		History:      handler.NewQuestionHistoryHandler(historySvc),
		Packages:     handler.NewQuestionPackageHandler(packageSvc),
		Dropdown:     handler.NewDropdownHandler(dropdownSvc),
		Metrics:      handler.NewMetricsHandler(metrics),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := engine.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
