package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"coin-tracker/internal/archiver"
	"coin-tracker/internal/config"
	apphttp "coin-tracker/internal/http"
	"coin-tracker/internal/repository/sqlite"
	"coin-tracker/internal/service"
	"coin-tracker/internal/session"
	"coin-tracker/internal/storage"
	"coin-tracker/internal/tenant"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Session.Secret) == "" {
		logger.Fatalf("session secret is required")
	}
	if strings.TrimSpace(cfg.Superadmin.Email) == "" {
		logger.Fatalf("superadmin email is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(filepath.Join(cfg.Database.Dir, "main.db"))
	if err != nil {
		logger.Fatalf("open credential store: %v", err)
	}
	defer db.Close()

	accountRepo := sqlite.NewAccountRepository(db)
	if err := accountRepo.Init(ctx); err != nil {
		logger.Fatalf("init account repository: %v", err)
	}

	tenants := tenant.NewManager(cfg.Database.Dir)
	defer tenants.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}

	sessions := session.NewManager(redisClient, cfg.Session.Secret,
		time.Duration(cfg.Session.TTLMinutes)*time.Minute)

	var (
		storageSvc storage.Service
		archives   archiver.Manager
	)
	if cfg.Storage.Bucket != "" {
		storageSvc, err = buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		archives = archiver.NewManager(archiver.Config{
			UploadOptions: storage.UploadOptions{
				Bucket:    cfg.Storage.Bucket,
				KeyPrefix: cfg.Storage.KeyPrefix,
			},
			Logger: logger,
		}, storageSvc)
		archives.Start(ctx)
	} else {
		logger.Info("storage bucket not configured, snapshot archival disabled")
	}

	templates, err := apphttp.Templates()
	if err != nil {
		logger.Fatalf("parse templates: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(templates)

	handler := apphttp.NewHandler(apphttp.Config{
		Accounts:   service.NewAccountService(accountRepo),
		Coins:      service.NewCoinService(),
		Tenants:    tenants,
		Sessions:   sessions,
		CookieName: cfg.Session.CookieName,
		Superadmin: cfg.Superadmin.Email,
		Storage:    storageSvc,
		Archives:   archives,
		Bucket:     cfg.Storage.Bucket,
		KeyPrefix:  cfg.Storage.KeyPrefix,
		Logger:     logger,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if archives != nil {
		archives.Shutdown()
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
