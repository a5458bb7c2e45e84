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

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"storeapi/internal/core/auth"
	"storeapi/internal/core/cache"
	"storeapi/internal/core/config"
	"storeapi/internal/core/database"
	"storeapi/internal/core/logger"
	"storeapi/internal/core/mail"
	"storeapi/internal/core/server"
	"storeapi/internal/core/storage"
	"storeapi/internal/core/task"
	"storeapi/internal/feature/enrich"
	"storeapi/internal/feature/post"
	"storeapi/internal/feature/user"
	"storeapi/internal/repo"
	"storeapi/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.FromConfig(cfg.Log))
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx := context.Background()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DB.Driver, log); err != nil {
			log.Fatal("migrate failed", zap.Error(err))
		}
		log.Info("migrations applied")
	}

	// JWT
	codec, err := auth.NewCodec(auth.CodecOptions{
		Secret:     []byte(cfg.JWT.Secret),
		Algorithm:  cfg.JWT.Algorithm,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		ConfirmTTL: time.Duration(cfg.JWT.ConfirmTokenTTLMin) * time.Minute,
	})
	if err != nil {
		log.Fatal("jwt codec", zap.Error(err))
	}

	// 后台任务：生成图片、发邮件
	runner := task.NewRunner(log, task.Options{
		MaxInFlight: cfg.Tasks.MaxInFlight,
		Timeout:     time.Duration(cfg.Tasks.TimeoutSec) * time.Second,
	})

	// 可选组件：未启用时为 nil，调用方按未启用处理
	var feedCache *cache.Cache
	if cfg.Redis.Enabled {
		feedCache, err = cache.Connect(ctx, cache.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer func() { _ = feedCache.Close() }()
		log.Info("feed cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var uploader router.Uploader
	if cfg.Storage.Enabled {
		up, err := storage.NewUploader(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			URLExpiry: time.Duration(cfg.Storage.URLExpiryMin) * time.Minute,
		})
		if err != nil {
			log.Fatal("object storage", zap.Error(err))
		}
		uploader = up
		log.Info("object storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	var sender mail.Sender = mail.LogSender{Log: log.Named("mail")}
	if cfg.Mail.APIKey != "" {
		sender = mail.NewMailgun(mail.MailgunOptions{
			BaseURL: cfg.Mail.BaseURL,
			Domain:  cfg.Mail.Domain,
			APIKey:  cfg.Mail.APIKey,
			From:    cfg.Mail.From,
			Timeout: 10 * time.Second,
		})
	}

	// 业务
	users := user.NewService(log, repo.NewUserRepo(db), codec, auth.NewHasher(cfg.Password.Cost), runner, sender)
	postRepo := repo.NewPostRepo(db)
	var posts *post.Service
	dispatcher := enrich.NewDispatcher(enrich.Config{
		Log:    log,
		Runner: runner,
		Generator: enrich.NewDeepAI(enrich.DeepAIOptions{
			URL:     cfg.Generator.BaseURL,
			APIKey:  cfg.Generator.APIKey,
			Timeout: time.Duration(cfg.Generator.TimeoutSec) * time.Second,
		}),
		Posts:       postRepo,
		Mail:        sender,
		AfterAttach: func(ctx context.Context) { posts.InvalidateFeed(ctx) },
	})
	posts = post.NewService(log, postRepo, feedCache, time.Duration(cfg.Redis.FeedTTLSec)*time.Second, dispatcher)

	// 路由
	r := router.NewAPIEngine(router.Deps{
		Log:       log,
		Users:     users,
		Posts:     posts,
		Uploader:  uploader,
		HTTP:      cfg.App.HTTP,
		PublicURL: cfg.App.PublicURL,
	})
	if cfg.App.PublicURL == "" {
		log.Warn("app.publicURL not set, mail links fall back to the request Host header")
	}

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(addr, r, server.Timeouts{
		Read:  time.Duration(cfg.App.HTTP.ReadTimeoutSec) * time.Second,
		Write: time.Duration(cfg.App.HTTP.WriteTimeoutSec) * time.Second,
		Idle:  time.Duration(cfg.App.HTTP.IdleTimeoutSec) * time.Second,
	})

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("storeapi starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("metrics", baseURL+"/metrics"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("storeapi start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭：先停 HTTP，再等后台任务收尾
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Warn("background tasks abandoned", zap.Error(err))
	}
	log.Info("storeapi stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
