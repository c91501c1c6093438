// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/neighborhelp/internal/cache"
	"github.com/gurkanbulca/neighborhelp/internal/config"
	"github.com/gurkanbulca/neighborhelp/internal/database"
	"github.com/gurkanbulca/neighborhelp/internal/handler"
	"github.com/gurkanbulca/neighborhelp/internal/logger"
	"github.com/gurkanbulca/neighborhelp/internal/middleware"
	"github.com/gurkanbulca/neighborhelp/internal/render"
	"github.com/gurkanbulca/neighborhelp/internal/repository"
	"github.com/gurkanbulca/neighborhelp/internal/service"
	"github.com/gurkanbulca/neighborhelp/pkg/auth"
	"github.com/gurkanbulca/neighborhelp/pkg/email"
)

const serviceName = "neighborhelp"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(logger.Options{
		Development: !cfg.IsProduction(),
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Config{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logg.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Server.AutoMigrate {
		logg.Info("running auto migration")
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	store := repository.NewStore(db)

	nicknameCache, closeCache := newNicknameCache(ctx, cfg, logg)
	defer closeCache()

	notifier, err := newNotifier(cfg, logg)
	if err != nil {
		return err
	}

	tokenManager := auth.NewTokenManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenDuration,
		cfg.JWT.RefreshTokenDuration,
	)

	nicknames := service.NewNicknames(store.Users, nicknameCache, logg)
	taskConfig := service.TaskConfig{
		ResultLimit:        cfg.Feed.ResultLimit,
		PageSize:           cfg.Feed.PageSize,
		MyTasksPageSize:    cfg.Feed.MyTasksPageSize,
		DefaultRadiusMiles: cfg.Feed.DefaultRadiusMiles,
		LocationsLimit:     service.DefaultTaskConfig().LocationsLimit,
	}
	h := &handler.Handler{
		Tasks:         service.NewTaskService(store, nicknames, render.New(time.Local), notifier, taskConfig, logg),
		Messages:      service.NewMessageService(store, cfg.Feed.MessagePageSize, logg),
		Notifications: service.NewNotificationService(store),
		Accounts:      service.NewAccountService(store, nicknames, cfg.Feed.DefaultRadiusMiles, logg),
		Auth:          service.NewAuthService(store.Users, nicknames, tokenManager, auth.NewPasswordManager(0), cfg.Server.AdminEmails, logg),
		Ping:          store.Ping,
		Logger:        logg,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestLogger(logg),
		middleware.ExtractMetadata(),
		middleware.CORS(cfg.Server.CORSOrigins),
	)
	handler.Register(engine, h, middleware.NewAuthenticator(tokenManager))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.MetadataExtractorInterceptor(),
			middleware.LoggingInterceptor(logg),
		),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	if cfg.Server.EnableReflection {
		reflection.Register(grpcServer)
		logg.Info("gRPC reflection enabled (disable in production)")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on grpc port: %w", err)
	}

	janitor := service.NewJanitor(store, cfg.Server.CleanupInterval, logg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("http server listening", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logg.Info("grpc server listening", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		janitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("shutting down server")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	err = g.Wait()
	logg.Info("server shutdown complete")
	return err
}

// newNicknameCache uses Redis when configured and an in-process cache
// otherwise.
func newNicknameCache(ctx context.Context, cfg *config.Config, logg *zap.Logger) (cache.NicknameCache, func()) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryCache(cfg.Redis.TTL), func() {}
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	}, logg)
	if err != nil {
		logg.Warn("redis unavailable, using in-process nickname cache", zap.Error(err))
		return cache.NewMemoryCache(cfg.Redis.TTL), func() {}
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			logg.Warn("failed to close redis client", zap.Error(err))
		}
	}
}

func newNotifier(cfg *config.Config, logg *zap.Logger) (email.Notifier, error) {
	if cfg.Email.TestingMode {
		logg.Info("using mock email notifier")
		return email.NewMockNotifier(), nil
	}
	logg.Info("using SMTP email notifier", zap.String("host", cfg.Email.SMTPHost))
	return email.NewSMTPNotifier(email.Config{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.Username,
		SMTPPassword: cfg.Email.Password,
		FromEmail:    cfg.Email.FromEmail,
		FromName:     cfg.Email.FromName,
		BaseURL:      cfg.Email.BaseURL,
		AppName:      "NeighborHelp",
	})
}
