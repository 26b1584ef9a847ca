package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "mini-los/internal/adapter/http"
	"mini-los/internal/adapter/losapi"
	"mini-los/internal/config"
	"mini-los/internal/domain/session"
	"mini-los/internal/infrastructure/cache"
	"mini-los/internal/infrastructure/logger"
	"mini-los/internal/infrastructure/metrics"
	"mini-los/internal/usecase/admin"
	"mini-los/internal/usecase/auth"
	"mini-los/internal/usecase/workflow"
	"mini-los/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.NewForEnvironment(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	var store session.Store = cache.NewMemorySessionStore()
	var health httpadp.HealthCheck
	if cfg.SessionBackend == "redis" {
		rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatal("connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		store = cache.NewRedisSessionStore(rdb, cfg.SessionKey)
		health = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	rec := metrics.New()
	client := losapi.New(cfg.LOSBaseURL, cfg.HTTPTimeout(),
		losapi.WithLogger(log.Named("losapi")),
		losapi.WithMetrics(rec),
	)
	sessions := auth.NewManager(client, store, log.Named("auth"))
	client.UseCredentials(sessions)

	v := validation.New()
	wf := workflow.NewUsecase(client, v, log.Named("workflow"))
	apply := httpadp.NewApplyHandler(wf)
	sessions.OnEnd(apply.Detach)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator(v)
	e.Use(middleware.Logger(), middleware.Recover())

	httpadp.Register(e, sessions, httpadp.Handlers{
		Health: httpadp.NewHandler(health),
		Auth:   httpadp.NewAuthHandler(sessions),
		Apply:  apply,
		Loans:  httpadp.NewLoansHandler(wf),
		Admin:  httpadp.NewAdminHandler(admin.NewUsecase(client, wf, log.Named("admin"))),
	})
	e.GET("/metrics", echo.WrapHandler(rec.Handler()))

	addr := ":" + cfg.AppPort
	log.Info("listening", zap.String("addr", addr), zap.String("los_base_url", cfg.LOSBaseURL))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
