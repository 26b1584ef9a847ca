package main

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	idem "mini-los/internal/adapter/middleware"
	"mini-los/internal/adapter/repository/mysql"
	"mini-los/internal/config"
	"mini-los/internal/domain/session"
	"mini-los/internal/infrastructure/cache"
	infradb "mini-los/internal/infrastructure/db"
	"mini-los/internal/infrastructure/logger"
	"mini-los/internal/sandbox"
	"mini-los/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.NewForEnvironment(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()
	if err := cfg.ValidateSandbox(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	var db *gorm.DB
	switch cfg.SandboxDB {
	case "mysql":
		db, err = infradb.OpenMySQL(cfg.MySQLDSN(), infradb.WithLogger(log.Named("db")))
	default:
		db, err = infradb.OpenSQLite(cfg.SQLitePath, infradb.WithLogger(log.Named("db")))
	}
	if err != nil {
		log.Fatal("open database", zap.String("driver", cfg.SandboxDB), zap.Error(err))
	}
	if err := mysql.Migrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	bureau := sandbox.NewStaticBureau(cfg.KYCPass, cfg.CreditScore, cfg.ActiveLoans)
	svc := sandbox.NewService(
		mysql.NewRepos(db),
		mysql.NewGormUoW(db),
		bureau,
		sandbox.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL()),
		validation.New(),
		log.Named("sandbox"),
	)
	seedAdmin(svc, cfg, log)

	opts := []sandbox.ServerOption{sandbox.WithLogger(log.Named("http"))}
	if cfg.Idempotency {
		rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Fatal("connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		opts = append(opts, sandbox.WithIdempotency(
			idem.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), sandbox.SubjectOf, log.Named("idempotency"))))
	}

	e := sandbox.NewServer(svc, opts...).Echo()
	e.Use(middleware.Logger(), middleware.Recover())

	addr := ":" + cfg.SandboxPort
	log.Info("sandbox listening",
		zap.String("addr", addr),
		zap.String("db", cfg.SandboxDB),
		zap.Bool("kyc_pass", cfg.KYCPass),
		zap.Int("credit_score", cfg.CreditScore),
		zap.Bool("idempotency", cfg.Idempotency),
	)
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// seedAdmin makes sure the configured admin account exists.
func seedAdmin(svc *sandbox.Service, cfg *config.Config, log *zap.Logger) {
	_, err := svc.CreateAdmin(context.Background(), session.Registration{
		FullName: "Administrator",
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	var p *sandbox.Problem
	switch {
	case err == nil:
		log.Info("admin account created", zap.String("email", cfg.AdminEmail))
	case errors.As(err, &p) && p.Detail == "Email already registered":
	default:
		log.Fatal("seed admin", zap.Error(err))
	}
}
