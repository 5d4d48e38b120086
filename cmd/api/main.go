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
	"gorm.io/gorm"

	"agora/internal/core/auth"
	"agora/internal/core/cache"
	"agora/internal/core/config"
	"agora/internal/core/database"
	"agora/internal/core/logger"
	"agora/internal/core/mail"
	"agora/internal/core/server"
	"agora/internal/domain"
	"agora/internal/governance"
	"agora/internal/realtime"
	"agora/internal/repo"
	"agora/internal/transport/http/router"
	"agora/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	var log *zap.Logger
	var cleanup func()
	if cfg.Log.File != "" {
		log, cleanup = logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON,
			cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
	} else {
		log, cleanup = logger.New(cfg.Log.Level, cfg.Log.JSON)
	}
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.User{},
			&domain.Suggestion{},
			&domain.Referendum{},
			&domain.Vote{},
			&domain.AdminVote{},
			&domain.Message{},
			&domain.BookingLead{},
		); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	jwter := &auth.JWTer{
		Secret:    []byte(cfg.JWT.Secret),
		Issuer:    cfg.JWT.Issuer,
		TTL:       time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		VerifyTTL: time.Duration(cfg.JWT.VerifyTokenTTLMin) * time.Minute,
	}

	cch := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rt := realtime.New(cch.RDB)

	var sender governance.Sender = mail.Discard{}
	if cfg.SMTP.Host != "" {
		sender = mail.New(mail.Opts{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		log.Warn("smtp not configured, notifications are discarded")
	}

	rules := governance.Rules{
		PromoteRatio:   cfg.Governance.PromoteRatio,
		MinAge:         time.Duration(cfg.Governance.MinAgeHours) * time.Hour,
		PurgeAfter:     time.Duration(cfg.Governance.PurgeAfterDays) * 24 * time.Hour,
		LeaderCount:    cfg.Governance.LeaderCount,
		LeaderCooldown: time.Duration(cfg.Governance.LeaderCooldownMin) * time.Minute,
	}.Normalize()

	gate := governance.NewGate(map[governance.NotifyKind]time.Duration{
		governance.KindAdminLeaders: rules.LeaderCooldown,
	})

	users := repo.NewUserRepo(db)
	leads := repo.NewBookingLeadRepo(db)
	engine := governance.NewEngine(governance.Repos{
		Users:       users,
		Suggestions: repo.NewSuggestionRepo(db),
		Referenda:   repo.NewReferendumRepo(db),
		Votes:       repo.NewVoteRepo(db),
		AdminVotes:  repo.NewAdminVoteRepo(db),
	}, rules, gate, sender, rt, log)

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	sweeper := worker.NewSweeper(engine, leads, log,
		time.Duration(cfg.Sweep.ResolveIntervalMin)*time.Minute,
		time.Duration(cfg.Sweep.CleanupIntervalHours)*time.Hour,
		rules.PurgeAfter,
	)
	go sweeper.Start(sweepCtx)

	r := router.NewAPIEngine(router.Deps{
		Cfg:      cfg,
		Log:      log,
		Engine:   engine,
		Users:    users,
		Messages: repo.NewMessageRepo(db),
		Leads:    leads,
		Cache:    cch,
		JWT:      jwter,
		Mail:     sender,
		RT:       rt,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("community api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("community api start FAILED", zap.Error(err))
		}
	}()
	log.Info("community api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweeps()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("community api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
