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
	"agora/internal/governance"
	"agora/internal/realtime"
	"agora/internal/repo"
	"agora/internal/transport/http/router"
)

// The moderation API runs as its own process so it can be bound to an
// internal interface. It shares the store with the community API; admin
// access is decided by the live election standings, nothing else.
func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	cch := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rt := realtime.New(cch.RDB)

	rules := governance.Rules{
		PromoteRatio:   cfg.Governance.PromoteRatio,
		MinAge:         time.Duration(cfg.Governance.MinAgeHours) * time.Hour,
		PurgeAfter:     time.Duration(cfg.Governance.PurgeAfterDays) * 24 * time.Hour,
		LeaderCount:    cfg.Governance.LeaderCount,
		LeaderCooldown: time.Duration(cfg.Governance.LeaderCooldownMin) * time.Minute,
	}.Normalize()

	// Moderation actions never mail the community; the gate still dedups in
	// case an engine path fires.
	gate := governance.NewGate(map[governance.NotifyKind]time.Duration{
		governance.KindAdminLeaders: rules.LeaderCooldown,
	})

	users := repo.NewUserRepo(db)
	engine := governance.NewEngine(governance.Repos{
		Users:       users,
		Suggestions: repo.NewSuggestionRepo(db),
		Referenda:   repo.NewReferendumRepo(db),
		Votes:       repo.NewVoteRepo(db),
		AdminVotes:  repo.NewAdminVoteRepo(db),
	}, rules, gate, mail.Discard{}, rt, log)

	r := router.NewAdminEngine(router.Deps{
		Cfg:      cfg,
		Log:      log,
		Engine:   engine,
		Users:    users,
		Messages: repo.NewMessageRepo(db),
		Leads:    repo.NewBookingLeadRepo(db),
		Cache:    cch,
		JWT:      jwter,
		Mail:     mail.Discard{},
		RT:       rt,
	})

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second)

	host4human := cfg.App.Admin.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.Admin.Port)
	log.Info("moderation api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin", baseURL+"/admin"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("moderation api start FAILED", zap.Error(err))
		}
	}()
	log.Info("moderation api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("moderation api stopped gracefully")
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
