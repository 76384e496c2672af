package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jemaltech/app2automate/config"
	"github.com/jemaltech/app2automate/logger"
	"github.com/jemaltech/app2automate/repositories"
	"github.com/jemaltech/app2automate/search"
	"github.com/jemaltech/app2automate/services"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	store  *search.Store
	index  *search.PostIndex
	posts  repositories.PostRepository
	outbox repositories.IndexOutboxRepository
}

func newApp(ctx context.Context, withSearch bool) (*app, error) {
	cfg, err := config.Load(rootFlags[configFlag].GetString())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if cfg.UsesDefaultJWTSecret() {
		log.Warn("jwt.secret is the built-in default; set APP_JWT_SECRET")
	}

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		posts:  repositories.NewPostRepository(db),
		outbox: repositories.NewIndexOutboxRepository(db),
	}
	if !withSearch {
		return a, nil
	}

	store, err := search.NewStore(search.Config{
		Addrs:    cfg.Search.Addrs,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
		DB:       cfg.Search.DB,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create search store: %w", err)
	}
	a.store = store

	if err := store.WaitForReady(ctx, cfg.Search.ReadinessTimeout); err != nil {
		a.close()
		return nil, fmt.Errorf("search index not ready: %w", err)
	}
	log.Info("Connected to search index", zap.Strings("addrs", cfg.Search.Addrs))

	a.index = search.NewPostIndex(store, cfg.Search.Index, cfg.Search.KeyPrefix)
	return a, nil
}

func (a *app) reconciler() *services.Reconciler {
	return services.NewReconciler(a.posts, a.outbox, a.index, services.ReconcilerConfig{
		Interval:   a.cfg.Reconciler.Interval,
		BatchSize:  a.cfg.Reconciler.BatchSize,
		MaxRetries: a.cfg.Reconciler.MaxRetries,
		MinAge:     a.cfg.Reconciler.MinAge,
		Retention:  a.cfg.Reconciler.Retention,
	}, a.log.Named("reconciler"))
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}
