package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/exportdss/downstream-cli/internal/store"
	"github.com/exportdss/downstream-cli/pkg/comtrade"
)

// timeNow is swapped in tests.
var timeNow = time.Now

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "downstream.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func comtradeConfig() comtrade.Config {
	return comtrade.Config{
		SubscriptionKey:    cfg.Comtrade.SubscriptionKey,
		BaseURL:            cfg.Comtrade.BaseURL,
		Timeout:            time.Duration(cfg.Comtrade.TimeoutSecs) * time.Second,
		CacheTTL:           time.Duration(cfg.Comtrade.CacheTTLDays) * 24 * time.Hour,
		RequestInterval:    time.Duration(cfg.Comtrade.RequestIntervalMillis) * time.Millisecond,
		InterYearDelay:     time.Duration(cfg.Comtrade.InterYearMillis) * time.Millisecond,
		InterReporterDelay: time.Duration(cfg.Comtrade.InterReporterMillis) * time.Millisecond,
		MaxAttempts:        cfg.Comtrade.MaxAttempts,
	}
}
