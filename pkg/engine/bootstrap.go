package engine

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/stillpath/recovery-engine/internal/config"
	"github.com/stillpath/recovery-engine/pkg/clock"
	"github.com/stillpath/recovery-engine/pkg/milestone"
	"github.com/stillpath/recovery-engine/pkg/store"
)

// Bootstrapped bundles an engine wired from environment configuration
// with the resources the host must manage.
type Bootstrapped struct {
	Engine  *Engine
	Store   *store.Redis
	Metrics *Metrics
}

// Close releases the store connection.
func (b *Bootstrapped) Close() error {
	return b.Store.Close()
}

// Bootstrap wires an engine from environment variables: log level,
// Redis-backed store, threshold tables (YAML file or built-in
// defaults), time-travel clock, and metrics registered on reg.
//
// Components initialize in dependency order: config, logging, Redis,
// thresholds, metrics, engine.
func Bootstrap(ctx context.Context, reg prometheus.Registerer) (*Bootstrapped, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logrus.SetLevel(level)

	redisStore, err := store.NewRedis(ctx, store.RedisOptions{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, err
	}

	thresholds := milestone.Defaults()
	if cfg.MilestoneConfigPath != "" {
		loaded, err := milestone.LoadConfig(cfg.MilestoneConfigPath)
		if err != nil {
			redisStore.Close()
			return nil, err
		}
		thresholds = *loaded
		logrus.Infof("loaded milestone thresholds from %s", cfg.MilestoneConfigPath)
	}

	if cfg.TimeTravelDays != 0 {
		logrus.Warnf("time travel active: clock shifted by %d days", cfg.TimeTravelDays)
	}

	metrics := NewMetrics()
	if reg != nil {
		metrics.Register(reg)
	}

	eng := New(redisStore, Options{
		Clock:      clock.New(cfg.TimeTravelDays),
		Thresholds: &thresholds,
		Metrics:    metrics,
	})

	logrus.Infof("recovery engine initialized (environment: %s)", cfg.Environment)
	return &Bootstrapped{Engine: eng, Store: redisStore, Metrics: metrics}, nil
}
