package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/c360/semmodel/config"
	"github.com/c360/semmodel/errors"
	"github.com/c360/semmodel/metric"
	"github.com/c360/semmodel/model"
	"github.com/c360/semmodel/natsclient"
	"github.com/c360/semmodel/resource"
	"github.com/c360/semmodel/store"
)

// Engine holds the assembled parts of a running mapping engine.
type Engine struct {
	Registry *model.Registry
	Store    store.Store
	Mapper   *resource.Mapper

	logger        *slog.Logger
	natsClient    *natsclient.Client
	metricsServer *metric.Server
}

// Option configures engine assembly.
type Option func(*Engine)

// WithLogger sets the logger the engine and its parts use.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine from a validated configuration. Relative model
// document paths resolve against baseDir.
func New(ctx context.Context, cfg *config.Config, baseDir string, opts ...Option) (*Engine, error) {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")

	defs, err := cfg.BuildDefinitions(baseDir)
	if err != nil {
		return nil, errors.Wrap(err, "Engine", "New", "build model definitions")
	}

	registry := model.NewRegistry()
	if err := registry.RegisterAll(defs); err != nil {
		return nil, errors.Wrap(err, "Engine", "New", "register models")
	}
	e.Registry = registry

	var metrics *metric.Metrics
	if cfg.Metrics.Enabled {
		metrics, err = e.startMetrics(cfg)
		if err != nil {
			return nil, err
		}
	}

	if err := e.openStore(ctx, cfg, metrics); err != nil {
		_ = e.Close(ctx)
		return nil, err
	}

	mapperOpts := []resource.Option{resource.WithLogger(e.logger)}
	if metrics != nil {
		mapperOpts = append(mapperOpts, resource.WithMetrics(metrics))
	}

	e.Mapper = resource.NewMapper(registry, e.Store, mapperOpts...)

	e.logger.Info("Engine ready",
		"models", len(defs),
		"store", cfg.Store.Mode,
		"metrics", cfg.Metrics.Enabled)
	return e, nil
}

func (e *Engine) openStore(ctx context.Context, cfg *config.Config, metrics *metric.Metrics) error {
	if cfg.Store.Mode == config.StoreModeMemory {
		e.Store = store.NewMemoryStore()
		return nil
	}

	clientOpts := []natsclient.ClientOption{
		natsclient.WithLogger(e.logger),
		natsclient.WithName("semmodel"),
	}
	if cfg.NATS.MaxReconnects != 0 {
		clientOpts = append(clientOpts, natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects))
	}
	if cfg.NATS.ReconnectWait > 0 {
		clientOpts = append(clientOpts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Username != "" {
		clientOpts = append(clientOpts, natsclient.WithUserInfo(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		clientOpts = append(clientOpts, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.New(strings.Join(cfg.NATS.URLs, ","), clientOpts...)
	if err != nil {
		return errors.Wrap(err, "Engine", "openStore", "create NATS client")
	}
	if err := client.Connect(ctx); err != nil {
		return errors.Wrap(err, "Engine", "openStore", "connect to NATS")
	}

	bucket, err := client.KeyValue(ctx, cfg.Store.Bucket)
	if err != nil {
		_ = client.Close(ctx)
		return errors.Wrap(err, "Engine", "openStore", "open KV bucket")
	}

	var kvOpts []func(*store.KVOptions)
	if metrics != nil {
		kvOpts = append(kvOpts, func(o *store.KVOptions) { o.OnRetry = metrics.RecordStoreRetry })
	}

	e.natsClient = client
	e.Store = store.NewKVStore(bucket, e.logger, kvOpts...)
	return nil
}

func (e *Engine) startMetrics(cfg *config.Config) (*metric.Metrics, error) {
	registry := metric.NewMetricsRegistry()
	metrics := metric.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		return nil, errors.Wrap(err, "Engine", "startMetrics", "register collectors")
	}

	e.metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	go func() {
		if err := e.metricsServer.Start(); err != nil {
			e.logger.Error("Metrics endpoint failed", "error", err)
		}
	}()

	return metrics, nil
}

func (e *Engine) closeStore(ctx context.Context) {
	if e.natsClient == nil {
		return
	}
	if err := e.natsClient.Close(ctx); err != nil {
		e.logger.Warn("NATS close failed", "error", err)
	}
	e.natsClient = nil
}

// Close stops the metrics endpoint and releases the store connection.
func (e *Engine) Close(ctx context.Context) error {
	if e.metricsServer != nil {
		if err := e.metricsServer.Stop(); err != nil {
			e.logger.Warn("Metrics endpoint stop failed", "error", err)
		}
		e.metricsServer = nil
	}
	e.closeStore(ctx)
	return nil
}
