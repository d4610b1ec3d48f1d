package di

import (
	"context"
	"fmt"
	"time"

	"HomeCast/internal/domain/repository"
	domsvc "HomeCast/internal/domain/service"
	"HomeCast/internal/handler/api"
	internalrepo "HomeCast/internal/repository"
	icache "HomeCast/internal/service/cache"
	"HomeCast/internal/service/forecast"
	"HomeCast/internal/service/predictor"
	"HomeCast/internal/service/stream"
	"HomeCast/internal/usecase"
	pkgcache "HomeCast/pkg/cache"
	pkgch "HomeCast/pkg/clickhouse"
	"HomeCast/pkg/config"
	xhttp "HomeCast/pkg/http"
	pkgkafka "HomeCast/pkg/kafka"
	applogger "HomeCast/pkg/logger"
	"HomeCast/pkg/metrics"
	"HomeCast/pkg/server"

	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStore creates the in-memory series store.
func ProvideStore(l *applogger.Logger) repository.SeriesStore {
	s := internalrepo.NewMemorySeriesStore()
	s.SetLogger(l)
	return s
}

// ProvideClickHouseClient creates a ClickHouse client when either the data
// source or the archive needs it; nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Data.Source != "clickhouse" && !cfg.Data.Archive.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database, archiveTable(cfg))); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideArchive creates the ClickHouse series archive; nil when no
// ClickHouse client is configured.
func ProvideArchive(cfg *config.Config, client *pkgch.Client, l *applogger.Logger) repository.SeriesArchive {
	if client == nil {
		return nil
	}
	a := internalrepo.NewCHSeriesArchive(client, archiveTable(cfg))
	a.SetLogger(l)
	return a
}

// ProvideSeriesSource selects where reloads read from: the raw CSV export
// or the normalized ClickHouse archive.
func ProvideSeriesSource(cfg *config.Config, archive repository.SeriesArchive) repository.SeriesSource {
	if cfg.Data.Source == "clickhouse" {
		return archive
	}
	return internalrepo.NewCSVSeriesSource(cfg.Data.CSVPath)
}

// ProvidePredictor loads the configured sequence model. A load failure is
// logged and returns nil so the rest of the API keeps serving; only the
// forecast endpoint degrades.
func ProvidePredictor(cfg *config.Config, l *applogger.Logger) repository.SequencePredictor {
	if cfg.Forecast.Strategy == "blend" {
		return nil
	}

	switch cfg.Model.Type {
	case "remote":
		window := cfg.Model.WindowSize
		if window <= 0 {
			window = predictor.DefaultWindowSize
		}
		r, err := predictor.NewRemote(cfg.Model.ServiceURL, window, cfg.Model.Timeout, l)
		if err != nil {
			l.Error("remote model unavailable", applogger.Error(err))
			return nil
		}
		return r
	default:
		m, err := predictor.LoadLSTM(cfg.Model.Path, l)
		if err != nil {
			l.Error("model load failed", applogger.String("path", cfg.Model.Path), applogger.Error(err))
			return nil
		}
		return m
	}
}

// ProvideStrategy selects the forecast strategy.
func ProvideStrategy(cfg *config.Config, p repository.SequencePredictor) domsvc.ForecastStrategy {
	if cfg.Forecast.Strategy == "blend" {
		return forecast.NewBlendStrategy(cfg.Forecast.Seed)
	}
	return forecast.NewRolloutStrategy(p)
}

// ProvideSharedCache creates the optional layered (memory+redis) cache
// behind the per-process TTL caches; nil when Redis is not configured.
func ProvideSharedCache(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	if !cfg.Cache.Redis.Enabled {
		return nil
	}

	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
		pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		l.Warn("redis cache unavailable, running without shared cache", applogger.Error(err))
		return nil
	}
	return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(cfg.Cache.MaxSize))
}

// ProvideQueryService creates the historical query service.
func ProvideQueryService(cfg *config.Config, store repository.SeriesStore, m repository.Metrics) *usecase.QueryService {
	return usecase.NewQueryService(store, icache.NewTTLCache(), cfg.Cache.TTL, m)
}

// ProvideForecastService creates the forecast service.
func ProvideForecastService(
	cfg *config.Config,
	store repository.SeriesStore,
	strategy domsvc.ForecastStrategy,
	shared pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ForecastService {
	return usecase.NewForecastService(store, strategy, icache.NewTTLCache(), shared, cfg.Cache.TTL, m, l)
}

// ProvideHub creates the WebSocket notification hub; nil when streaming is
// disabled.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *stream.Hub {
	if !cfg.Stream.Enabled {
		return nil
	}
	return stream.NewHub(l)
}

// ProvideKafkaProducer creates the events producer; nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the reload-trigger consumer; nil when Kafka
// is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			return pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km)), km, data, nil
		},
		Err: func(_ context.Context, topic string, _ kafka.Message, _ []byte, err error) {
			l.Error("kafka message failed", applogger.String("topic", topic), applogger.Error(err))
		},
	})
	return consumer, nil
}

// ProvideReloader assembles the reload pipeline and attaches the optional
// notification and event outputs.
func ProvideReloader(
	cfg *config.Config,
	store repository.SeriesStore,
	source repository.SeriesSource,
	archive repository.SeriesArchive,
	forecasts *usecase.ForecastService,
	queries *usecase.QueryService,
	hub *stream.Hub,
	producer *pkgkafka.Producer,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Reloader {
	var writeThrough repository.SeriesArchive
	if cfg.Data.Archive.Enabled {
		writeThrough = archive
	}

	r := usecase.NewReloader(store, source, writeThrough, forecasts, queries, m, l)
	if hub != nil {
		r.SetNotifier(hub)
	}
	if producer != nil {
		r.SetPublisher(producer, eventsTopic(cfg))
	}
	return r
}

// ProvideReloadHandler creates the Kafka reload-command handler; nil when
// Kafka is disabled.
func ProvideReloadHandler(cfg *config.Config, reloader *usecase.Reloader, l *applogger.Logger) *usecase.KafkaReloadHandler {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return usecase.NewKafkaReloadHandler(reloadTopic(cfg), reloader, l)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.SeriesStore,
	queries *usecase.QueryService,
	forecasts *usecase.ForecastService,
	reloader *usecase.Reloader,
	hub *stream.Hub,
	p repository.SequencePredictor,
) xhttp.Handler {
	rate := api.RateLimitConfig{
		Enabled:      cfg.RateLimit.Enabled,
		Capacity:     cfg.RateLimit.Capacity,
		RefillPerSec: cfg.RateLimit.RefillPerSec,
	}
	modelReady := func() bool {
		if cfg.Forecast.Strategy == "blend" {
			return true
		}
		return p != nil && p.Ready()
	}
	return api.NewHousingHandler(l, store, queries, forecasts, reloader, hub, rate, modelReady)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	reloader *usecase.Reloader,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaReloadHandler,
	producer *pkgkafka.Producer,
	hub *stream.Hub,
	chClient *pkgch.Client,
) *server.App {
	var mh pkgkafka.MessageHandler
	if kh != nil {
		mh = kh
	}
	return server.New(cfg, l, reloader, handler, consumer, mh, producer, hub, chClient)
}

func archiveTable(cfg *config.Config) string {
	table := cfg.Data.Archive.Table
	if table == "" {
		table = "region_prices"
	}
	return cfg.ClickHouse.Database + "." + table
}

func reloadTopic(cfg *config.Config) string {
	if cfg.Kafka.ReloadTopic != "" {
		return cfg.Kafka.ReloadTopic
	}
	return "homecast.reload"
}

func eventsTopic(cfg *config.Config) string {
	if cfg.Kafka.EventsTopic != "" {
		return cfg.Kafka.EventsTopic
	}
	return "homecast.events"
}
