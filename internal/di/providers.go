package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/repository"
	"StockCast/internal/domain/service"
	"StockCast/internal/handler/api"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/scheduler"
	forecastmetrics "StockCast/internal/service/metrics"
	"StockCast/internal/service/ratelimit"
	"StockCast/internal/service/twelvedata"
	"StockCast/internal/service/yahoo"
	"StockCast/internal/services/forecast"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// ProvideKafkaProducer creates the shared Kafka producer, or nil when Kafka
// is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. With Kafka enabled, error
// logs are also aggregated onto the log topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	l = l.With(applogger.String("env", cfg.Environment))
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideRegisterer returns the registry every collector is attached to.
func ProvideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func ProvideGatherer() prometheus.Gatherer {
	return prometheus.DefaultGatherer
}

func ProvideMetrics(reg prometheus.Registerer) repository.Metrics {
	return metrics.New(reg)
}

func ProvideForecastMetrics(reg prometheus.Registerer) repository.ForecastMetrics {
	return forecastmetrics.NewForecastCollector(reg)
}

// ProvideCache builds the provider data cache selected by cache.type.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	c := cfg.Cache
	if c.Type == "memory" {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(c.MemoryMaxSize))
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(c.Redis.Host),
		cache.WithRedisPort(c.Redis.Port),
		cache.WithRedisPassword(c.Redis.Password),
		cache.WithRedisDB(c.Redis.DB),
		cache.WithRedisPool(c.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(c.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	if c.Type == "redis" {
		return rc, func() { _ = rc.Close() }, nil
	}
	lc := cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(c.MemoryMaxSize),
		cache.WithLayeredMemoryTTL(c.MemoryTTL),
	)
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideHistoryProvider returns the cached Yahoo history client.
func ProvideHistoryProvider(cfg *config.Config, m repository.Metrics, c cache.Service, l *applogger.Logger) repository.HistoryProvider {
	client := yahoo.New(yahoo.Config{
		BaseURL:   cfg.Yahoo.BaseURL,
		UserAgent: cfg.Yahoo.UserAgent,
		Range:     cfg.Yahoo.Range,
		Timeout:   cfg.Yahoo.Timeout,
		Retries:   cfg.Yahoo.Retries,
	}, m)
	return internalrepo.NewCachedHistory(client, c, "yahoo", cfg.Cache.TTL, l)
}

// ProvideIntradayProvider returns the cached Twelve Data intraday client.
func ProvideIntradayProvider(cfg *config.Config, m repository.Metrics, c cache.Service, l *applogger.Logger) repository.IntradayProvider {
	client := twelvedata.New(twelvedata.Config{
		BaseURL:    cfg.TwelveData.BaseURL,
		APIKey:     cfg.TwelveData.APIKey,
		Interval:   repository.NormalizeInterval(cfg.TwelveData.Interval),
		OutputSize: cfg.TwelveData.OutputSize,
		Timeout:    cfg.TwelveData.Timeout,
		Retries:    cfg.TwelveData.Retries,
	}, m)
	return internalrepo.NewCachedIntraday(client, c, "twelvedata", cfg.Cache.IntradayTTL, l)
}

// ProvideRunRecorder opens the recorder selected by recorder.type and
// ensures its schema.
func ProvideRunRecorder(cfg *config.Config, l *applogger.Logger) (repository.RunRecorder, func(), error) {
	var rec repository.RunRecorder
	switch cfg.Recorder.Type {
	case "sqlite":
		r, err := internalrepo.NewSQLiteRecorder(cfg.Recorder.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		rec = r
	case "clickhouse":
		ch := cfg.Recorder.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
			pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		rec = internalrepo.NewCHRecorder(client, ch.Database, l)
	default:
		return internalrepo.NoopRecorder{}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rec.Init(ctx); err != nil {
		_ = rec.Close()
		return nil, nil, fmt.Errorf("%s recorder schema: %w", cfg.Recorder.Type, err)
	}
	l.Info("run recorder ready", applogger.String("type", cfg.Recorder.Type))
	return rec, func() {
		if err := rec.Close(); err != nil {
			l.Warn("recorder close error", applogger.Error(err))
		}
	}, nil
}

// ProvideEventPublisher publishes completed runs to Kafka when enabled.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideForecastOptions maps the forecast section onto pipeline options.
func ProvideForecastOptions(cfg *config.Config) forecast.Options {
	f := cfg.Forecast
	opts := forecast.DefaultOptions()
	opts.TimeStep = f.TimeStep
	opts.Epochs = f.Epochs
	opts.FutureSteps = f.FutureSteps
	opts.BatchSize = f.BatchSize
	opts.HiddenSize = f.HiddenSize
	opts.LearningRate = f.LearningRate
	opts.TrainRatio = f.TrainRatio
	opts.ValRatio = f.ValRatio
	opts.ScalerFit = forecast.ScalerFit(f.ScalerFit)
	opts.Validation = forecast.Validation(f.Validation)
	opts.Calendar = forecast.Calendar(f.Calendar)
	opts.Alignment = forecast.Alignment(f.DateAlignment)
	opts.Seed = f.Seed
	if f.Workers > 0 {
		opts.Workers = f.Workers
	}
	return opts
}

func ProvideForecaster(opts forecast.Options) service.Forecaster {
	return forecast.NewService(opts)
}

func ProvidePredictUseCase(
	cfg *config.Config,
	history repository.HistoryProvider,
	forecaster service.Forecaster,
	recorder repository.RunRecorder,
	publisher repository.EventPublisher,
	fm repository.ForecastMetrics,
	l *applogger.Logger,
) *usecase.PredictUseCase {
	return usecase.NewPredictUseCase(history, forecaster, recorder, publisher, fm, usecase.PredictConfig{
		MaxConcurrent:   cfg.Forecast.MaxConcurrent,
		MaxObservations: cfg.Forecast.MaxObservations,
		Timeout:         cfg.Forecast.Timeout,
	}, l)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.PredictPerMinute, cfg.RateLimit.Burst, 10*time.Minute)
}

func ProvideHTTPServer(cfg *config.Config, h *api.Handler, reg prometheus.Registerer, g prometheus.Gatherer, l *applogger.Logger) *xhttp.Server {
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(*cfg.Server.CORS),
		xhttp.WithMetrics(reg, g, path),
		xhttp.WithLogger(l),
	)
}

// ProvideScheduler registers the limiter sweep and, when enabled, the
// watchlist warmup.
func ProvideScheduler(cfg *config.Config, history repository.HistoryProvider, c cache.Service, lim *ratelimit.Limiter, l *applogger.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(l)
	if err := s.RegisterSweep("0 */5 * * * *", lim); err != nil {
		return nil, err
	}
	if cfg.Warmup.Enabled {
		w := scheduler.NewWarmer(history, c, "yahoo", cfg.Warmup.Symbols, 10*time.Minute, l)
		if err := s.RegisterWarmup(cfg.Warmup.Cron, w); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func ProvideApp(cfg *config.Config, srv *xhttp.Server, s *scheduler.Scheduler, l *applogger.Logger) *server.App {
	return server.New(cfg, srv, s, l)
}
