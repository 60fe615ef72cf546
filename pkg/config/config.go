package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string     `yaml:"environment"`
	Server      Server     `yaml:"server"`
	Log         Log        `yaml:"log"`
	Metrics     Metrics    `yaml:"metrics"`
	Forecast    Forecast   `yaml:"forecast"`
	Yahoo       Yahoo      `yaml:"yahoo"`
	TwelveData  TwelveData `yaml:"twelvedata"`
	Cache       Cache      `yaml:"cache"`
	Recorder    Recorder   `yaml:"recorder"`
	Kafka       Kafka      `yaml:"kafka"`
	RateLimit   RateLimit  `yaml:"ratelimit"`
	Warmup      Warmup     `yaml:"warmup"`
}

type Server struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            *bool         `yaml:"cors"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
	Output string `yaml:"output"` // stdout | stderr | file path
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Forecast holds pipeline defaults and the limits of the predict route.
type Forecast struct {
	TimeStep        int           `yaml:"time_step"`
	Epochs          int           `yaml:"epochs"`
	FutureSteps     int           `yaml:"future_steps"`
	BatchSize       int           `yaml:"batch_size"`
	LearningRate    float64       `yaml:"learning_rate"`
	HiddenSize      int           `yaml:"hidden_size"`
	TrainRatio      float64       `yaml:"train_ratio"`
	ValRatio        float64       `yaml:"val_ratio"`
	ScalerFit       string        `yaml:"scaler_fit"`
	Validation      string        `yaml:"validation"`
	Calendar        string        `yaml:"calendar"`
	DateAlignment   string        `yaml:"date_alignment"`
	Seed            uint64        `yaml:"seed"`
	Workers         int           `yaml:"workers"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	MaxObservations int           `yaml:"max_observations"`
	Timeout         time.Duration `yaml:"timeout"`
}

type Yahoo struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Range     string        `yaml:"range"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
}

type TwelveData struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Interval   string        `yaml:"interval"`
	OutputSize int           `yaml:"output_size"`
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"`
}

type Cache struct {
	Type          string        `yaml:"type"` // memory | redis | layered
	TTL           time.Duration `yaml:"ttl"`
	IntradayTTL   time.Duration `yaml:"intraday_ttl"`
	MemoryMaxSize int           `yaml:"memory_max_size"`
	MemoryTTL     time.Duration `yaml:"memory_ttl"`
	Redis         Redis         `yaml:"redis"`
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

type Recorder struct {
	Type       string     `yaml:"type"` // none | sqlite | clickhouse
	SQLitePath string     `yaml:"sqlite_path"`
	ClickHouse ClickHouse `yaml:"clickhouse"`
}

type ClickHouse struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Database         string        `yaml:"database"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
}

type Kafka struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	LogTopic     string        `yaml:"log_topic"`
	Compression  string        `yaml:"compression"`
	RequiredAcks int           `yaml:"required_acks"`
	MaxAttempts  int           `yaml:"max_attempts"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type RateLimit struct {
	PredictPerMinute float64 `yaml:"predict_per_minute"`
	Burst            int     `yaml:"burst"`
}

type Warmup struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	Symbols []string `yaml:"symbols"`
}

// Load reads and parses a YAML configuration file, fills defaults and
// validates the result.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (when present) and the YAML file, then lets
// environment variables override it.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TWELVE_DATA_API_KEY"); v != "" {
		c.TwelveData.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if ok {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("REDIS_ADDR: %w", err)
			}
			c.Cache.Redis.Port = p
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}

	s := &c.Server
	setInt(&s.Port, 5000)
	setDur(&s.ReadTimeout, 10*time.Second)
	setDur(&s.WriteTimeout, 10*time.Minute)
	setDur(&s.ShutdownTimeout, 15*time.Second)
	if s.CORS == nil {
		on := true
		s.CORS = &on
	}

	setStr(&c.Log.Level, "info")
	setStr(&c.Log.Format, "console")
	setStr(&c.Log.Output, "stdout")
	setStr(&c.Metrics.Path, "/metrics")

	f := &c.Forecast
	setInt(&f.TimeStep, 100)
	setInt(&f.Epochs, 50)
	setInt(&f.FutureSteps, 50)
	setInt(&f.BatchSize, 64)
	setFloat(&f.LearningRate, 0.001)
	setInt(&f.HiddenSize, 50)
	setFloat(&f.TrainRatio, 0.8)
	setFloat(&f.ValRatio, 0.1)
	setStr(&f.ScalerFit, "full")
	setStr(&f.Validation, "in_sample")
	setStr(&f.Calendar, "daily")
	setStr(&f.DateAlignment, "inclusive")
	setInt(&f.MaxConcurrent, 2)

	setStr(&c.Yahoo.BaseURL, "https://query1.finance.yahoo.com")
	setStr(&c.Yahoo.UserAgent, "Mozilla/5.0 (compatible; stockcast/1.0)")
	setStr(&c.Yahoo.Range, "max")
	setDur(&c.Yahoo.Timeout, 15*time.Second)

	setStr(&c.TwelveData.BaseURL, "https://api.twelvedata.com")
	setStr(&c.TwelveData.Interval, "1min")
	setInt(&c.TwelveData.OutputSize, 390)
	setDur(&c.TwelveData.Timeout, 10*time.Second)

	setStr(&c.Cache.Type, "memory")
	setDur(&c.Cache.TTL, 6*time.Hour)
	setDur(&c.Cache.IntradayTTL, time.Minute)
	setInt(&c.Cache.MemoryMaxSize, 1000)
	setDur(&c.Cache.MemoryTTL, 5*time.Minute)
	setStr(&c.Cache.Redis.Host, "localhost")
	setInt(&c.Cache.Redis.Port, 6379)
	setInt(&c.Cache.Redis.PoolSize, 10)
	setStr(&c.Cache.Redis.Prefix, "stockcast")

	setStr(&c.Recorder.Type, "none")
	setStr(&c.Recorder.SQLitePath, "stockcast.db")
	ch := &c.Recorder.ClickHouse
	setInt(&ch.Port, 9000)
	setStr(&ch.Database, "stockcast")
	setStr(&ch.User, "default")
	setDur(&ch.DialTimeout, 5*time.Second)
	setDur(&ch.ReadTimeout, 30*time.Second)

	setStr(&c.Kafka.Topic, "stockcast.forecasts")
	setStr(&c.Kafka.LogTopic, "stockcast.logs")
	setStr(&c.Kafka.Compression, "gzip")
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	setInt(&c.Kafka.MaxAttempts, 3)
	setDur(&c.Kafka.WriteTimeout, 10*time.Second)

	setFloat(&c.RateLimit.PredictPerMinute, 6)
	setInt(&c.RateLimit.Burst, 2)

	setStr(&c.Warmup.Cron, "0 30 21 * * 1-5")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	f := c.Forecast
	if f.TrainRatio <= 0 || f.TrainRatio >= 1 {
		return fmt.Errorf("forecast.train_ratio must be in (0,1), got %g", f.TrainRatio)
	}
	if err := oneOf("forecast.scaler_fit", f.ScalerFit, "full", "train"); err != nil {
		return err
	}
	if err := oneOf("forecast.validation", f.Validation, "in_sample", "holdout"); err != nil {
		return err
	}
	if f.Validation == "holdout" && (f.ValRatio <= 0 || f.TrainRatio+f.ValRatio >= 1) {
		return fmt.Errorf("forecast.val_ratio %g invalid with train_ratio %g", f.ValRatio, f.TrainRatio)
	}
	if err := oneOf("forecast.calendar", f.Calendar, "daily", "trading_days"); err != nil {
		return err
	}
	if err := oneOf("forecast.date_alignment", f.DateAlignment, "inclusive", "next_day"); err != nil {
		return err
	}
	if f.Workers < 0 || f.MaxConcurrent < 0 || f.MaxObservations < 0 {
		return fmt.Errorf("forecast.workers, max_concurrent and max_observations must not be negative")
	}
	if f.MaxObservations > 0 && f.MaxObservations < f.TimeStep+2 {
		return fmt.Errorf("forecast.max_observations %d leaves no window for time_step %d", f.MaxObservations, f.TimeStep)
	}
	if err := oneOf("log.format", c.Log.Format, "console", "json"); err != nil {
		return err
	}
	if err := oneOf("cache.type", c.Cache.Type, "memory", "redis", "layered"); err != nil {
		return err
	}
	if err := oneOf("recorder.type", c.Recorder.Type, "none", "sqlite", "clickhouse"); err != nil {
		return err
	}
	if c.Recorder.Type == "clickhouse" && c.Recorder.ClickHouse.Host == "" {
		return fmt.Errorf("recorder.clickhouse.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Warmup.Enabled && len(c.Warmup.Symbols) == 0 {
		return fmt.Errorf("warmup.symbols cannot be empty when warmup is enabled")
	}
	return nil
}

func oneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, ", "), v)
}

func setStr(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func setInt(p *int, def int) {
	if *p == 0 {
		*p = def
	}
}

func setFloat(p *float64, def float64) {
	if *p == 0 {
		*p = def
	}
}

func setDur(p *time.Duration, def time.Duration) {
	if *p == 0 {
		*p = def
	}
}
