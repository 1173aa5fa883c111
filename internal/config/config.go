package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
	PipelineEnabled  bool

	BatchSize          int
	BatchFlushInterval time.Duration
	AssessWorkers      int

	// Assessment parameters.
	TargetPowerKW     float64
	HarvestEfficiency float64

	// Open-Meteo weather series configuration.
	WeatherEnabled      bool
	WeatherBaseURL      string
	WeatherTimeout      time.Duration
	WeatherCacheSize    int
	WeatherLookbackDays int

	// SQLitePath enables the assessment store when set.
	SQLitePath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("WEATHER_TIMEOUT", "10s"))
	if err != nil || weatherTimeout <= 0 {
		return nil, errors.New("invalid WEATHER_TIMEOUT")
	}

	targetKW, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TARGET_POWER_KW", "1000"), 64)
	if err != nil || targetKW <= 0 {
		return nil, errors.New("invalid TARGET_POWER_KW: must be a positive number")
	}

	efficiency, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("HARVEST_EFFICIENCY", "0.1"), 64)
	if err != nil || efficiency <= 0 || efficiency > 1 {
		return nil, errors.New("invalid HARVEST_EFFICIENCY: must be in (0, 1]")
	}

	assessWorkers, err := strconv.Atoi(sharedcfg.EnvOrDefault("ASSESS_WORKERS", "4"))
	if err != nil || assessWorkers < 1 || assessWorkers > 64 {
		return nil, errors.New("invalid ASSESS_WORKERS: must be between 1 and 64")
	}

	lookbackDays, err := strconv.Atoi(sharedcfg.EnvOrDefault("WEATHER_LOOKBACK_DAYS", "365"))
	if err != nil || lookbackDays <= 0 || lookbackDays > 3660 {
		return nil, errors.New("invalid WEATHER_LOOKBACK_DAYS: must be between 1 and 3660")
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "site-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "site-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "evapower-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		PipelineEnabled:    os.Getenv("PIPELINE_ENABLED") != "false",
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		AssessWorkers:      assessWorkers,

		TargetPowerKW:     targetKW,
		HarvestEfficiency: efficiency,

		WeatherEnabled:      os.Getenv("WEATHER_ENABLED") == "true",
		WeatherBaseURL:      sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		WeatherTimeout:      weatherTimeout,
		WeatherCacheSize:    parseWeatherCacheSize(),
		WeatherLookbackDays: lookbackDays,

		SQLitePath: os.Getenv("SQLITE_PATH"),
	}

	if cfg.PipelineEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, errors.New("invalid LOG_FORMAT: must be json or text")
	}

	return cfg, nil
}

func parseWeatherCacheSize() int {
	if s := os.Getenv("WEATHER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
