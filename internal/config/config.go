package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Result store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	PipelineEnabled  bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Result store configuration.
	ResultStore     string
	ResultStorePath string
	ResultCacheSize int
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

	pipelineEnabled := true
	if v := os.Getenv("PIPELINE_ENABLED"); v != "" {
		pipelineEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "reservoir-datasets"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "reservoir-simulations"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "reservoir-balance"),
		PipelineEnabled:    pipelineEnabled,
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ResultStore:     sharedcfg.EnvOrDefault("RESULT_STORE", StoreMemory),
		ResultStorePath: sharedcfg.EnvOrDefault("RESULT_STORE_PATH", "reservoir-results.db"),
		ResultCacheSize: parseResultCacheSize(),
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
	switch cfg.ResultStore {
	case StoreMemory:
	case StoreSQLite:
		if cfg.ResultStorePath == "" {
			return nil, errors.New("RESULT_STORE_PATH is required when RESULT_STORE is sqlite")
		}
	default:
		return nil, errors.New("invalid RESULT_STORE: must be memory or sqlite")
	}

	return cfg, nil
}

func parseResultCacheSize() int {
	if s := os.Getenv("RESULT_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
