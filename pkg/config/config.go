// Package config loads and validates harness configuration from YAML files
// with environment-variable overrides. It provides typed structs for the test
// generator, the evaluator and every optional sink (Postgres, Redis, Kafka,
// Prometheus).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
)

// Document id encodings accepted by GenerateConfig.DocIDEncoding.
const (
	DocIDHex    = "hex"
	DocIDOpaque = "opaque"
)

// Config is the top-level harness configuration.
type Config struct {
	Generate GenerateConfig `yaml:"generate"`
	Evaluate EvaluateConfig `yaml:"evaluate"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// GenerateConfig controls the index builder and sampler.
type GenerateConfig struct {
	CorpusPath      string `yaml:"corpusPath"`
	QueryPath       string `yaml:"queryPath"`
	GroundTruthPath string `yaml:"groundTruthPath"`
	SampleSize      int    `yaml:"sampleSize"`
	// Seed 0 means "pick one from the clock"; the chosen seed is logged.
	Seed          uint64 `yaml:"seed"`
	DocIDEncoding string `yaml:"docIDEncoding"`
	MaxLineBytes  int    `yaml:"maxLineBytes"`
}

// EvaluateConfig controls the result evaluator.
type EvaluateConfig struct {
	ExpectedPath string `yaml:"expectedPath"`
	ActualPath   string `yaml:"actualPath"`
	// QueryPath, when set, is checked to hold one query per ground-truth line.
	QueryPath       string `yaml:"queryPath"`
	StrictLineCount bool   `yaml:"strictLineCount"`
	MaxLineBytes    int    `yaml:"maxLineBytes"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls where per-run Prometheus metrics are exported.
type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	TextfilePath   string `yaml:"textfilePath"`
	PushgatewayURL string `yaml:"pushgatewayURL"`
	Job            string `yaml:"job"`
}

// PostgresConfig holds PostgreSQL connection parameters for the run history.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis connection settings for the latest-run cache.
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	KeyPrefix string        `yaml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// KafkaConfig holds Kafka broker and topic settings for run events.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot produce a meaningful run.
func (c *Config) Validate() error {
	g := c.Generate
	switch {
	case g.SampleSize < 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitFailure, "generate.sampleSize must be >= 0, got %d", g.SampleSize)
	case g.DocIDEncoding != DocIDHex && g.DocIDEncoding != DocIDOpaque:
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitFailure, "generate.docIDEncoding must be %q or %q, got %q", DocIDHex, DocIDOpaque, g.DocIDEncoding)
	case g.MaxLineBytes <= 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitFailure, "generate.maxLineBytes must be positive, got %d", g.MaxLineBytes)
	case g.CorpusPath == "" || g.QueryPath == "" || g.GroundTruthPath == "":
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitFailure, "generate paths must not be empty")
	case c.Evaluate.MaxLineBytes <= 0:
		return apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitFailure, "evaluate.maxLineBytes must be positive, got %d", c.Evaluate.MaxLineBytes)
	case c.Evaluate.ExpectedPath == "" || c.Evaluate.ActualPath == "":
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitFailure, "evaluate paths must not be empty")
	case c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == ""):
		return apperrors.New(apperrors.ErrInvalidConfig, apperrors.ExitFailure, "kafka requires brokers and a topic when enabled")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Generate: GenerateConfig{
			CorpusPath:      "db6k.dat",
			QueryPath:       "input.txt",
			GroundTruthPath: "exp_output.txt",
			SampleSize:      100,
			DocIDEncoding:   DocIDHex,
			MaxLineBytes:    16 << 20,
		},
		Evaluate: EvaluateConfig{
			ExpectedPath: "results/exp_output.txt",
			ActualPath:   "results/res_id.csv",
			MaxLineBytes: 16 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Job: "conjunctive-search-harness",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "searchharness",
			User:            "searchharness",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  2,
			KeyPrefix: "harness:last:",
			TTL:       7 * 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "harness-runs",
		},
	}
}

// applyEnvOverrides reads CSH_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CSH_GENERATE_CORPUS_PATH"); v != "" {
		cfg.Generate.CorpusPath = v
	}
	if v := os.Getenv("CSH_GENERATE_QUERY_PATH"); v != "" {
		cfg.Generate.QueryPath = v
	}
	if v := os.Getenv("CSH_GENERATE_GROUND_TRUTH_PATH"); v != "" {
		cfg.Generate.GroundTruthPath = v
	}
	if v := os.Getenv("CSH_GENERATE_SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generate.SampleSize = n
		}
	}
	if v := os.Getenv("CSH_GENERATE_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Generate.Seed = seed
		}
	}
	if v := os.Getenv("CSH_GENERATE_DOC_ID_ENCODING"); v != "" {
		cfg.Generate.DocIDEncoding = v
	}
	if v := os.Getenv("CSH_EVALUATE_EXPECTED_PATH"); v != "" {
		cfg.Evaluate.ExpectedPath = v
	}
	if v := os.Getenv("CSH_EVALUATE_ACTUAL_PATH"); v != "" {
		cfg.Evaluate.ActualPath = v
	}
	if v := os.Getenv("CSH_EVALUATE_QUERY_PATH"); v != "" {
		cfg.Evaluate.QueryPath = v
	}
	if v := os.Getenv("CSH_EVALUATE_MAX_LINE_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluate.MaxLineBytes = n
		}
	}
	if v := os.Getenv("CSH_EVALUATE_STRICT"); v != "" {
		if strict, err := strconv.ParseBool(v); err == nil {
			cfg.Evaluate.StrictLineCount = strict
		}
	}
	if v := os.Getenv("CSH_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CSH_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CSH_METRICS_PUSHGATEWAY_URL"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv("CSH_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CSH_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CSH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CSH_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}
