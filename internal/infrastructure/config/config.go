package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`

	Model     ModelConfig     `koanf:"model"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Lists     ListsConfig     `koanf:"lists"`
	Geo       GeoConfig       `koanf:"geo"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type ModelConfig struct {
	// ArtifactPath points at the JSON model artifact loaded at start.
	ArtifactPath string `koanf:"artifact_path"`
}

type ScoringConfig struct {
	// Threshold bands: inclusive lower bounds, strictly increasing.
	MonitorThreshold float64 `koanf:"monitor_threshold"`
	ReviewThreshold  float64 `koanf:"review_threshold"`
	DeclineThreshold float64 `koanf:"decline_threshold"`

	BatchWorkers  int           `koanf:"batch_workers"`
	MaxBatchSize  int           `koanf:"max_batch_size"`
	SignalTimeout time.Duration `koanf:"signal_timeout"`

	// HighValueThreshold is in minor units.
	HighValueThreshold int64 `koanf:"high_value_threshold"`
}

type ListsConfig struct {
	HighRiskCountries      []string `koanf:"high_risk_countries"`
	FreeEmailDomains       []string `koanf:"free_email_domains"`
	DisposableEmailDomains []string `koanf:"disposable_email_domains"`
	HighRiskIndustries     []string `koanf:"high_risk_industries"`
	MediumRiskIndustries   []string `koanf:"medium_risk_industries"`
	// Holidays are "MM-DD" calendar dates.
	Holidays []string `koanf:"holidays"`
}

type GeoConfig struct {
	// Entries is the static GeoIP table used when no external
	// provider is wired in.
	Entries []GeoEntryConfig `koanf:"entries"`
	// DomainAges maps email domains to registration age in days.
	DomainAges map[string]int64 `koanf:"domain_ages"`
}

type GeoEntryConfig struct {
	CIDR      string  `koanf:"cidr"`
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`
	Country   string  `koanf:"country"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	ServiceName  string  `koanf:"service_name"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	SampleRate   float64 `koanf:"sample_rate"`
}

type RateLimitConfig struct {
	Enabled           bool `koanf:"enabled"`
	RequestsPerSecond int  `koanf:"requests_per_second"`
	BurstSize         int  `koanf:"burst_size"`
}

// Load builds the config from defaults, an optional YAML file, and
// FSB_-prefixed environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Model: ModelConfig{
			ArtifactPath: "models/fraud_model.json",
		},
		Scoring: ScoringConfig{
			MonitorThreshold:   0.40,
			ReviewThreshold:    0.70,
			DeclineThreshold:   0.95,
			BatchWorkers:       8,
			MaxBatchSize:       500,
			SignalTimeout:      50 * time.Millisecond,
			HighValueThreshold: 1_000_000,
		},
		Lists: ListsConfig{
			HighRiskCountries: []string{"KP", "IR", "SY"},
			FreeEmailDomains: []string{
				"gmail.com", "yahoo.com", "hotmail.com",
				"outlook.com", "aol.com",
			},
			DisposableEmailDomains: []string{
				"tempmail.com", "10minutemail.com", "guerrillamail.com",
			},
			HighRiskIndustries:   []string{"gambling", "cryptocurrency", "adult_content"},
			MediumRiskIndustries: []string{"travel", "electronics", "jewelry"},
			Holidays:             []string{"01-01", "07-04", "12-25"},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "fraud-scoring-backend",
			SampleRate:  0.1,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 1000,
			BurstSize:         2000,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional.
	if path != "" {
		_ = k.Load(file.Provider(path), yaml.Parser())
	}

	if err := k.Load(env.Provider("FSB_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "FSB_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces the invariants the engine depends on. Threshold
// ordering is checked here so a bad deployment fails at startup, not
// on the first borderline score.
func (c *Config) Validate() error {
	s := c.Scoring
	for name, v := range map[string]float64{
		"monitor_threshold": s.MonitorThreshold,
		"review_threshold":  s.ReviewThreshold,
		"decline_threshold": s.DeclineThreshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("scoring.%s %v out of range (0, 1]", name, v)
		}
	}
	if !(s.MonitorThreshold < s.ReviewThreshold && s.ReviewThreshold < s.DeclineThreshold) {
		return fmt.Errorf("scoring thresholds must be strictly increasing: monitor=%v review=%v decline=%v",
			s.MonitorThreshold, s.ReviewThreshold, s.DeclineThreshold)
	}

	if s.BatchWorkers <= 0 {
		return fmt.Errorf("scoring.batch_workers must be positive")
	}
	if s.MaxBatchSize <= 0 {
		return fmt.Errorf("scoring.max_batch_size must be positive")
	}
	if c.Model.ArtifactPath == "" {
		return fmt.Errorf("model.artifact_path is required")
	}

	return nil
}
