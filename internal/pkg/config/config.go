package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Motion    MotionConfig    `mapstructure:"motion"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Durable string `mapstructure:"durable"`
}

type ValkeyConfig struct {
	Addr     string `mapstructure:"addr"`
	StateTTL int    `mapstructure:"state_ttl"` // seconds
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// MotionConfig tunes the marker animation. Durations use Go duration syntax
// ("2s", "300ms").
type MotionConfig struct {
	MoveDuration   time.Duration `mapstructure:"move_duration"`
	RotateDuration time.Duration `mapstructure:"rotate_duration"`
	FrameInterval  time.Duration `mapstructure:"frame_interval"`
	Debounce       time.Duration `mapstructure:"debounce"`
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
	StartLat       float64       `mapstructure:"start_lat"`
	StartLon       float64       `mapstructure:"start_lon"`
}

type FeedConfig struct {
	URL          string        `mapstructure:"url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MarkerPrefix string        `mapstructure:"marker_prefix"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MARKERMOVE_MOTION_DEBOUNCE → motion.debounce
	v.SetEnvPrefix("MARKERMOVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "markermove")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "markermove")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.durable", service)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.state_ttl", 60)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "markermove-replay")
	v.SetDefault("motion.move_duration", "2s")
	v.SetDefault("motion.rotate_duration", "300ms")
	v.SetDefault("motion.frame_interval", "16ms")
	v.SetDefault("motion.debounce", "300ms")
	v.SetDefault("motion.idle_ttl", "10m")
	v.SetDefault("motion.start_lat", -6.21462)
	v.SetDefault("motion.start_lon", 106.84513)
	v.SetDefault("feed.url", "")
	v.SetDefault("feed.poll_interval", "15s")
	v.SetDefault("feed.marker_prefix", "vehicle-")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Sprintf("telemetry.sample_ratio must be within [0,1], got %v", c.Telemetry.SampleRatio))
	}
	if c.Motion.MoveDuration <= 0 {
		errs = append(errs, "motion.move_duration must be positive")
	}
	if c.Motion.RotateDuration <= 0 {
		errs = append(errs, "motion.rotate_duration must be positive")
	}
	if c.Motion.FrameInterval <= 0 {
		errs = append(errs, "motion.frame_interval must be positive")
	}
	if c.Motion.Debounce < 0 {
		errs = append(errs, "motion.debounce must not be negative")
	}
	if c.Motion.IdleTTL <= 0 {
		errs = append(errs, "motion.idle_ttl must be positive")
	}
	if c.Motion.StartLat < -90 || c.Motion.StartLat > 90 || c.Motion.StartLon < -180 || c.Motion.StartLon > 180 {
		errs = append(errs, fmt.Sprintf("motion start point (%v, %v) is out of range", c.Motion.StartLat, c.Motion.StartLon))
	}
	if c.Feed.URL != "" && c.Feed.PollInterval <= 0 {
		errs = append(errs, "feed.poll_interval must be positive when feed.url is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
