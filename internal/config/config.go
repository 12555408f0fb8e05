package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Email    EmailConfig    `mapstructure:"email"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Settings SettingsConfig `mapstructure:"settings"`
}

// APIConfig holds REST API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AdminToken guards every administrative route. Empty disables the check.
	AdminToken string `mapstructure:"admin_token"`
	// AuthMaxAttempts failed token attempts within AuthLockoutWindow lock a
	// client out. Zero disables the lockout; it also needs Redis.
	AuthMaxAttempts   int           `mapstructure:"auth_max_attempts"`
	AuthLockoutWindow time.Duration `mapstructure:"auth_lockout_window"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MigrationsPath string        `mapstructure:"migrations_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxFiles   int    `mapstructure:"max_files"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// QueueConfig selects and tunes the work queue carrying delivery record IDs.
type QueueConfig struct {
	Type            string        `mapstructure:"type"` // redis or sqs
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	StreamName      string        `mapstructure:"stream_name"`
	GroupName       string        `mapstructure:"group_name"`
	StreamMaxLen    int64         `mapstructure:"stream_max_len"`
	Workers         int           `mapstructure:"workers"`
	BlockTimeout    time.Duration `mapstructure:"block_timeout"`
	ProcessTimeout  time.Duration `mapstructure:"process_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SQSQueueURL     string        `mapstructure:"sqs_queue_url"`
	SQSRegion       string        `mapstructure:"sqs_region"`
	SQSWaitTime     int32         `mapstructure:"sqs_wait_time"`
	SQSVisTimeout   int32         `mapstructure:"sqs_visibility_timeout"`
}

// DeliveryConfig selects how new delivery records reach the sender.
// "async" publishes IDs to the queue for cmd/queue-worker; "sync" sends
// in-process from the API server.
type DeliveryConfig struct {
	Mode string `mapstructure:"mode"`
}

// EmailConfig is the environment fallback for provider settings. Values
// stored in the configuracoes table take precedence at runtime.
type EmailConfig struct {
	Provider     string        `mapstructure:"provider"`
	FromAddress  string        `mapstructure:"from_address"`
	FromName     string        `mapstructure:"from_name"`
	APIKey       string        `mapstructure:"api_key"`
	Domain       string        `mapstructure:"domain"`
	Endpoint     string        `mapstructure:"endpoint"`
	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	SMTPUsername string        `mapstructure:"smtp_username"`
	SMTPPassword string        `mapstructure:"smtp_password"`
	SMTPStartTLS bool          `mapstructure:"smtp_starttls"`
	Timeout      time.Duration `mapstructure:"timeout"`
	TestMode     bool          `mapstructure:"test_mode"`
}

// WorkerConfig tunes the delivery worker.
type WorkerConfig struct {
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	Burst          int           `mapstructure:"burst"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	SweepGrace     time.Duration `mapstructure:"sweep_grace"`
	SweepBatchSize int32         `mapstructure:"sweep_batch_size"`
}

// ScannerConfig configures the expiration scanner.
type ScannerConfig struct {
	Timezone         string        `mapstructure:"timezone"`
	ScheduleInterval time.Duration `mapstructure:"schedule_interval"`
}

// SettingsConfig configures the runtime settings cache.
type SettingsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix LEADQUEUE_ override file values.
// For example, LEADQUEUE_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("LEADQUEUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override values that
// are absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.admin_token", "")
	v.SetDefault("api.auth_max_attempts", 10)
	v.SetDefault("api.auth_lockout_window", 15*time.Minute)
	v.SetDefault("database.migrations_path", "migrations")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("logging.max_age_days", 14)
	v.SetDefault("queue.type", "redis")
	v.SetDefault("queue.stream_name", "leadqueue:deliveries")
	v.SetDefault("queue.group_name", "delivery-workers")
	v.SetDefault("queue.stream_max_len", 100000)
	v.SetDefault("delivery.mode", "async")
	v.SetDefault("email.provider", "stdout")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.smtp_password", "")
	v.SetDefault("email.test_mode", false)
	v.SetDefault("email.timeout", 30*time.Second)
	v.SetDefault("worker.rate_per_second", 5.0)
	v.SetDefault("worker.burst", 10)
	v.SetDefault("worker.sweep_interval", time.Minute)
	v.SetDefault("worker.sweep_grace", 2*time.Minute)
	v.SetDefault("worker.sweep_batch_size", 200)
	v.SetDefault("scanner.timezone", "America/Sao_Paulo")
	v.SetDefault("settings.cache_ttl", 30*time.Second)
}
