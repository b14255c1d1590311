package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// AdminToken guards the /admin routes. Empty disables them.
	AdminToken string `mapstructure:"admin_token"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in release mode.
func (s *ServerConfig) IsProduction() bool {
	return s.Mode == "release" || s.Mode == "production"
}

type DatabaseConfig struct {
	// Driver is "mysql" or "sqlite".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	// MigrationStrategy is "goose" or "auto".
	MigrationStrategy string `mapstructure:"migration_strategy"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.SQLitePath
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// BillingConfig holds the subscription lifecycle policy.
type BillingConfig struct {
	GracePeriodDays           int           `mapstructure:"grace_period_days"`
	MaxReconcileAttempts      int           `mapstructure:"max_reconcile_attempts"`
	DelinquentCancelAfterDays int           `mapstructure:"delinquent_cancel_after_days"`
	SweepInterval             time.Duration `mapstructure:"sweep_interval"`
	PausedAsCancellation      bool          `mapstructure:"paused_as_cancellation"`
	Timezone                  string        `mapstructure:"timezone"`
}

type WebhookConfig struct {
	Secret             string        `mapstructure:"secret"`
	SignatureTolerance time.Duration `mapstructure:"signature_tolerance"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type EmailConfig struct {
	SMTPHost     string   `mapstructure:"smtp_host"`
	SMTPPort     int      `mapstructure:"smtp_port"`
	SMTPUser     string   `mapstructure:"smtp_user"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	FromAddress  string   `mapstructure:"from_address"`
	FromName     string   `mapstructure:"from_name"`
	Recipients   []string `mapstructure:"recipients"`
}

type NotifierConfig struct {
	// Sinks lists enabled sinks: log, redis, rabbitmq, email.
	Sinks        []string       `mapstructure:"sinks"`
	Timeout      time.Duration  `mapstructure:"timeout"`
	RedisChannel string         `mapstructure:"redis_channel"`
	Breaker      BreakerConfig  `mapstructure:"breaker"`
	RabbitMQ     RabbitMQConfig `mapstructure:"rabbitmq"`
	Email        EmailConfig    `mapstructure:"email"`
}

func (n *NotifierConfig) HasSink(name string) bool {
	for _, s := range n.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// RateLimitConfig throttles the admin API per client IP. It needs Redis.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
