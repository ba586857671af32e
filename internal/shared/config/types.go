package config

import "fmt"

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// GetDSN builds the MySQL DSN. Timestamps are stored and parsed as UTC.
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	// Verbose enables source locations on all levels, not only warn/error.
	Verbose bool `mapstructure:"verbose"`
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

// EngineConfig holds reconciliation engine tunables.
type EngineConfig struct {
	// DefaultPageSize is used when a run profile does not set its own page size.
	DefaultPageSize int `mapstructure:"default_page_size"`
	// WorkerCount bounds how many scheduled jobs may run concurrently.
	WorkerCount int `mapstructure:"worker_count"`
	// VerboseAudit writes change records even for no-op attribute flows.
	VerboseAudit bool `mapstructure:"verbose_audit"`
	// RunLockTTLMinutes bounds how long a per-system run lock may be held.
	RunLockTTLMinutes int `mapstructure:"run_lock_ttl_minutes"`
	// ConnectorTimeoutSeconds applies to each connector boundary call.
	ConnectorTimeoutSeconds int `mapstructure:"connector_timeout_seconds"`
	// BusinessTimezone is used for schedule boundaries only; storage is UTC.
	BusinessTimezone string `mapstructure:"business_timezone"`
	// SweepIntervalMinutes is how often the worker sweeps enabled run profiles.
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
}

// ConnectorsConfig holds adapter settings for the built-in connectors.
type ConnectorsConfig struct {
	// FeedDir is the base directory of the file-feed adapter, one
	// subdirectory per connected system.
	FeedDir string `mapstructure:"feed_dir"`
}
