// Package config loads settings for the gathersync server and the device
// client. Values come from a YAML file overlaid by environment variables.
package config

import "time"

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// ServerConfig is the configuration of the cloud server binary.
type ServerConfig struct {
	Server   HTTPConfig     `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Reminder ReminderConfig `yaml:"reminder"`
	Push     PushConfig     `yaml:"push"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `yaml:"cors_origin" env:"SERVER_CORS_ORIGIN" env-default:"*"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"./data/gathersync.db"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"720h"`
}

type ReminderConfig struct {
	Disabled bool   `yaml:"disabled" env:"REMINDER_DISABLED"`
	Schedule string `yaml:"schedule" env:"REMINDER_SCHEDULE" env-default:"@hourly"`
}

type PushConfig struct {
	Endpoint string `yaml:"endpoint" env:"PUSH_ENDPOINT" env-default:"https://exp.host/--/api/v2/push/send"`
}

// ClientConfig is the configuration of the device CLI. It is stored in the
// user's config directory and created with defaults on first run.
type ClientConfig struct {
	ServerURL string         `yaml:"server_url" env:"GATHERSYNC_SERVER_URL"`
	DataPath  string         `yaml:"data_path"  env:"GATHERSYNC_DATA_PATH"`
	Redis     RedisConfig    `yaml:"redis"`
	Timeouts  TimeoutsConfig `yaml:"timeouts"`
	Sync      SyncConfig     `yaml:"sync"`
	Log       LogConfig      `yaml:"log"`
}

// RedisConfig replaces the local data file when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"GATHERSYNC_REDIS_ADDR"`
	Password string `yaml:"password" env:"GATHERSYNC_REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"GATHERSYNC_REDIS_DB"`
	Prefix   string `yaml:"prefix"   env:"GATHERSYNC_REDIS_PREFIX"`
}

type TimeoutsConfig struct {
	Read  time.Duration `yaml:"read"  env:"GATHERSYNC_READ_TIMEOUT"`
	Write time.Duration `yaml:"write" env:"GATHERSYNC_WRITE_TIMEOUT"`
	Batch time.Duration `yaml:"batch" env:"GATHERSYNC_BATCH_TIMEOUT"`
}

type SyncConfig struct {
	// Schedule is the cron spec of the sync daemon.
	Schedule string `yaml:"schedule" env:"GATHERSYNC_SYNC_SCHEDULE"`
}

// Addr is the listen address.
func (c *ServerConfig) Addr() string {
	return joinHostPort(c.Server.Host, c.Server.Port)
}

// DefaultClientConfig returns the values written on first run.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8080",
		DataPath:  "gathersync.db",
		Redis:     RedisConfig{Prefix: "gathersync:"},
		Timeouts: TimeoutsConfig{
			Read:  10 * time.Second,
			Write: 30 * time.Second,
			Batch: 30 * time.Second,
		},
		Sync: SyncConfig{Schedule: "@every 5m"},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Normalize fills zero values with defaults.
func (c *ClientConfig) Normalize() {
	def := DefaultClientConfig()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	if c.DataPath == "" {
		c.DataPath = def.DataPath
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = def.Redis.Prefix
	}
	if c.Timeouts.Read <= 0 {
		c.Timeouts.Read = def.Timeouts.Read
	}
	if c.Timeouts.Write <= 0 {
		c.Timeouts.Write = def.Timeouts.Write
	}
	if c.Timeouts.Batch <= 0 {
		c.Timeouts.Batch = def.Timeouts.Batch
	}
	if c.Sync.Schedule == "" {
		c.Sync.Schedule = def.Sync.Schedule
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}
