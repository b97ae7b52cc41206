package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/garyjia/fintel-ai/internal/application/format"
	"github.com/garyjia/fintel-ai/internal/application/jobrunner"
)

// Chat providers
const (
	ProviderCanned = "canned"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Database DatabaseConfig    `mapstructure:"database"`
	Logger   LoggerConfig      `mapstructure:"logger"`
	Jobs     jobrunner.Config  `mapstructure:"jobs"`
	Risk     format.RiskPolicy `mapstructure:"risk"`
	Chat     ChatConfig        `mapstructure:"chat"`
	Lark     LarkConfig        `mapstructure:"lark"`
	Uploads  UploadsConfig     `mapstructure:"uploads"`
	Sessions SessionsConfig    `mapstructure:"sessions"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns host:port for net/http
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the query store configuration. ":memory:" keeps the
// fixtures in a private in-memory database.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// ChatConfig selects the assistant behind the chat view.
// Replies are bounded by jobs.reply_timeout and fall back to the canned text.
type ChatConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
}

// LarkConfig configures the optional alert sink for error toasts
type LarkConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AppID         string `mapstructure:"app_id"`
	AppSecret     string `mapstructure:"app_secret"`
	ReceiveIDType string `mapstructure:"receive_id_type"`
	ReceiveID     string `mapstructure:"receive_id"`
	BaseURL       string `mapstructure:"base_url"`
}

// UploadsConfig bounds accepted invoice files
type UploadsConfig struct {
	MaxSizeMB         int64    `mapstructure:"max_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	FailNames         []string `mapstructure:"fail_names"`
}

// SessionsConfig controls per-browser state
type SessionsConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxToasts     int           `mapstructure:"max_toasts"`
}

// Load reads configPath (optional when empty) and overlays environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.path", ":memory:")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", time.Duration(0))

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	jobs := jobrunner.DefaultConfig()
	v.SetDefault("jobs.upload_base_delay", jobs.UploadBaseDelay)
	v.SetDefault("jobs.upload_stagger", jobs.UploadStagger)
	v.SetDefault("jobs.accuracy_min", jobs.AccuracyMin)
	v.SetDefault("jobs.accuracy_max", jobs.AccuracyMax)
	v.SetDefault("jobs.reply_delay", jobs.ReplyDelay)
	v.SetDefault("jobs.reply_timeout", jobs.ReplyTimeout)

	risk := format.DefaultRiskPolicy()
	v.SetDefault("risk.invoice.medium", risk.Invoice.Medium)
	v.SetDefault("risk.invoice.high", risk.Invoice.High)
	v.SetDefault("risk.vendor.medium", risk.Vendor.Medium)
	v.SetDefault("risk.vendor.high", risk.Vendor.High)

	v.SetDefault("chat.provider", ProviderCanned)
	v.SetDefault("chat.model", "gpt-4o-mini")

	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.receive_id_type", "chat_id")

	v.SetDefault("uploads.max_size_mb", 20)
	v.SetDefault("uploads.allowed_extensions", []string{".pdf", ".png", ".jpg", ".jpeg"})

	v.SetDefault("sessions.ttl", 30*time.Minute)
	v.SetDefault("sessions.sweep_interval", time.Minute)
	v.SetDefault("sessions.max_toasts", 50)
}

// bindEnvVars maps FINTEL_SERVER_PORT style variables onto keys and binds the credentials by their usual names
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("FINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("chat.api_key", "FINTEL_CHAT_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("lark.app_id", "FINTEL_LARK_APP_ID", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "FINTEL_LARK_APP_SECRET", "LARK_APP_SECRET")
	_ = v.BindEnv("lark.receive_id", "FINTEL_LARK_RECEIVE_ID", "LARK_RECEIVE_ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if err := c.Jobs.Validate(); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}

	switch c.Chat.Provider {
	case ProviderCanned:
	case ProviderOpenAI:
		if c.Chat.APIKey == "" {
			return fmt.Errorf("chat.api_key is required when chat.provider is %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("chat.provider must be %q or %q, got %q", ProviderCanned, ProviderOpenAI, c.Chat.Provider)
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" || c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
		}
		if c.Lark.ReceiveID == "" {
			return fmt.Errorf("lark.receive_id is required when lark is enabled")
		}
	}

	if c.Uploads.MaxSizeMB <= 0 {
		return fmt.Errorf("uploads.max_size_mb must be positive")
	}
	if len(c.Uploads.AllowedExtensions) == 0 {
		return fmt.Errorf("uploads.allowed_extensions must not be empty")
	}

	if c.Sessions.TTL <= 0 || c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.ttl and sessions.sweep_interval must be positive")
	}
	if c.Sessions.MaxToasts <= 0 {
		return fmt.Errorf("sessions.max_toasts must be positive")
	}
	return nil
}
