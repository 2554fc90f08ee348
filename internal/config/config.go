package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Form       FormConfig       `mapstructure:"form"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port" validate:"min=1,max=65535"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

// FormConfig points at the baseline schema pair. Empty paths use the
// embedded baseline.
type FormConfig struct {
	SchemaPath   string `mapstructure:"schema_path"`
	UISchemaPath string `mapstructure:"uischema_path"`
}

type SubmissionConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=file sqlite postgres"`
	Path       string `mapstructure:"path" validate:"required_if=Driver file,required_if=Driver sqlite"`
	DSN        string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	SkipHidden bool   `mapstructure:"skip_hidden"`
}

type NotifyConfig struct {
	BufferSize       int               `mapstructure:"buffer_size" validate:"min=0"`
	WebhookURL       string            `mapstructure:"webhook_url" validate:"omitempty,url"`
	WebhookHeaders   map[string]string `mapstructure:"webhook_headers"`
	WebhookTimeoutMs int               `mapstructure:"webhook_timeout_ms" validate:"min=0"`
}

// WebhookTimeout returns the per-delivery timeout.
func (n NotifyConfig) WebhookTimeout() time.Duration {
	return time.Duration(n.WebhookTimeoutMs) * time.Millisecond
}

// DataSource returns the driver-specific data source name.
func (s SubmissionConfig) DataSource() string {
	if s.Driver == "postgres" {
		return s.DSN
	}
	return s.Path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("form.schema_path", "")
	v.SetDefault("form.uischema_path", "")
	v.SetDefault("submission.driver", "file")
	v.SetDefault("submission.path", "./data.json")
	v.SetDefault("submission.dsn", "")
	v.SetDefault("submission.skip_hidden", false)
	v.SetDefault("notify.buffer_size", 16)
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.webhook_timeout_ms", 5000)
}

// Load reads app.yaml from the working directory (or ../..), overlays
// environment variables and validates the result. A missing config file is
// not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../..")
	return load(v)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
