package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Export    ExportConfig    `mapstructure:"export"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Server    ServerConfig    `mapstructure:"server"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Outputs   OutputsConfig   `mapstructure:"outputs"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite" (Path is used) or "mysql" (Host and friends are used).
	Driver          string            `mapstructure:"driver" validate:"oneof=sqlite mysql"`
	Path            string            `mapstructure:"path" validate:"required_if=Driver sqlite"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ExportConfig struct {
	Directory  string `mapstructure:"directory" validate:"omitempty,dir"`
	AppVersion string `mapstructure:"app_version" validate:"required"`
}

type RemoteConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=1"`
	RetryAttempts  int    `mapstructure:"retry_attempts" validate:"gte=0,lte=10"`
	UserAgent      string `mapstructure:"user_agent"`
}

type ServerConfig struct {
	Port     int        `mapstructure:"port" validate:"gte=1,lte=65535"`
	CORS     CORSConfig `mapstructure:"cors"`
	LockFile string     `mapstructure:"lock_file"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type TemplatesConfig struct {
	// ReportTemplate is optional; the embedded template is used when empty.
	ReportTemplate string `mapstructure:"report_template" validate:"omitempty,file"`
}

type OutputsConfig struct {
	ReportDirectory string `mapstructure:"report_directory"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/elicitor")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "elicitor.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "elicitor")
	v.SetDefault("database.username", "user")
	v.SetDefault("export.directory", "")
	v.SetDefault("export.app_version", "2.0.0")
	v.SetDefault("remote.timeout_seconds", 30)
	v.SetDefault("remote.retry_attempts", 3)
	v.SetDefault("remote.user_agent", "elicitor")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.lock_file", "elicitor.lock")
	v.SetDefault("templates.report_template", "")
	v.SetDefault("outputs.report_directory", filepath.Join("outputs", "reports"))

	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("database.path", "ELICITOR_DB_PATH"); err != nil {
		return nil, fmt.Errorf("failed to bind ELICITOR_DB_PATH environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// Load reads the configuration with a fresh ConfigLoader.
func Load(configFile string) (*Config, error) {
	loader, err := NewConfigLoader(configFile)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}
