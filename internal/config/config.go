package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	ServiceM8  ServiceM8Config  `yaml:"servicem8" mapstructure:"servicem8"`
	Signing    SigningConfig    `yaml:"signing" mapstructure:"signing"`
	Job        JobConfig        `yaml:"job" mapstructure:"job"`
	Inspection InspectionConfig `yaml:"inspection" mapstructure:"inspection"`
	Resend     ResendConfig     `yaml:"resend" mapstructure:"resend"`
	Booking    BookingConfig    `yaml:"booking" mapstructure:"booking"`
	Site       SiteConfig       `yaml:"site" mapstructure:"site"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServiceM8Config holds ServiceM8 REST API settings.
type ServiceM8Config struct {
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit         float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxPages          int     `yaml:"max_pages" mapstructure:"max_pages"`
	NoteRelatedObject string  `yaml:"note_related_object" mapstructure:"note_related_object"`
}

// SigningConfig holds the shared secret used to verify lead tokens.
type SigningConfig struct {
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// JobConfig holds the fixed per-deployment job fields.
type JobConfig struct {
	Status             string `yaml:"status" mapstructure:"status"`
	Description        string `yaml:"description" mapstructure:"description"`
	CompanyContactType string `yaml:"company_contact_type" mapstructure:"company_contact_type"`
	JobContactType     string `yaml:"job_contact_type" mapstructure:"job_contact_type"`
}

// InspectionConfig holds the downstream job-link push endpoint settings.
type InspectionConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
}

// ResendConfig holds transactional email sender settings.
type ResendConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	FromEmail string `yaml:"from_email" mapstructure:"from_email"`
	FromName  string `yaml:"from_name" mapstructure:"from_name"`
}

// BookingConfig holds booking-request email routing.
type BookingConfig struct {
	ToEmail string `yaml:"to_email" mapstructure:"to_email"`
}

// SiteConfig holds the public site settings.
type SiteConfig struct {
	// BaseURL is the fallback origin for fetching PDF attachments when the
	// request carries no Origin header.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SNAPSHOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("servicem8.base_url", "https://api.servicem8.com/api_1.0")
	v.SetDefault("servicem8.rate_limit", 10.0)
	v.SetDefault("servicem8.max_pages", 10)
	v.SetDefault("servicem8.note_related_object", "job")
	v.SetDefault("job.status", "Quote")
	v.SetDefault("job.description", "Whole house electric health check")
	v.SetDefault("job.company_contact_type", "Job Contact")
	v.SetDefault("job.job_contact_type", "Job Contact")
	v.SetDefault("resend.from_email", "onboarding@resend.dev")
	v.SetDefault("resend.from_name", "Better Home Technology")
	v.SetDefault("booking.to_email", "info@bhtechnology.com.au")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
