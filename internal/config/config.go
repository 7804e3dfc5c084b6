// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port         string `mapstructure:"PORT"`
	Env          string `mapstructure:"APP_ENV"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	FrontPageURL string `mapstructure:"FRONT_PAGE_URL"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	KakaoClientID      string `mapstructure:"KAKAO_CLIENT_ID"`
	KakaoClientSecret  string `mapstructure:"KAKAO_CLIENT_SECRET"`
	KakaoRedirectURI   string `mapstructure:"KAKAO_REDIRECT_URI"`
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `mapstructure:"GOOGLE_REDIRECT_URI"`
	NaverClientID      string `mapstructure:"NAVER_CLIENT_ID"`
	NaverClientSecret  string `mapstructure:"NAVER_CLIENT_SECRET"`
	NaverRedirectURI   string `mapstructure:"NAVER_REDIRECT_URI"`

	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	UploadBaseURL   string `mapstructure:"UPLOAD_BASE_URL"`
	UploadMaxSizeMB int    `mapstructure:"UPLOAD_MAX_SIZE_MB"`

	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	TracingExporter string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) {
			log.Println("Config file not found; using environment variables and defaults")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set default values for development
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("FRONT_PAGE_URL", "http://127.0.0.1:5500/baNaNa/index.html")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "banana")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5500,http://127.0.0.1:5500")
	viper.SetDefault("UPLOAD_DIR", "/tmp/banana/uploads")
	viper.SetDefault("UPLOAD_BASE_URL", "/uploads")
	viper.SetDefault("UPLOAD_MAX_SIZE_MB", 10)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.FrontPageURL == "" {
		return errors.New("FRONT_PAGE_URL is required")
	}
	if c.UploadMaxSizeMB <= 0 {
		return errors.New("UPLOAD_MAX_SIZE_MB must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
		if len(c.EnabledProviders()) == 0 {
			return errors.New("at least one OAuth provider must be fully configured in production")
		}
	} else {
		if len(c.JWTSecret) < 32 {
			log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}

// ProviderCredentials is a client id/secret/redirect-URI triple for one OAuth provider.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Complete reports whether every field of the triple is set.
func (p ProviderCredentials) Complete() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != ""
}

// ProviderCredentialsFor returns the credential triple for the named provider.
func (c *Config) ProviderCredentialsFor(provider string) ProviderCredentials {
	switch provider {
	case "kakao":
		return ProviderCredentials{c.KakaoClientID, c.KakaoClientSecret, c.KakaoRedirectURI}
	case "google":
		return ProviderCredentials{c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURI}
	case "naver":
		return ProviderCredentials{c.NaverClientID, c.NaverClientSecret, c.NaverRedirectURI}
	}
	return ProviderCredentials{}
}

// EnabledProviders returns the names of providers whose credential triples are complete.
func (c *Config) EnabledProviders() []string {
	var enabled []string
	for _, name := range []string{"kakao", "google", "naver"} {
		if c.ProviderCredentialsFor(name).Complete() {
			enabled = append(enabled, name)
		}
	}
	return enabled
}
