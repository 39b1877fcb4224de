// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables; each field's
// variable is the upper-cased mapstructure key.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string `mapstructure:"port" validate:"required,numeric"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `mapstructure:"database_url" validate:"required"`

	// LogLevel controls the minimum log level. Defaults to "info".
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override the default.
	CORSOrigins []string `mapstructure:"-" env:"CORS_ORIGINS" validate:"dive,url"`

	// FirebaseProjectID is the expected token audience and issuer suffix.
	FirebaseProjectID string `mapstructure:"firebase_project_id" validate:"required"`

	// FirebaseVerifySignature turns token signature checks on. Only disable
	// it for local development.
	FirebaseVerifySignature bool `mapstructure:"firebase_verify_signature"`

	// FirebaseCertsURL serves the x509 certificates that sign ID tokens.
	FirebaseCertsURL string `mapstructure:"firebase_certs_url" validate:"required,url"`

	// MapboxAccessToken enables live geocoding. Empty means static suggestions only.
	MapboxAccessToken string `mapstructure:"mapbox_access_token"`
	MapboxBaseURL     string `mapstructure:"mapbox_base_url" validate:"required,url"`

	// UnsplashAccessKey is sent as the Client-ID for photo lookups.
	UnsplashAccessKey string `mapstructure:"unsplash_access_key"`
	UnsplashBaseURL   string `mapstructure:"unsplash_base_url" validate:"required,url"`

	// ProviderTimeout bounds every outbound call to Mapbox, Unsplash and the
	// certificate endpoint.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" validate:"gt=0"`

	// MaxBodyBytes caps the size of request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"gt=0"`

	// AutoMigrate applies pending migrations at startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

var defaults = map[string]any{
	"port":                      "8080",
	"database_url":              "",
	"log_level":                 "info",
	"cors_origins":              "http://localhost:3000",
	"firebase_project_id":       "tripstory-1f299",
	"firebase_verify_signature": true,
	"firebase_certs_url":        "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com",
	"mapbox_access_token":       "",
	"mapbox_base_url":           "https://api.mapbox.com",
	"unsplash_access_key":       "demo",
	"unsplash_base_url":         "https://api.unsplash.com",
	"provider_timeout":          "5s",
	"max_body_bytes":            1 << 20,
	"auto_migrate":              true,
}

// Load reads configuration from environment variables and returns a Config.
// Empty variables count as unset. Returns an error naming every variable that
// is missing or invalid.
func Load() (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	cfg.CORSOrigins = splitCSV(v.GetString("cors_origins"))

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", describe(err))
	}
	return cfg, nil
}

var validate = newValidator()

// newValidator names fields by their environment variable: the env tag when
// present, otherwise the upper-cased mapstructure key.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return strings.ToUpper(f.Tag.Get("mapstructure"))
	})
	return v
}

// describe flattens validator errors into one readable message.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s %s): %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid environment: %s", strings.Join(msgs, "; "))
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
