// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Platform identifies the runtime surface. Web clients route feed requests
// through a proxy and emit no haptic feedback.
type Platform string

const (
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

// FeedConfig holds settings for the arXiv feed client.
type FeedConfig struct {
	// BaseURL is the feed query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PageSize is the number of papers requested per page (default 9).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// ProxyEnabled routes requests through ProxyBase when running on the web platform.
	ProxyEnabled bool `json:"proxy_enabled" yaml:"proxy_enabled" mapstructure:"proxy_enabled"`

	// ProxyBase is prepended to the percent-encoded feed URL.
	ProxyBase string `json:"proxy_base" yaml:"proxy_base" mapstructure:"proxy_base"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every feed request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig holds settings for the local document store.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// AuthConfig holds settings for the identity provider.
type AuthConfig struct {
	// SigningKey signs session tokens. Usually supplied by .secrets/jwt-signing-key.
	SigningKey string `json:"-" yaml:"-" mapstructure:"signing_key"`

	// SessionTTL is how long a session token stays valid.
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" mapstructure:"session_ttl"`

	// RecentLoginWindow bounds how old a sign-in may be for sensitive
	// operations performed without re-entering the password.
	RecentLoginWindow time.Duration `json:"recent_login_window" yaml:"recent_login_window" mapstructure:"recent_login_window"`

	// TokenTTL bounds verification and password-reset tokens.
	TokenTTL time.Duration `json:"token_ttl" yaml:"token_ttl" mapstructure:"token_ttl"`

	// MinPasswordLength is the shortest accepted password (default 6).
	MinPasswordLength int `json:"min_password_length" yaml:"min_password_length" mapstructure:"min_password_length"`
}

// ExportConfig holds settings for library exports.
type ExportConfig struct {
	// Dir is where export files are written.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Format is "yaml" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Bucket enables upload to S3-compatible storage when set.
	Bucket   string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// AccessKey and SecretKey are usually supplied by .secrets/.
	AccessKey string `json:"-" yaml:"-" mapstructure:"access_key"`
	SecretKey string `json:"-" yaml:"-" mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings.
type Config struct {
	Platform Platform     `json:"platform" yaml:"platform" mapstructure:"platform"`
	Feed     FeedConfig   `json:"feed" yaml:"feed" mapstructure:"feed"`
	Store    StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Auth     AuthConfig   `json:"auth" yaml:"auth" mapstructure:"auth"`
	Export   ExportConfig `json:"export" yaml:"export" mapstructure:"export"`
	Log      LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when no config file overrides them.
func DefaultConfig() Config {
	return Config{
		Platform: PlatformNative,
		Feed: FeedConfig{
			BaseURL:      "https://export.arxiv.org/api/query",
			PageSize:     9,
			ProxyEnabled: true,
			ProxyBase:    "https://corsproxy.io/?",
			Timeout:      30 * time.Second,
			UserAgent:    "parchment/0.1",
		},
		Store: StoreConfig{
			Path: "parchment.db",
		},
		Auth: AuthConfig{
			SessionTTL:        30 * 24 * time.Hour,
			RecentLoginWindow: 5 * time.Minute,
			TokenTTL:          24 * time.Hour,
			MinPasswordLength: 6,
		},
		Export: ExportConfig{
			Dir:    "exports",
			Format: "yaml",
			Region: "us-east-1",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
