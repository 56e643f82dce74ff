package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	GitHub        GitHubConfig        `mapstructure:"github"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Sync          SyncConfig          `mapstructure:"sync"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	SAML          SAMLConfig          `mapstructure:"saml"`
	Domains       DomainsConfig       `mapstructure:"domains"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type GitHubConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	RedirectURL   string `mapstructure:"redirect_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	APIBaseURL    string `mapstructure:"api_base_url"`
}

type RateLimitConfig struct {
	WebhookPerMinute  int `mapstructure:"webhook_per_minute"`
	APIReadPerMinute  int `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int `mapstructure:"api_write_per_minute"`
}

type SyncConfig struct {
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	ResyncEvery   time.Duration `mapstructure:"resync_every"`
	ResyncBatch   int           `mapstructure:"resync_batch"`
}

type NotificationsConfig struct {
	Retention    time.Duration `mapstructure:"retention"`
	CleanupEvery time.Duration `mapstructure:"cleanup_every"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type SAMLConfig struct {
	EntityID        string `mapstructure:"entity_id"`
	ACSURL          string `mapstructure:"acs_url"`
	CertPath        string `mapstructure:"cert_path"`
	KeyPath         string `mapstructure:"key_path"`
	IDPMetadataURL  string `mapstructure:"idp_metadata_url"`
}

type DomainsConfig struct {
	AppBaseURL string `mapstructure:"app_base_url"`
	APIBaseURL string `mapstructure:"api_base_url"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
