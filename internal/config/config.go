package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/workforcehub/hubauth/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	App      AppConfig
	Provider ProviderConfig
	Gateway  GatewayConfig
	Storage  StorageConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AppConfig describes the coordinator's own public URL; redirect URIs default
// to routes under it.
type AppConfig struct {
	URL string
}

type ProviderConfig struct {
	Authority             string
	ClientID              string
	RedirectURI           string
	PostLogoutRedirectURI string
	Scopes                []string
	AutomaticSilentRenew  bool
	SilentRedirectURI     string
	LoadUserInfo          bool
	IdentityHint          string
}

type GatewayConfig struct {
	URL     string
	Timeout time.Duration
}

// StorageConfig selects the session-scoped credential medium: memory, file or redis.
type StorageConfig struct {
	Backend string
	Dir     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("SERVER_HOST", "127.0.0.1")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("APP_URL", "http://localhost:3000")
	viper.SetDefault("OIDC_AUTHORITY", "https://accounts.google.com")
	viper.SetDefault("OIDC_SCOPES", "openid profile email")
	viper.SetDefault("OIDC_AUTOMATIC_SILENT_RENEW", true)
	viper.SetDefault("OIDC_LOAD_USER_INFO", true)
	viper.SetDefault("API_GATEWAY_URL", "http://localhost:8080")
	viper.SetDefault("API_GATEWAY_TIMEOUT", 30)
	viper.SetDefault("CREDENTIAL_STORAGE", "file")
	viper.SetDefault("CREDENTIAL_STORAGE_DIR", ".hubauth")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_TTL", 720)

	appURL := strings.TrimRight(viper.GetString("APP_URL"), "/")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		App: AppConfig{URL: appURL},
		Provider: ProviderConfig{
			Authority:             viper.GetString("OIDC_AUTHORITY"),
			ClientID:              viper.GetString("OIDC_CLIENT_ID"),
			RedirectURI:           viper.GetString("OIDC_REDIRECT_URI"),
			PostLogoutRedirectURI: viper.GetString("OIDC_POST_LOGOUT_REDIRECT_URI"),
			Scopes:                strings.Fields(viper.GetString("OIDC_SCOPES")),
			AutomaticSilentRenew:  viper.GetBool("OIDC_AUTOMATIC_SILENT_RENEW"),
			SilentRedirectURI:     viper.GetString("OIDC_SILENT_REDIRECT_URI"),
			LoadUserInfo:          viper.GetBool("OIDC_LOAD_USER_INFO"),
			IdentityHint:          viper.GetString("OIDC_IDENTITY_HINT"),
		},
		Gateway: GatewayConfig{
			URL:     strings.TrimRight(viper.GetString("API_GATEWAY_URL"), "/"),
			Timeout: time.Duration(viper.GetInt("API_GATEWAY_TIMEOUT")) * time.Second,
		},
		Storage: StorageConfig{
			Backend: viper.GetString("CREDENTIAL_STORAGE"),
			Dir:     viper.GetString("CREDENTIAL_STORAGE_DIR"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
			TTL:      time.Duration(viper.GetInt("REDIS_TTL")) * time.Minute,
		},
	}

	// redirect URIs default to routes under the app URL
	if cfg.Provider.RedirectURI == "" {
		cfg.Provider.RedirectURI = appURL + "/auth/callback"
	}
	if cfg.Provider.SilentRedirectURI == "" {
		cfg.Provider.SilentRedirectURI = appURL + "/auth/silent"
	}
	if cfg.Provider.PostLogoutRedirectURI == "" {
		cfg.Provider.PostLogoutRedirectURI = appURL + "/login"
	}

	// Basic validation
	if cfg.Provider.ClientID == "" {
		logger.Warnf("OIDC_CLIENT_ID is not set; federated login will fail until it is configured")
	}

	return cfg, nil
}
