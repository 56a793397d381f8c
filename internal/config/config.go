package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for calbot
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Google   GoogleConfig   `mapstructure:"google"`
	NLP      NLPConfig      `mapstructure:"nlp"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Security SecurityConfig `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BaseURL      string `mapstructure:"base_url"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// WhatsAppConfig holds WhatsApp Cloud API settings
type WhatsAppConfig struct {
	AccessToken   string  `mapstructure:"access_token"`
	PhoneNumberID string  `mapstructure:"phone_number_id"`
	VerifyToken   string  `mapstructure:"verify_token"`
	APIVersion    string  `mapstructure:"api_version"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst"`
}

// GoogleConfig holds Google OAuth and Calendar settings
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	Timezone     string `mapstructure:"timezone"`
}

// NLPConfig holds parser tuning
type NLPConfig struct {
	AutoCreateThreshold int    `mapstructure:"auto_create_threshold"`
	ConfirmThreshold    int    `mapstructure:"confirm_threshold"`
	ClarifyThreshold    int    `mapstructure:"clarify_threshold"`
	DefaultDurationMin  int    `mapstructure:"default_duration_min"`
	DefaultHour         int    `mapstructure:"default_hour"`
	DefaultLanguage     string `mapstructure:"default_language"`
	DialogueTimeoutMin  int    `mapstructure:"dialogue_timeout_min"`
}

// ReminderConfig holds reminder scheduling settings
type ReminderConfig struct {
	Enabled       bool  `mapstructure:"enabled"`
	LeadMinutes   []int `mapstructure:"lead_minutes"`
	SyncEveryHrs  int   `mapstructure:"sync_every_hours"`
	CheckEverySec int   `mapstructure:"check_every_seconds"`
}

// SecurityConfig holds security settings
type SecurityConfig struct {
	JWTSecret     string   `mapstructure:"jwt_secret"`
	AdminPassword string   `mapstructure:"admin_password"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "calbot.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "calbot.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (CALBOT_SERVER_PORT, CALBOT_WHATSAPP_ACCESS_TOKEN, etc.)
	v.SetEnvPrefix("CALBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// WhatsApp defaults
	v.SetDefault("whatsapp.api_version", "v18.0")
	v.SetDefault("whatsapp.rate_per_second", 10.0)
	v.SetDefault("whatsapp.rate_burst", 20)

	// Google defaults
	v.SetDefault("google.timezone", "Asia/Jerusalem")

	// NLP defaults
	v.SetDefault("nlp.auto_create_threshold", 80)
	v.SetDefault("nlp.confirm_threshold", 50)
	v.SetDefault("nlp.clarify_threshold", 30)
	v.SetDefault("nlp.default_duration_min", 60)
	v.SetDefault("nlp.default_hour", 9)
	v.SetDefault("nlp.default_language", "en")
	v.SetDefault("nlp.dialogue_timeout_min", 30)

	// Reminder defaults
	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.lead_minutes", []int{1440, 60})
	v.SetDefault("reminder.sync_every_hours", 6)
	v.SetDefault("reminder.check_every_seconds", 60)

	// Security defaults
	v.SetDefault("security.allow_origins", []string{"*"})
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "calbot")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "calbot")
}

// loadEnvOverrides loads specific env vars that Viper doesn't pick up reliably
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.Server.Address = getEnv("CALBOT_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("CALBOT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	cfg.Server.BaseURL = getEnv("CALBOT_SERVER_BASE_URL", cfg.Server.BaseURL)

	cfg.Storage.DataDir = getEnv("CALBOT_STORAGE_DATA_DIR", cfg.Storage.DataDir)

	cfg.WhatsApp.AccessToken = ResolveEnvWithAliases("CALBOT_WHATSAPP_ACCESS_TOKEN", cfg.WhatsApp.AccessToken)
	cfg.WhatsApp.PhoneNumberID = ResolveEnvWithAliases("CALBOT_WHATSAPP_PHONE_NUMBER_ID", cfg.WhatsApp.PhoneNumberID)
	cfg.WhatsApp.VerifyToken = ResolveEnvWithAliases("CALBOT_WHATSAPP_VERIFY_TOKEN", cfg.WhatsApp.VerifyToken)

	cfg.Google.ClientID = ResolveEnvWithAliases("CALBOT_GOOGLE_CLIENT_ID", cfg.Google.ClientID)
	cfg.Google.ClientSecret = ResolveEnvWithAliases("CALBOT_GOOGLE_CLIENT_SECRET", cfg.Google.ClientSecret)
	cfg.Google.RedirectURL = getEnv("CALBOT_GOOGLE_REDIRECT_URL", cfg.Google.RedirectURL)

	cfg.Security.JWTSecret = ResolveEnvWithAliases("CALBOT_SECURITY_JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Security.AdminPassword = ResolveEnvWithAliases("CALBOT_SECURITY_ADMIN_PASSWORD", cfg.Security.AdminPassword)
}

func validate(cfg *Config) error {
	if cfg.NLP.AutoCreateThreshold <= cfg.NLP.ConfirmThreshold {
		return fmt.Errorf("nlp.auto_create_threshold must be above nlp.confirm_threshold")
	}
	if cfg.NLP.ConfirmThreshold <= cfg.NLP.ClarifyThreshold {
		return fmt.Errorf("nlp.confirm_threshold must be above nlp.clarify_threshold")
	}
	if cfg.NLP.DefaultHour < 0 || cfg.NLP.DefaultHour > 23 {
		return fmt.Errorf("nlp.default_hour must be between 0 and 23")
	}

	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("google.timezone is invalid: %w", err)
	}

	if cfg.Reminder.Enabled && len(cfg.Reminder.LeadMinutes) == 0 {
		return fmt.Errorf("reminder.lead_minutes must not be empty when reminders are enabled")
	}

	// Generate JWT secret if not provided
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = generateRandomString(32)
	}

	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Google.Timezone)
}

func generateRandomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
