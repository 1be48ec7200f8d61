package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/arkapradana/arenahub/reward"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	DatabaseURI        string
	DBHost             string
	DBPort             string
	DBUser             string
	DBPassword         string
	DBName             string
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	RateLimitPerMinute int
	AllowedOrigins     []string
	OAuthRedirectBase  string
	// Country access control (region-locked tournaments)
	AllowedCountry []string
	DenyCountry    []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Notice bar shown on the SPA
	NoticeTitle string
	NoticeHTML  string
	// Community links for the SPA footer
	CommunityWhatsAppURL  string
	CommunityInstagramURL string
	CommunityYouTubeURL   string
	SupportEmail          string
	// SMTP for email verification
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Redis for caching/verification
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Registration security
	RegisterCaptchaEnabled        bool
	RegisterMaxPerIPPerDay        int
	RegisterAttemptCooldownSec    int
	RegisterFailedMaxPerIPPerHour int
	RegisterTempBanMinutes        int
	// Admins
	AdminUsernames []string
	// Ad-watch reward loop
	RewardDailyLimit          int
	RewardCooldownSeconds     int
	RewardMinWatchMS          int
	RewardExp                 int
	RewardPollIntervalMS      int
	RewardMaxWatchWaitSeconds int
	RewardAdURL               string
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration from environment variables. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// RewardConfig builds the engine configuration from the loaded values.
func (c AppConfig) RewardConfig() reward.Config {
	return reward.Config{
		DailyLimit:   c.RewardDailyLimit,
		Cooldown:     time.Duration(c.RewardCooldownSeconds) * time.Second,
		MinWatchTime: time.Duration(c.RewardMinWatchMS) * time.Millisecond,
		PollInterval: time.Duration(c.RewardPollIntervalMS) * time.Millisecond,
		RewardExp:    c.RewardExp,
		MaxWatchWait: time.Duration(c.RewardMaxWatchWaitSeconds) * time.Second,
		AdURL:        c.RewardAdURL,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads JSON file into cfg if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case int:
				return t
			case json.Number:
				i, _ := t.Int64()
				return int(i)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				res := make([]string, 0, len(arr))
				for _, it := range arr {
					if s, ok := it.(string); ok {
						res = append(res, s)
					}
				}
				return res
			}
		}
		return nil
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
		out.OAuthRedirectBase = getString(app, "OAuthRedirectBase")
		if list := getStringSlice(app, "AllowedCountry"); len(list) > 0 {
			out.AllowedCountry = list
		}
		if list := getStringSlice(app, "DenyCountry"); len(list) > 0 {
			out.DenyCountry = list
		}
		out.GinMode = getString(app, "GinMode")
		out.GinPath = getString(app, "GinPath")
		if list := getStringSlice(app, "AdminUsernames"); len(list) > 0 {
			out.AdminUsernames = list
		}
	}

	if db, ok := raw["database"].(map[string]any); ok {
		out.DatabaseURI = getString(db, "DatabaseURI")
		out.DBHost = getString(db, "DBHost")
		out.DBPort = getString(db, "DBPort")
		out.DBUser = getString(db, "DBUser")
		out.DBPassword = getString(db, "DBPassword")
		out.DBName = getString(db, "DBName")
	}

	if oauth, ok := raw["oauth"].(map[string]any); ok {
		out.GitHubClientID = getString(oauth, "GitHubClientID")
		out.GitHubClientSecret = getString(oauth, "GitHubClientSecret")
		out.GoogleClientID = getString(oauth, "GoogleClientID")
		out.GoogleClientSecret = getString(oauth, "GoogleClientSecret")
	}

	if smtp, ok := raw["smtp"].(map[string]any); ok {
		out.SMTPHost = getString(smtp, "Host")
		out.SMTPPort = getInt(smtp, "Port")
		out.SMTPUsername = getString(smtp, "Username")
		out.SMTPPassword = getString(smtp, "Password")
		out.SMTPFrom = getString(smtp, "From")
		out.SMTPFromName = getString(smtp, "FromName")
		out.SMTPTLS = getBool(smtp, "TLS")
	}

	if rd, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rd, "Host")
		out.RedisPort = getInt(rd, "Port")
		out.RedisDB = getInt(rd, "DB")
		out.RedisPassword = getString(rd, "Password")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if reg, ok := raw["register"].(map[string]any); ok {
		out.RegisterCaptchaEnabled = getBool(reg, "CaptchaEnabled")
		out.RegisterMaxPerIPPerDay = getInt(reg, "MaxPerIPPerDay")
		out.RegisterAttemptCooldownSec = getInt(reg, "AttemptCooldownSec")
		out.RegisterFailedMaxPerIPPerHour = getInt(reg, "FailedMaxPerIPPerHour")
		out.RegisterTempBanMinutes = getInt(reg, "TempBanMinutes")
	}

	if rw, ok := raw["reward"].(map[string]any); ok {
		out.RewardDailyLimit = getInt(rw, "DailyLimit")
		out.RewardCooldownSeconds = getInt(rw, "CooldownSeconds")
		out.RewardMinWatchMS = getInt(rw, "MinWatchMS")
		out.RewardExp = getInt(rw, "Exp")
		out.RewardPollIntervalMS = getInt(rw, "PollIntervalMS")
		out.RewardMaxWatchWaitSeconds = getInt(rw, "MaxWatchWaitSeconds")
		out.RewardAdURL = getString(rw, "AdURL")
	}

	if site, ok := raw["site"].(map[string]any); ok {
		out.NoticeTitle = getString(site, "NoticeTitle")
		out.NoticeHTML = getString(site, "NoticeHTML")
		out.CommunityWhatsAppURL = getString(site, "WhatsAppURL")
		out.CommunityInstagramURL = getString(site, "InstagramURL")
		out.CommunityYouTubeURL = getString(site, "YouTubeURL")
		out.SupportEmail = getString(site, "SupportEmail")
	}

	return nil
}

func applyDefaults(out *AppConfig) {
	if out.AppPort == "" {
		out.AppPort = "8080"
	}
	if out.DBHost == "" {
		out.DBHost = "127.0.0.1"
	}
	if out.DBPort == "" {
		out.DBPort = "3306"
	}
	if out.DBUser == "" {
		out.DBUser = "root"
	}
	if out.DBName == "" {
		out.DBName = "arenahub"
	}
	if out.RateLimitPerMinute == 0 {
		out.RateLimitPerMinute = 60
	}
	if len(out.AllowedOrigins) == 0 {
		out.AllowedOrigins = []string{"*"}
	}
	if out.GinMode == "" {
		out.GinMode = "release"
	}
	if out.GinPath == "" {
		out.GinPath = "logs/gin.log"
	}
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	if out.LogPath == "" {
		out.LogPath = "logs/app.log"
	}
	if out.RedisHost == "" {
		out.RedisHost = "127.0.0.1"
	}
	if out.RedisPort == 0 {
		out.RedisPort = 6379
	}
	if out.SMTPPort == 0 {
		out.SMTPPort = 587
	}
	if out.RegisterMaxPerIPPerDay == 0 {
		out.RegisterMaxPerIPPerDay = 5
	}
	if out.RegisterAttemptCooldownSec == 0 {
		out.RegisterAttemptCooldownSec = 30
	}
	if out.RegisterFailedMaxPerIPPerHour == 0 {
		out.RegisterFailedMaxPerIPPerHour = 10
	}
	if out.RegisterTempBanMinutes == 0 {
		out.RegisterTempBanMinutes = 60
	}
	if out.RewardDailyLimit == 0 {
		out.RewardDailyLimit = 5
	}
	if out.RewardCooldownSeconds == 0 {
		out.RewardCooldownSeconds = 40
	}
	if out.RewardMinWatchMS == 0 {
		out.RewardMinWatchMS = 25000
	}
	if out.RewardExp == 0 {
		out.RewardExp = 5
	}
	if out.RewardPollIntervalMS == 0 {
		out.RewardPollIntervalMS = 1000
	}
	if out.RewardMaxWatchWaitSeconds == 0 {
		out.RewardMaxWatchWaitSeconds = 600
	}
}

func applyEnvOverrides(out *AppConfig) {
	out.AppPort = getEnv("APP_PORT", out.AppPort)
	out.JWTSecret = getEnv("JWT_SECRET", out.JWTSecret)
	out.DatabaseURI = getEnv("DATABASE_URI", out.DatabaseURI)
	out.DBHost = getEnv("DB_HOST", out.DBHost)
	out.DBPort = getEnv("DB_PORT", out.DBPort)
	out.DBUser = getEnv("DB_USER", out.DBUser)
	out.DBPassword = getEnv("DB_PASSWORD", out.DBPassword)
	out.DBName = getEnv("DB_NAME", out.DBName)
	out.GitHubClientID = getEnv("GITHUB_CLIENT_ID", out.GitHubClientID)
	out.GitHubClientSecret = getEnv("GITHUB_CLIENT_SECRET", out.GitHubClientSecret)
	out.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", out.GoogleClientID)
	out.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", out.GoogleClientSecret)
	out.OAuthRedirectBase = getEnv("OAUTH_REDIRECT_BASE", out.OAuthRedirectBase)
	out.GinMode = getEnv("GIN_MODE", out.GinMode)
	out.LogLevel = getEnv("LOG_LEVEL", out.LogLevel)
	out.RedisHost = getEnv("REDIS_HOST", out.RedisHost)
	out.RedisPassword = getEnv("REDIS_PASSWORD", out.RedisPassword)
	out.SMTPHost = getEnv("SMTP_HOST", out.SMTPHost)
	out.SMTPUsername = getEnv("SMTP_USERNAME", out.SMTPUsername)
	out.SMTPPassword = getEnv("SMTP_PASSWORD", out.SMTPPassword)
	out.SMTPFrom = getEnv("SMTP_FROM", out.SMTPFrom)
	out.RewardAdURL = getEnv("REWARD_AD_URL", out.RewardAdURL)

	if v := os.Getenv("REDIS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.RedisPort = n
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.RedisDB = n
		}
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.SMTPPort = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("ADMIN_USERNAMES"); v != "" {
		parts := strings.Split(v, ",")
		names := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				names = append(names, s)
			}
		}
		out.AdminUsernames = names
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		out.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("REWARD_DAILY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.RewardDailyLimit = n
		}
	}
	if v := os.Getenv("REWARD_COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.RewardCooldownSeconds = n
		}
	}
	if v := os.Getenv("REWARD_MIN_WATCH_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.RewardMinWatchMS = n
		}
	}
	if v := os.Getenv("REWARD_EXP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.RewardExp = n
		}
	}
}
