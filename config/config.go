package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via config.json or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	SiteURL            string
	SiteTitle          string
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Country access control for submissions
	AllowedCountry []string
	DenyCountry    []string
	IPLocationAPI  string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database: mysql, postgres or sqlite
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// SMTP for notifications
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Redis for sessions and caching; empty host disables Redis
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
	// Site owner, the only privileged account
	OwnerUsername     string
	OwnerPasswordHash string
	OwnerNickName     string
	OwnerEmail        string
	OwnerQQorWechat   string
	LoginCaptcha      bool
	// Board behaviour
	BanRegex           string
	ModRegex           string
	NotifyTemplatePath string
	MsgCaptchaEnabled  bool
	SessionTTLHours    int
	ListCacheSeconds   int // negative disables the visitor listing cache
	InboxRetentionDays int
	JobWorkers         int
	JobQueueSize       int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: config/config.json -> defaults -> environment variable overrides
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("invalid config/config.json, ignoring: %v", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

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

// Set replaces the cached configuration. Used by tests and tooling.
func Set(c AppConfig) {
	applyDefaults(&c)
	cfg = c
	loaded = true
}

// Validate reports settings the server cannot start without.
func (c AppConfig) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.OwnerUsername == "" || c.OwnerPasswordHash == "" {
		errs = append(errs, errors.New("owner username and password hash must be set"))
	}
	if c.OwnerEmail == "" {
		errs = append(errs, errors.New("OWNER_EMAIL must be set to receive notifications"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads grouped JSON sections into out. Missing file is not an error.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
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
		out.SiteURL = getString(app, "SiteURL")
		out.SiteTitle = getString(app, "SiteTitle")
		out.IPLocationAPI = getString(app, "IPLocationAPI")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.AllowedCountry = getStringSlice(app, "AllowedCountry")
		out.DenyCountry = getStringSlice(app, "DenyCountry")
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if sm, ok := raw["smtp"].(map[string]any); ok {
		out.SMTPHost = getString(sm, "SMTPHost")
		out.SMTPPort = getInt(sm, "SMTPPort")
		out.SMTPUsername = getString(sm, "SMTPUsername")
		out.SMTPPassword = getString(sm, "SMTPPassword")
		out.SMTPFrom = getString(sm, "SMTPFrom")
		out.SMTPFromName = getString(sm, "SMTPFromName")
		out.SMTPTLS = getBool(sm, "SMTPTLS")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	if ow, ok := raw["owner"].(map[string]any); ok {
		out.OwnerUsername = getString(ow, "Username")
		out.OwnerPasswordHash = getString(ow, "PasswordHash")
		out.OwnerNickName = getString(ow, "NickName")
		out.OwnerEmail = getString(ow, "Email")
		out.OwnerQQorWechat = getString(ow, "QQorWechat")
		out.LoginCaptcha = getBool(ow, "LoginCaptcha")
	}

	if bd, ok := raw["board"].(map[string]any); ok {
		out.BanRegex = getString(bd, "BanRegex")
		out.ModRegex = getString(bd, "ModRegex")
		out.NotifyTemplatePath = getString(bd, "NotifyTemplatePath")
		out.MsgCaptchaEnabled = getBool(bd, "CaptchaEnabled")
		out.SessionTTLHours = getInt(bd, "SessionTTLHours")
		out.ListCacheSeconds = getInt(bd, "ListCacheSeconds")
		out.InboxRetentionDays = getInt(bd, "InboxRetentionDays")
		out.JobWorkers = getInt(bd, "JobWorkers")
		out.JobQueueSize = getInt(bd, "JobQueueSize")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:8080"
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	if c.SiteTitle == "" {
		c.SiteTitle = "Blog"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 10
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.IPLocationAPI == "" {
		c.IPLocationAPI = "https://api.cloudcpp.com/ip/"
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "msgboard"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.OwnerNickName == "" {
		c.OwnerNickName = c.OwnerUsername
	}
	if c.NotifyTemplatePath == "" {
		c.NotifyTemplatePath = filepath.Join("static", "template", "notify.html")
	}
	if c.SessionTTLHours == 0 {
		c.SessionTTLHours = 24
	}
	if c.ListCacheSeconds == 0 {
		c.ListCacheSeconds = 600
	}
	if c.JobWorkers == 0 {
		c.JobWorkers = 4
	}
	if c.JobQueueSize == 0 {
		c.JobQueueSize = 1000
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("SITE_URL", ""); v != "" {
		c.SiteURL = strings.TrimRight(v, "/")
	}
	if v := getEnv("SITE_TITLE", ""); v != "" {
		c.SiteTitle = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.AllowedCountry = readListEnv("ALLOWED_COUNTRY", c.AllowedCountry)
	c.DenyCountry = readListEnv("DENY_COUNTRY", c.DenyCountry)
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("SMTP_HOST", ""); v != "" {
		c.SMTPHost = v
	}
	if v := getEnv("SMTP_PORT", ""); v != "" {
		c.SMTPPort = mustParseInt(v)
	}
	if v := getEnv("SMTP_USERNAME", ""); v != "" {
		c.SMTPUsername = v
	}
	if v := getEnv("SMTP_PASSWORD", ""); v != "" {
		c.SMTPPassword = v
	}
	if v := getEnv("SMTP_FROM", ""); v != "" {
		c.SMTPFrom = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("OWNER_USERNAME", ""); v != "" {
		c.OwnerUsername = v
	}
	if v := getEnv("OWNER_PASSWORD_HASH", ""); v != "" {
		c.OwnerPasswordHash = v
	}
	if v := getEnv("OWNER_EMAIL", ""); v != "" {
		c.OwnerEmail = v
	}
	if v := getEnv("BAN_REGEX", ""); v != "" {
		c.BanRegex = v
	}
	if v := getEnv("MOD_REGEX", ""); v != "" {
		c.ModRegex = v
	}
	if v := getEnv("MSG_CAPTCHA_ENABLED", ""); v != "" {
		c.MsgCaptchaEnabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := getEnv("OWNER_LOGIN_CAPTCHA", ""); v != "" {
		c.LoginCaptcha = v == "1" || strings.EqualFold(v, "true")
	}
	if v := getEnv("LIST_CACHE_SECONDS", ""); v != "" {
		c.ListCacheSeconds = mustParseInt(v)
	}
	if v := getEnv("INBOX_RETENTION_DAYS", ""); v != "" {
		c.InboxRetentionDays = mustParseInt(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
