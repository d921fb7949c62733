package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = "8000"
	DefaultGeminiModel    = "gemini-2.5-flash-preview-05-20"
	DefaultGeminiBaseURL  = "https://generativelanguage.googleapis.com"
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxBodyBytes   = 10 << 20
)

// Config is loaded once at start-up and treated as read-only afterwards.
type Config struct {
	Port string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	RequestTimeout time.Duration
	MaxBodyBytes   int64

	LogLevel    string
	VerifyModel bool

	// Пустой DatabaseURL отключает аудит.
	DatabaseURL string
}

// fileConfig mirrors Config for the optional YAML file. Zero values mean "not set".
type fileConfig struct {
	Port              string `yaml:"port"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	GeminiModel       string `yaml:"gemini_model"`
	GeminiBaseURL     string `yaml:"gemini_base_url"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`
	LogLevel          string `yaml:"log_level"`
	VerifyModel       bool   `yaml:"verify_model"`
	DatabaseURL       string `yaml:"database_url"`
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Load builds the configuration from defaults, then the YAML file at path (if any),
// then environment variables. A missing API key is not an error here: the
// handler reports it per request.
func Load(path string) (*Config, error) {
	fc := fileConfig{}
	if path = strings.TrimSpace(path); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	timeoutSec := int64(DefaultRequestTimeout / time.Second)
	if fc.RequestTimeoutSec > 0 {
		timeoutSec = int64(fc.RequestTimeoutSec)
	}
	maxBody := int64(DefaultMaxBodyBytes)
	if fc.MaxBodyBytes > 0 {
		maxBody = fc.MaxBodyBytes
	}

	apiKey := getEnv("GOOGLE_API_KEY", getEnv("GEMINI_API_KEY", fc.GeminiAPIKey))

	return &Config{
		Port: getEnv("PORT", or(fc.Port, DefaultPort)),

		GeminiAPIKey:  apiKey,
		GeminiModel:   getEnv("GEMINI_MODEL", or(fc.GeminiModel, DefaultGeminiModel)),
		GeminiBaseURL: strings.TrimRight(getEnv("GEMINI_BASE_URL", or(fc.GeminiBaseURL, DefaultGeminiBaseURL)), "/"),

		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", timeoutSec)) * time.Second,
		MaxBodyBytes:   getEnvInt("MAX_BODY_BYTES", maxBody),

		LogLevel:    getEnv("LOG_LEVEL", or(fc.LogLevel, "info")),
		VerifyModel: getEnvBool("VERIFY_MODEL", fc.VerifyModel),

		DatabaseURL: resolveDSN(fc.DatabaseURL),
	}, nil
}

func or(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// resolveDSN prefers DATABASE_URL, then the file value, then POSTGRES_* / PG* vars.
// Without PGHOST the store stays disabled.
func resolveDSN(fromFile string) string {
	if v := getEnv("DATABASE_URL", fromFile); v != "" {
		return v
	}
	host := getEnv("PGHOST", "")
	if host == "" {
		return ""
	}
	user := getEnv("POSTGRES_USER", "potato")
	pass := os.Getenv("POSTGRES_PASSWORD")
	port := getEnv("PGPORT", "5432")
	db := getEnv("POSTGRES_DB", "potato")

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
