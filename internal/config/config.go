package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	Environment string
	CORSOrigins string

	DirectoryBaseURL string
	AuthBaseURL      string
	BillingBaseURL   string
	UpstreamTimeout  time.Duration

	FreeSampleLimit      int
	PaidPerPage          int
	PoolPages            int
	PoolPageSize         int
	PoolFetchConcurrency int

	PoolCacheTTL           time.Duration
	SampleCacheTTL         time.Duration
	UserCacheTTL           time.Duration
	PoolRefreshInterval    time.Duration
	DirectoryServiceCookie string

	KafkaBrokers []string
	KafkaTopic   string
}

type configFile struct {
	Server struct {
		Port        int    `yaml:"port"`
		LogLevel    string `yaml:"log_level"`
		Environment string `yaml:"environment"`
		CORSOrigins string `yaml:"cors_origins"`
	} `yaml:"server"`
	Upstreams struct {
		APIBaseURL       string `yaml:"api_base_url"`
		DirectoryBaseURL string `yaml:"directory_base_url"`
		AuthBaseURL      string `yaml:"auth_base_url"`
		BillingBaseURL   string `yaml:"billing_base_url"`
		TimeoutSeconds   int    `yaml:"timeout_seconds"`
		ServiceCookie    string `yaml:"directory_service_cookie"`
	} `yaml:"upstreams"`
	Dashboard struct {
		FreeSampleLimit      int `yaml:"free_sample_limit"`
		PaidPerPage          int `yaml:"paid_per_page"`
		PoolPages            int `yaml:"pool_pages"`
		PoolPageSize         int `yaml:"pool_page_size"`
		PoolFetchConcurrency int `yaml:"pool_fetch_concurrency"`
		PoolCacheSeconds     int `yaml:"pool_cache_seconds"`
		SampleCacheSeconds   int `yaml:"sample_cache_seconds"`
		UserCacheSeconds     int `yaml:"user_cache_seconds"`
		PoolRefreshSeconds   int `yaml:"pool_refresh_seconds"`
	} `yaml:"dashboard"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dependencies"`
}

func defaults() *Config {
	return &Config{
		Port:                 "8080",
		LogLevel:             "info",
		Environment:          "development",
		CORSOrigins:          "*",
		DirectoryBaseURL:     "http://localhost:4000",
		AuthBaseURL:          "http://localhost:4000",
		BillingBaseURL:       "http://localhost:4000",
		UpstreamTimeout:      10 * time.Second,
		FreeSampleLimit:      50,
		PaidPerPage:          25,
		PoolPages:            4,
		PoolPageSize:         100,
		PoolFetchConcurrency: 2,
		PoolCacheTTL:         10 * time.Minute,
		SampleCacheTTL:       30 * time.Minute,
		UserCacheTTL:         time.Minute,
		PoolRefreshInterval:  5 * time.Minute,
		KafkaTopic:           "subscription.transitions",
	}
}

// Load reads the optional YAML file named by CONFIG_FILE (default
// config.yaml) and then applies environment variables, which always win.
// Postgres, Redis and Kafka stay disabled unless configured.
func Load() (*Config, error) {
	return LoadFile(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadFile is Load with an explicit file path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		cfg.applyFile(f)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(f configFile) {
	if f.Server.Port > 0 {
		c.Port = strconv.Itoa(f.Server.Port)
	}
	setString(&c.LogLevel, f.Server.LogLevel)
	setString(&c.Environment, f.Server.Environment)
	setString(&c.CORSOrigins, f.Server.CORSOrigins)

	if base := f.Upstreams.APIBaseURL; base != "" {
		c.DirectoryBaseURL, c.AuthBaseURL, c.BillingBaseURL = base, base, base
	}
	setString(&c.DirectoryBaseURL, f.Upstreams.DirectoryBaseURL)
	setString(&c.AuthBaseURL, f.Upstreams.AuthBaseURL)
	setString(&c.BillingBaseURL, f.Upstreams.BillingBaseURL)
	setSeconds(&c.UpstreamTimeout, f.Upstreams.TimeoutSeconds)
	setString(&c.DirectoryServiceCookie, f.Upstreams.ServiceCookie)

	d := f.Dashboard
	setInt(&c.FreeSampleLimit, d.FreeSampleLimit)
	setInt(&c.PaidPerPage, d.PaidPerPage)
	setInt(&c.PoolPages, d.PoolPages)
	setInt(&c.PoolPageSize, d.PoolPageSize)
	setInt(&c.PoolFetchConcurrency, d.PoolFetchConcurrency)
	setSeconds(&c.PoolCacheTTL, d.PoolCacheSeconds)
	setSeconds(&c.SampleCacheTTL, d.SampleCacheSeconds)
	setSeconds(&c.UserCacheTTL, d.UserCacheSeconds)
	setSeconds(&c.PoolRefreshInterval, d.PoolRefreshSeconds)

	setString(&c.DatabaseURL, f.Dependencies.PostgresURL)
	setString(&c.RedisURL, f.Dependencies.RedisURL)
	if len(f.Dependencies.KafkaBrokers) > 0 {
		c.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	setString(&c.KafkaTopic, f.Dependencies.KafkaTopic)
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.CORSOrigins = getEnv("CORS_ORIGINS", c.CORSOrigins)

	if base := os.Getenv("API_BASE_URL"); base != "" {
		c.DirectoryBaseURL, c.AuthBaseURL, c.BillingBaseURL = base, base, base
	}
	c.DirectoryBaseURL = getEnv("DIRECTORY_BASE_URL", c.DirectoryBaseURL)
	c.AuthBaseURL = getEnv("AUTH_BASE_URL", c.AuthBaseURL)
	c.BillingBaseURL = getEnv("BILLING_BASE_URL", c.BillingBaseURL)
	c.UpstreamTimeout = getEnvSeconds("UPSTREAM_TIMEOUT_SECONDS", c.UpstreamTimeout)
	c.DirectoryServiceCookie = getEnv("DIRECTORY_SERVICE_COOKIE", c.DirectoryServiceCookie)

	c.FreeSampleLimit = getEnvInt("FREE_SAMPLE_LIMIT", c.FreeSampleLimit)
	c.PaidPerPage = getEnvInt("PAID_PER_PAGE", c.PaidPerPage)
	c.PoolPages = getEnvInt("POOL_PAGES", c.PoolPages)
	c.PoolPageSize = getEnvInt("POOL_PAGE_SIZE", c.PoolPageSize)
	c.PoolFetchConcurrency = getEnvInt("POOL_FETCH_CONCURRENCY", c.PoolFetchConcurrency)
	c.PoolCacheTTL = getEnvSeconds("POOL_CACHE_SECONDS", c.PoolCacheTTL)
	c.SampleCacheTTL = getEnvSeconds("SAMPLE_CACHE_SECONDS", c.SampleCacheTTL)
	c.UserCacheTTL = getEnvSeconds("USER_CACHE_SECONDS", c.UserCacheTTL)
	c.PoolRefreshInterval = getEnvSeconds("POOL_REFRESH_SECONDS", c.PoolRefreshInterval)

	c.KafkaBrokers = getEnvList("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt keeps fallback when the variable is unset or not a positive integer.
func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	n := getEnvInt(key, 0)
	if n == 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func getEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setSeconds(dst *time.Duration, v int) {
	if v > 0 {
		*dst = time.Duration(v) * time.Second
	}
}
