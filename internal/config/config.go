package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once from the environment at startup and read-only after.
type Config struct {
	Env         string
	Port        string
	MetricsPort string

	Bucket        string
	Region        string
	Endpoint      string
	UploadPrefix  string
	PublicRead    bool
	PublicBaseURL string

	AccessKeyID     string
	SecretAccessKey string

	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int

	UploadTimeout        time.Duration
	MaxConcurrentUploads int64
	MaxUploadBytes       int64
	ChunkedThreshold     int64
}

// serviceCredential is the decoded shape of SERVICE_CREDENTIALS_B64. It lives
// in memory only and is never written back to disk.
type serviceCredential struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// Load reads configuration from the environment. The service credential and
// bucket are mandatory; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                  envOr("APP_ENV", "development"),
		Port:                 envOr("PORT", "8080"),
		MetricsPort:          envOr("METRICS_PORT", "9090"),
		Bucket:               os.Getenv("S3_BUCKET"),
		Region:               envOr("S3_REGION", "us-east-1"),
		Endpoint:             os.Getenv("S3_ENDPOINT"),
		UploadPrefix:         envOr("UPLOAD_PREFIX", "videos"),
		PublicBaseURL:        os.Getenv("PUBLIC_BASE_URL"),
		PublicRead:           envBool("PUBLIC_READ", true),
		RateLimitPerMinute:   envInt("RATE_LIMIT_PER_MINUTE", 10),
		RateLimitBurst:       envInt("RATE_LIMIT_BURST", 5),
		UploadTimeout:        envDuration("UPLOAD_TIMEOUT", 5*time.Minute),
		MaxConcurrentUploads: int64(envInt("MAX_CONCURRENT_UPLOADS", 8)),
		MaxUploadBytes:       100 << 20,
		ChunkedThreshold:     50 << 20,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.Bucket == "" {
		return nil, errors.New("S3_BUCKET is not set")
	}

	cred, err := loadCredential()
	if err != nil {
		return nil, err
	}
	cfg.AccessKeyID = cred.AccessKeyID
	cfg.SecretAccessKey = cred.SecretAccessKey

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env != "production"
}

func loadCredential() (*serviceCredential, error) {
	raw := os.Getenv("SERVICE_CREDENTIALS_B64")
	if raw == "" {
		return nil, errors.New("SERVICE_CREDENTIALS_B64 is not set")
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode SERVICE_CREDENTIALS_B64: %w", err)
	}

	var cred serviceCredential
	if err := json.Unmarshal(decoded, &cred); err != nil {
		return nil, fmt.Errorf("parse service credential: %w", err)
	}
	if cred.AccessKeyID == "" || cred.SecretAccessKey == "" {
		return nil, errors.New("service credential is missing accessKeyId or secretAccessKey")
	}

	return &cred, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
