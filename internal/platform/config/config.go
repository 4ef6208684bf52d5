package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything cmd/server needs to wire the service. Built from
// environment variables so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// DatabaseURL selects the Postgres stores; empty means in-memory stores.
	DatabaseURL string

	Redis    RedisConfig
	Registry RegistryConfig
	Signing  SigningConfig
	Document DocumentConfig
	Audit    AuditConfig
}

// RedisConfig configures the session store backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryConfig points at the external read-only personnel registry.
type RegistryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SigningConfig points at the OTP service and the signing authority.
type SigningConfig struct {
	OTPBaseURL   string
	ESignBaseURL string
	// SignTimeout is the hard deadline on the sign call. A timeout here is a
	// distinct failure class: the authority's own state is unknown.
	SignTimeout time.Duration
}

// DocumentConfig configures the MinIO-backed document store.
type DocumentConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuditConfig configures the Kafka audit publisher. Empty brokers disable it.
type AuditConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("SERVICEBOOK_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Registry: RegistryConfig{
			BaseURL: envOr("REGISTRY_BASE_URL", "http://localhost:9081"),
			Timeout: 30 * time.Second,
		},
		Signing: SigningConfig{
			OTPBaseURL:   envOr("OTP_BASE_URL", "http://localhost:9082"),
			ESignBaseURL: envOr("ESIGN_BASE_URL", "http://localhost:9083"),
			SignTimeout:  120 * time.Second,
		},
		Document: DocumentConfig{
			Endpoint:  envOr("DOCSTORE_ENDPOINT", "localhost:9000"),
			AccessKey: os.Getenv("DOCSTORE_ACCESS_KEY"),
			SecretKey: os.Getenv("DOCSTORE_SECRET_KEY"),
			Bucket:    envOr("DOCSTORE_BUCKET", "servicebook-documents"),
			UseSSL:    os.Getenv("DOCSTORE_USE_SSL") == "true",
		},
		Audit: AuditConfig{
			Topic: envOr("AUDIT_KAFKA_TOPIC", "servicebook.audit"),
		},
	}
	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Audit.Brokers = append(cfg.Audit.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
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
