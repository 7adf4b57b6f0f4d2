package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr          string
	ObsHTTPAddr       string
	DatabaseURL       string
	RedisAddr         string
	KafkaBrokers      string
	InstanceID        string
	ServiceName       string
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   string
	MetricsEnabled    bool
	TracingEnabled    bool
	JaegerURL         string
}

func Load() *Config {
	return &Config{
		HTTPAddr:          fixPort(getEnv("HTTP_ADDR", ":5000")),
		ObsHTTPAddr:       fixPort(getEnv("OBS_HTTP_ADDR", ":9090")),
		DatabaseURL:       mustEnv("DATABASE_URL"),
		RedisAddr:         mustEnv("REDIS_ADDR"),
		KafkaBrokers:      getEnv("KAFKA_BROKERS", ""),
		InstanceID:        getEnv("INSTANCE_ID", getEnv("HOSTNAME", "")),
		ServiceName:       getEnv("SERVICE_NAME", "chat-service"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnv("RATE_LIMIT_WINDOW", "1m"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		TracingEnabled:    getEnvBool("TRACING_ENABLED", false),
		JaegerURL:         getEnv("JAEGER_URL", "http://localhost:14268/api/traces"),
	}
}

func fixPort(port string) string {
	if port != "" && !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true"
}

func getEnvInt(key string, fallback int) int {
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

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing required env: " + k)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
