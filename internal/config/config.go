package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AnthonyGillesRudolfo/Payment-Request-Bridge/internal/request"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	HTTP        HTTPConfig
	GRPC        GRPCConfig
	Gateway     GatewayConfig
	Retention   RetentionConfig
	Kafka       KafkaConfig
	Breaker     BreakerConfig
	Telemetry   TelemetryConfig
	Log         LogConfig
	Email       EmailConfig
}

type HTTPConfig struct {
	Addr string
}

type GRPCConfig struct {
	Addr string
}

// GatewayConfig holds the checkout endpoints a launched request is sent to.
type GatewayConfig struct {
	SandboxURL string
	LiveURL    string
}

// URL returns the checkout endpoint for env.
func (g GatewayConfig) URL(env request.Environment) string {
	if env == request.Sandbox {
		return g.SandboxURL
	}
	return g.LiveURL
}

// RetentionConfig controls how long resolved requests stay queryable.
type RetentionConfig struct {
	Resolved      time.Duration
	SweepInterval time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	LaunchTopic   string
	PaymentsTopic string
	ResultsTopic  string
	ResultsGroup  string
	ReceiptsGroup string
}

// BreakerConfig tunes the circuit breaker around the launcher.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

type TelemetryConfig struct {
	Enabled  bool
	Endpoint string
}

// EmailConfig configures the receipt worker's SMTP relay. An empty SMTPHost
// selects the logging sender.
type EmailConfig struct {
	SMTPHost string
	SMTPPort string
	From     string
	Username string
	Password string
}

type LogConfig struct {
	Level       string
	Development bool
}

// Load reads configuration from environment variables, applying sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "payment-request-bridge"),
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_LISTEN_ADDR", ":3000"),
		},
		GRPC: GRPCConfig{
			Addr: getEnv("GRPC_LISTEN_ADDR", ":9090"),
		},
		Gateway: GatewayConfig{
			SandboxURL: getEnv("PAYMENT_SANDBOX_URL", "https://sandbox.payhere.lk/pay/checkout"),
			LiveURL:    getEnv("PAYMENT_LIVE_URL", "https://www.payhere.lk/pay/checkout"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			LaunchTopic:   getEnv("KAFKA_LAUNCH_TOPIC", "payment-launches.v1"),
			PaymentsTopic: getEnv("KAFKA_PAYMENTS_TOPIC", "payments.v1"),
			ResultsTopic:  getEnv("KAFKA_RESULTS_TOPIC", "payment-results.v1"),
			ResultsGroup:  getEnv("KAFKA_RESULTS_GROUP_ID", "payment-bridge"),
			ReceiptsGroup: getEnv("KAFKA_RECEIPTS_GROUP_ID", "payment-receipts"),
		},
		Telemetry: TelemetryConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://localhost:4318/v1/traces"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Email: EmailConfig{
			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnv("SMTP_PORT", "1025"),
			From:     getEnv("SMTP_FROM", "no-reply@example.local"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
	}

	var err error
	if cfg.Telemetry.Enabled, err = getBool("OTEL_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.Log.Development, err = getBool("LOG_DEVELOPMENT", false); err != nil {
		return Config{}, err
	}

	maxReq, err := getUint32("BREAKER_MAX_REQUESTS", 1)
	if err != nil {
		return Config{}, err
	}
	threshold, err := getUint32("BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return Config{}, err
	}
	interval, err := getDuration("BREAKER_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	timeout, err := getDuration("BREAKER_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	if cfg.Retention.Resolved, err = getDuration("PAYMENT_RESULT_RETENTION", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Retention.SweepInterval, err = getDuration("PAYMENT_SWEEP_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Retention.SweepInterval <= 0 {
		return Config{}, fmt.Errorf("PAYMENT_SWEEP_INTERVAL: must be positive")
	}

	cfg.Breaker = BreakerConfig{
		MaxRequests:      maxReq,
		Interval:         interval,
		Timeout:          timeout,
		FailureThreshold: threshold,
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS: no brokers configured")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func getUint32(key string, fallback uint32) (uint32, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return uint32(v), nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return v, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
