package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the yield service.
type Config struct {
	GRPCPort    string `yaml:"grpc_port"`
	HTTPPort    string `yaml:"http_port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	ArtifactDir         string `yaml:"artifact_dir"`
	ArtifactWatch       bool   `yaml:"artifact_watch"`
	ExpectedFingerprint string `yaml:"expected_fingerprint"`
	ONNXRuntimeLib      string `yaml:"onnxruntime_lib"`

	ConfidenceLowThreshold  float64 `yaml:"confidence_low_threshold"`
	ConfidenceHighThreshold float64 `yaml:"confidence_high_threshold"`

	DatabaseURL     string   `yaml:"database_url"`
	MigrationsDir   string   `yaml:"migrations_dir"`
	KafkaBrokers    []string `yaml:"kafka_brokers"`
	KafkaTopic      string   `yaml:"kafka_topic"`
	AuditBufferSize int      `yaml:"audit_buffer_size"`

	KafkaTLS           bool   `yaml:"kafka_tls"`
	KafkaSASLMechanism string `yaml:"kafka_sasl_mechanism"`
	KafkaSASLUsername  string `yaml:"kafka_sasl_username"`
	KafkaSASLPassword  string `yaml:"-"`

	OTLPEndpoint    string `yaml:"otlp_endpoint"`
	GRPCTLSCertFile string `yaml:"grpc_tls_cert_file"`
	GRPCTLSKeyFile  string `yaml:"grpc_tls_key_file"`
	GRPCTLSClientCA string `yaml:"grpc_tls_client_ca_file"`
	GRPCReflection  bool   `yaml:"grpc_reflection"`

	// PredictRateLimit caps POST /predict per client per second; 0 disables it.
	PredictRateLimit int `yaml:"predict_rate_limit"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		GRPCPort:                "8090",
		HTTPPort:                "9090",
		Environment:             "development",
		LogLevel:                "info",
		LogFormat:               "json",
		ArtifactDir:             "artifacts",
		ConfidenceLowThreshold:  0,
		ConfidenceHighThreshold: 10,
		MigrationsDir:           "migrations",
		KafkaTopic:              "yield.events",
		AuditBufferSize:         1024,
	}
}

// Load reads configuration: defaults, then the YAML file named by
// YIELD_CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("YIELD_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.GRPCPort = getEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.ArtifactDir = getEnv("ARTIFACT_DIR", cfg.ArtifactDir)
	cfg.ExpectedFingerprint = getEnv("EXPECTED_FINGERPRINT", cfg.ExpectedFingerprint)
	cfg.ONNXRuntimeLib = getEnv("ONNXRUNTIME_LIB", cfg.ONNXRuntimeLib)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.KafkaSASLMechanism = getEnv("KAFKA_SASL_MECHANISM", cfg.KafkaSASLMechanism)
	cfg.KafkaSASLUsername = getEnv("KAFKA_SASL_USERNAME", cfg.KafkaSASLUsername)
	cfg.KafkaSASLPassword = getEnv("KAFKA_SASL_PASSWORD", cfg.KafkaSASLPassword)
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.GRPCTLSCertFile = getEnv("GRPC_TLS_CERT_FILE", cfg.GRPCTLSCertFile)
	cfg.GRPCTLSKeyFile = getEnv("GRPC_TLS_KEY_FILE", cfg.GRPCTLSKeyFile)
	cfg.GRPCTLSClientCA = getEnv("GRPC_TLS_CLIENT_CA_FILE", cfg.GRPCTLSClientCA)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = splitList(v)
	}

	var err error
	if cfg.ArtifactWatch, err = getBool("ARTIFACT_WATCH", cfg.ArtifactWatch); err != nil {
		return nil, err
	}
	if cfg.KafkaTLS, err = getBool("KAFKA_TLS", cfg.KafkaTLS); err != nil {
		return nil, err
	}
	if cfg.GRPCReflection, err = getBool("GRPC_REFLECTION", cfg.GRPCReflection); err != nil {
		return nil, err
	}
	if cfg.ConfidenceLowThreshold, err = getFloat("CONFIDENCE_LOW_THRESHOLD", cfg.ConfidenceLowThreshold); err != nil {
		return nil, err
	}
	if cfg.ConfidenceHighThreshold, err = getFloat("CONFIDENCE_HIGH_THRESHOLD", cfg.ConfidenceHighThreshold); err != nil {
		return nil, err
	}
	if cfg.AuditBufferSize, err = getInt("AUDIT_BUFFER_SIZE", cfg.AuditBufferSize); err != nil {
		return nil, err
	}
	if cfg.PredictRateLimit, err = getInt("PREDICT_RATE_LIMIT", cfg.PredictRateLimit); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.ArtifactDir == "" {
		return fmt.Errorf("ARTIFACT_DIR must not be empty")
	}
	if c.ConfidenceLowThreshold > c.ConfidenceHighThreshold {
		return fmt.Errorf("CONFIDENCE_LOW_THRESHOLD (%v) must not exceed CONFIDENCE_HIGH_THRESHOLD (%v)",
			c.ConfidenceLowThreshold, c.ConfidenceHighThreshold)
	}
	if c.AuditBufferSize <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be positive, got %d", c.AuditBufferSize)
	}
	if c.PredictRateLimit < 0 {
		return fmt.Errorf("PREDICT_RATE_LIMIT must not be negative, got %d", c.PredictRateLimit)
	}
	if (c.GRPCTLSCertFile == "") != (c.GRPCTLSKeyFile == "") {
		return fmt.Errorf("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together")
	}
	if c.GRPCTLSClientCA != "" && c.GRPCTLSCertFile == "" {
		return fmt.Errorf("GRPC_TLS_CLIENT_CA_FILE requires GRPC_TLS_CERT_FILE")
	}
	return nil
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// AuditEnabled reports whether predictions are persisted.
func (c *Config) AuditEnabled() bool { return c.DatabaseURL != "" }

// EventsEnabled reports whether domain events are published.
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
