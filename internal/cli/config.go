package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/roach88/schemastore/internal/document"
)

// Environment variables read by LoadConfig.
const (
	EnvDB          = "SCHEMASTORE_DB"
	EnvRewrites    = "SCHEMASTORE_REWRITES" // comma-separated from=to rules
	EnvS3Endpoint  = "SCHEMASTORE_S3_ENDPOINT"
	EnvS3Region    = "SCHEMASTORE_S3_REGION"
	EnvS3AccessKey = "SCHEMASTORE_S3_ACCESS_KEY"
	EnvS3SecretKey = "SCHEMASTORE_S3_SECRET_KEY"
	EnvS3UseSSL    = "SCHEMASTORE_S3_USE_SSL"
)

// Config holds defaults taken from the environment. Command-line flags
// override them.
type Config struct {
	DB       string
	Rewrites []string
	S3       *document.S3Config // nil when no endpoint is configured
}

// LoadConfig reads a .env file from the working directory if one exists and
// then builds a Config from the process environment. Variables already set
// in the environment win over the file.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		DB:       strings.TrimSpace(os.Getenv(EnvDB)),
		Rewrites: splitList(os.Getenv(EnvRewrites)),
	}

	if endpoint := strings.TrimSpace(os.Getenv(EnvS3Endpoint)); endpoint != "" {
		cfg.S3 = &document.S3Config{
			Endpoint:  endpoint,
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv(EnvS3Region)), "us-east-1"),
			AccessKey: strings.TrimSpace(os.Getenv(EnvS3AccessKey)),
			SecretKey: strings.TrimSpace(os.Getenv(EnvS3SecretKey)),
			UseSSL:    parseBool(os.Getenv(EnvS3UseSSL), true),
		}
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(raw string, fallback bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
