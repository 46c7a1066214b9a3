package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvMoodleURL      = "MOODLE_URL"
	EnvMoodleToken    = "MOODLE_TOKEN"
	EnvMoodleTimeout  = "MOODLE_TIMEOUT"
	EnvSecretKey      = "SECRET_KEY"
	EnvCookieSecure   = "COOKIE_SECURE"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"
	EnvLogBackend     = "LOG_BACKEND"
	EnvS3Bucket       = "S3_BUCKET"
	EnvS3Region       = "S3_REGION"
	EnvS3Endpoint     = "S3_BASE_ENDPOINT"
	EnvS3User         = "S3_ROOT_USER"
	EnvS3Password     = "S3_ROOT_PASSWORD"
)

// parseEnv overlays set, non-empty environment variables onto config.
func parseEnv(config *Config) error {
	setString(&config.HTTPAddr, os.Getenv(EnvHTTPAddr))
	setString(&config.DatabaseDSN, os.Getenv(EnvDatabaseDSN))
	setString(&config.MoodleURL, os.Getenv(EnvMoodleURL))
	setString(&config.MoodleToken, os.Getenv(EnvMoodleToken))
	setString(&config.SecretKey, os.Getenv(EnvSecretKey))
	setString(&config.LogBackend, os.Getenv(EnvLogBackend))
	setString(&config.S3Bucket, os.Getenv(EnvS3Bucket))
	setString(&config.S3Region, os.Getenv(EnvS3Region))
	setString(&config.S3BaseEndpoint, os.Getenv(EnvS3Endpoint))
	setString(&config.S3RootUser, os.Getenv(EnvS3User))
	setString(&config.S3RootPassword, os.Getenv(EnvS3Password))

	if v := os.Getenv(EnvMoodleTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMoodleTimeout, err)
		}
		config.MoodleTimeout = d
	}
	if v := os.Getenv(EnvCookieSecure); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCookieSecure, err)
		}
		config.CookieSecure = b
	}
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		config.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
