package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars. It is built once
// at startup and passed by injection; nothing re-reads the environment later.
type Config struct {
	Port        string
	DatabaseURL string
	DBMaxConns  int32
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	OTPLength   int
	OTPTTL      time.Duration
	CORSOrigins []string
}

// Load reads configuration from the environment and performs minimal
// validation. A missing database URL or signing secret is a startup failure,
// never a per-request one.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  int32(parsePositiveInt(os.Getenv("DB_MAX_CONNS"), 10)),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "padharo-backend"),
		JWTTTL:      time.Duration(parsePositiveInt(os.Getenv("JWT_TTL_MINUTES"), 60)) * time.Minute,
		OTPLength:   parsePositiveInt(os.Getenv("OTP_LENGTH"), 6),
		OTPTTL:      time.Duration(parsePositiveInt(os.Getenv("OTP_TTL_MINUTES"), 5)) * time.Minute,
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parsePositiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
