package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// Redis feed cache (optional; empty addr falls back to the in-process cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret       string
	TokenTTLSeconds int
	BcryptCost      int

	AllowedOrigins []string
	OTLPEndpoint   string
}

func Load() Config {
	// .env is a dev convenience; a missing file is fine
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:   env,
		Port:  port,
		DBURL: dbURL,

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTLSeconds: getEnvInt("TOKEN_TTL_SECONDS", 3600),
		BcryptCost:      getEnvInt("BCRYPT_COST", 10),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postline")
	pass := getEnv("DB_PASSWORD", "postline")
	name := getEnv("DB_NAME", "postline")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
