package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"estatehub/internal/utils"

	"github.com/joho/godotenv"
)

// devJWTSecret signs tokens only when GIN_MODE is debug or test.
const devJWTSecret = "dev-only-insecure-secret"

// ErrJWTSecretMissing is returned by Validate outside debug and test mode
// when JWT_SECRET is unset.
var ErrJWTSecretMissing = errors.New("JWT_SECRET must be set when GIN_MODE is not debug or test")

type Env struct {
	AppAddr         string
	GinMode         string
	DBDSN           string
	DBAutoMigrate   bool
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ListingPageSize int
	CORSOrigins     []string
	LogLevel        string
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// LoadEnv reads configuration from the environment, loading a .env file first
// when one exists.
func LoadEnv(envFiles ...string) Env {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		utils.LogEvent("", "config", "load_env", fmt.Sprintf("could not load .env: %v", err))
	}

	env := Env{
		AppAddr:         getEnv("APP_ADDR", ":8080"),
		GinMode:         getEnv("GIN_MODE", ""),
		DBDSN:           getEnv("DB_DSN", "root:@tcp(127.0.0.1:3306)/estatehub?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"),
		DBAutoMigrate:   getEnvAsBool("DB_AUTO_MIGRATE", false),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  getEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ListingPageSize: getEnvAsInt("LISTING_PAGE_SIZE", 9),
		CORSOrigins:     defaultCORSOrigins,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if env.JWTSecret == "" && env.devMode() {
		env.JWTSecret = devJWTSecret
		utils.LogEvent("", "config", "load_env", "JWT_SECRET not set, using the development secret")
	}

	if raw := getEnv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		env.CORSOrigins = nil
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSOrigins = append(env.CORSOrigins, o)
			}
		}
	}
	return env
}

func (e Env) devMode() bool {
	return e.GinMode == "debug" || e.GinMode == "test"
}

// Validate rejects configurations that must not serve traffic.
func (e Env) Validate() error {
	if e.JWTSecret == "" {
		return ErrJWTSecretMissing
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		utils.LogEvent("", "config", "load_env", fmt.Sprintf("%s=%q is not a positive integer, using %d", key, raw, fallback))
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		utils.LogEvent("", "config", "load_env", fmt.Sprintf("%s=%q is not a positive duration, using %s", key, raw, fallback))
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		utils.LogEvent("", "config", "load_env", fmt.Sprintf("%s=%q is not a boolean, using %t", key, raw, fallback))
		return fallback
	}
	return v
}
