package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable: strings for identifiers and paths, ints for durations
// and costs.
type Config struct {
	Env               string // application environment (e.g. "dev", "prod")
	Port              string // HTTP port to listen on
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	DBMaxOpenConns    int    // connection pool upper bound
	DBMaxIdleConns    int    // idle connections kept around
	DBConnMaxLifeMin  int    // connection lifetime in minutes before recycling
	JWTPrivateKeyPath string // path to the RSA private key PEM used to sign tokens
	JWTPublicKeyPath  string // path to the RSA public key PEM used to verify tokens
	AccessTTLMin      int    // access token time-to-live in minutes
	RefreshTTLDays    int    // refresh token time-to-live in days
	ResetTokenTTLMin  int    // password reset token time-to-live in minutes
	BcryptCost        int    // bcrypt cost for password hashing
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. Token lifetimes and the
// bcrypt cost fall back to the documented defaults when unset.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		DBMaxOpenConns:    atoi(getenv("DB_MAX_OPEN_CONNS", "25")),
		DBMaxIdleConns:    atoi(getenv("DB_MAX_IDLE_CONNS", "25")),
		DBConnMaxLifeMin:  atoi(getenv("DB_CONN_MAX_LIFETIME_MIN", "30")),
		JWTPrivateKeyPath: getenv("JWT_PRIVATE_KEY_PATH", "./keys/jwt-private.pem"),
		JWTPublicKeyPath:  getenv("JWT_PUBLIC_KEY_PATH", "./keys/jwt-public.pem"),
		AccessTTLMin:      atoi(getenv("ACCESS_TOKEN_TTL_MIN", "60")),
		RefreshTTLDays:    atoi(getenv("REFRESH_TOKEN_TTL_DAYS", "7")),
		ResetTokenTTLMin:  atoi(getenv("RESET_TOKEN_TTL_MIN", "60")),
		BcryptCost:        atoi(getenv("BCRYPT_COST", "12")),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
