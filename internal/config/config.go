// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Firebase
	// FirebaseCredentialsJSON はサービスアカウントのJSON本体。
	// 未設定の場合はFirebaseCredentialsFileのパスから読み込む。
	FirebaseCredentialsJSON string
	FirebaseCredentialsFile string

	// Stripe
	StripeSecretKey string

	// Rate Limit
	RateLimitGeneral    int
	RateLimitSubmission int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.FirebaseCredentialsJSON = os.Getenv("FIREBASE_CREDENTIALS_JSON")
	cfg.FirebaseCredentialsFile = os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if cfg.FirebaseCredentialsJSON == "" && cfg.FirebaseCredentialsFile == "" {
		missing = append(missing, "FIREBASE_CREDENTIALS_JSON or FIREBASE_CREDENTIALS_FILE")
	}

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	if cfg.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmission = getEnvInt("RATE_LIMIT_SUBMISSION", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

// FirebaseCredentials はサービスアカウントの認証情報JSONを返す。
// 環境変数に本体が設定されていればそれを、なければファイルから読み込む。
func (c *Config) FirebaseCredentials() ([]byte, error) {
	if c.FirebaseCredentialsJSON != "" {
		return []byte(c.FirebaseCredentialsJSON), nil
	}
	data, err := os.ReadFile(c.FirebaseCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read firebase credentials file: %w", err)
	}
	return data, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
