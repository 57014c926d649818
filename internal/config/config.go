// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
)

// WeightPolicy は重み合計の検証ポリシーを表す。
type WeightPolicy string

const (
	// WeightPolicyPermissive は重み合計を検証しない（既存クライアント互換のデフォルト）。
	WeightPolicyPermissive WeightPolicy = "permissive"
	// WeightPolicyStrict はカテゴリ・習慣の重み合計が1.0を超える書き込みを拒否する。
	WeightPolicyStrict WeightPolicy = "strict"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionMaxAge int // セッション有効期間（秒）

	// Auth
	BcryptCost int

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitLogin   int

	// Weight検証ポリシー
	WeightPolicy WeightPolicy

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

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

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400) // 24時間
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	policy, err := parseWeightPolicy(os.Getenv("WEIGHT_POLICY"))
	if err != nil {
		return nil, err
	}
	cfg.WeightPolicy = policy

	return cfg, nil
}

// parseWeightPolicy は環境変数値をWeightPolicyに変換する。
// 未設定の場合はソース互換のpermissiveを返す。
func parseWeightPolicy(v string) (WeightPolicy, error) {
	switch v {
	case "":
		return WeightPolicyPermissive, nil
	case string(WeightPolicyPermissive):
		return WeightPolicyPermissive, nil
	case string(WeightPolicyStrict):
		return WeightPolicyStrict, nil
	default:
		return "", fmt.Errorf("invalid WEIGHT_POLICY: %q (want permissive or strict)", v)
	}
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
