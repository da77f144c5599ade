package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/storage"
)

// clearEnv blanks every variable fromEnv reads so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "BASE_URL", "CORS_ALLOWED_ORIGINS", "SHUTDOWN_TIMEOUT", "LOG_LEVEL",
		"DATABASE_URL", "SNAPSHOTS_ENABLED", "IDENTITY_JWT_SECRET", "IDENTITY_JWT_ISSUER", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"DEFAULT_CURRENCY", "EXPORT_STORAGE", "EXPORT_PATH", "EXPORT_URL_PREFIX",
		"EXPORT_LINK_TTL", "S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY_ID",
		"S3_SECRET_ACCESS_KEY", "S3_FORCE_PATH_STYLE", "S3_EXPORT_BUCKET",
		"S3_EXPORT_BUCKET_URL",
	} {
		t.Setenv(key, "")
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/profitcalc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DefaultCurrency != currency.GBP {
		t.Errorf("DefaultCurrency = %q, want GBP", cfg.DefaultCurrency)
	}
	if !cfg.SnapshotsEnabled {
		t.Error("expected snapshots to be enabled by default")
	}
	if cfg.Exports.Storage != storage.BackendLocal {
		t.Errorf("Exports.Storage = %q, want local", cfg.Exports.Storage)
	}
	if cfg.Exports.LinkTTL != 15*time.Minute {
		t.Errorf("Exports.LinkTTL = %v, want 15m", cfg.Exports.LinkTTL)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SNAPSHOTS_ENABLED", "false")
	t.Setenv("DEFAULT_CURRENCY", "eur")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EXPORT_STORAGE", "s3")
	t.Setenv("S3_EXPORT_BUCKET", "exports")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.DefaultCurrency != currency.EUR {
		t.Errorf("DefaultCurrency = %q, want EUR", cfg.DefaultCurrency)
	}
	if got := strings.Join(cfg.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("AllowedOrigins = %q", got)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.RateLimit)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	sc := cfg.Exports.StorageConfig()
	if sc.Backend != storage.BackendS3 || sc.S3.Bucket != "exports" {
		t.Errorf("StorageConfig = %+v", sc)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{}, "DATABASE_URL"},
		{"bad currency", map[string]string{"SNAPSHOTS_ENABLED": "false", "DEFAULT_CURRENCY": "XYZ"}, "DEFAULT_CURRENCY"},
		{"bad port", map[string]string{"SNAPSHOTS_ENABLED": "false", "PORT": "70000"}, "PORT"},
		{"s3 without bucket", map[string]string{"SNAPSHOTS_ENABLED": "false", "EXPORT_STORAGE": "s3"}, "S3_EXPORT_BUCKET"},
		{"unknown storage", map[string]string{"SNAPSHOTS_ENABLED": "false", "EXPORT_STORAGE": "ftp"}, "EXPORT_STORAGE"},
		{"short identity secret", map[string]string{"SNAPSHOTS_ENABLED": "false", "IDENTITY_JWT_SECRET": "short"}, "IDENTITY_JWT_SECRET"},
		{"zero burst", map[string]string{"SNAPSHOTS_ENABLED": "false", "RATE_LIMIT_BURST": "0"}, "RATE_LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %s", err, tt.want)
			}
		})
	}
}

func TestLoadDev_FallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEFAULT_CURRENCY", "XYZ")
	t.Setenv("EXPORT_STORAGE", "s3")
	t.Setenv("PORT", "3001")

	cfg := LoadDev()
	if cfg.DefaultCurrency != currency.GBP {
		t.Errorf("DefaultCurrency = %q, want GBP", cfg.DefaultCurrency)
	}
	if cfg.Exports.Storage != storage.BackendLocal {
		t.Errorf("Exports.Storage = %q, want local", cfg.Exports.Storage)
	}
	if cfg.DatabaseURL == "" {
		t.Error("expected a development DATABASE_URL")
	}
	if cfg.Port != 3001 {
		t.Errorf("Port = %d, want 3001 (valid values are kept)", cfg.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("LoadDev result does not validate: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	key := "PROFITCALC_TEST_ENV_VAR"
	t.Setenv(key, "")
	if got := getEnv(key, "fallback-value"); got != "fallback-value" {
		t.Errorf("expected fallback, got %q", got)
	}
	t.Setenv(key, "actual-value")
	if got := getEnv(key, "fallback-value"); got != "actual-value" {
		t.Errorf("expected 'actual-value', got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	key := "PROFITCALC_TEST_INT_VAR"
	t.Setenv(key, "")
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("expected fallback 42, got %d", got)
	}
	t.Setenv(key, "100")
	if got := getEnvInt(key, 42); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
	t.Setenv(key, "not-a-number")
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("expected fallback 42 for invalid int, got %d", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	key := "PROFITCALC_TEST_FLOAT_VAR"
	t.Setenv(key, "")
	if got := getEnvFloat(key, 1.5); got != 1.5 {
		t.Errorf("expected fallback 1.5, got %v", got)
	}
	t.Setenv(key, "0.25")
	if got := getEnvFloat(key, 1.5); got != 0.25 {
		t.Errorf("expected 0.25, got %v", got)
	}
	t.Setenv(key, "lots")
	if got := getEnvFloat(key, 1.5); got != 1.5 {
		t.Errorf("expected fallback 1.5 for invalid float, got %v", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "PROFITCALC_TEST_BOOL_VAR"
	t.Setenv(key, "")
	if !getEnvBool(key, true) {
		t.Error("expected fallback true")
	}
	t.Setenv(key, "false")
	if getEnvBool(key, true) {
		t.Error("expected false")
	}
	t.Setenv(key, "maybe")
	if !getEnvBool(key, true) {
		t.Error("expected fallback true for invalid bool")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "PROFITCALC_TEST_DUR_VAR"
	t.Setenv(key, "")
	if got := getEnvDuration(key, 5*time.Second); got != 5*time.Second {
		t.Errorf("expected fallback 5s, got %v", got)
	}
	t.Setenv(key, "30s")
	if got := getEnvDuration(key, 5*time.Second); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
	t.Setenv(key, "not-a-duration")
	if got := getEnvDuration(key, 5*time.Second); got != 5*time.Second {
		t.Errorf("expected fallback 5s for invalid duration, got %v", got)
	}
}

func TestGetEnvList(t *testing.T) {
	key := "PROFITCALC_TEST_LIST_VAR"
	t.Setenv(key, " , ")
	if got := getEnvList(key, []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Errorf("expected fallback for blank list, got %v", got)
	}
	t.Setenv(key, "a,b")
	if got := getEnvList(key, nil); len(got) != 2 || got[1] != "b" {
		t.Errorf("got %v, want [a b]", got)
	}
}
