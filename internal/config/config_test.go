package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Addr() != ":8080" {
		t.Fatalf("port default wrong: %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("gin mode default wrong: %q", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("api base path default wrong: %q", cfg.APIBasePath)
	}
	if cfg.DisplayTimezone != "America/New_York" {
		t.Fatalf("display tz default wrong: %q", cfg.DisplayTimezone)
	}
	if cfg.IntegrationTimeout != 10*time.Second {
		t.Fatalf("integration timeout default wrong: %v", cfg.IntegrationTimeout)
	}
	if cfg.UploadDir != "uploads" || cfg.DBPath != "helpdesk.db" {
		t.Fatalf("path defaults wrong: %q %q", cfg.UploadDir, cfg.DBPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "TEST") // normalized to lowercase
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("INTEGRATION_TIMEOUT", "3s")
	t.Setenv("PUBLIC_BASE_URL", "https://helpdesk.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com , https://b.example.com ,")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("RATE_BURST", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.GinMode != "test" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.IntegrationTimeout != 3*time.Second {
		t.Fatalf("duration override wrong: %v", cfg.IntegrationTimeout)
	}
	// Trailing slash is normalized away so URL joins stay clean.
	if cfg.PublicBaseURL != "https://helpdesk.example.com" {
		t.Fatalf("base url not normalized: %q", cfg.PublicBaseURL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://a.example.com" {
		t.Fatalf("origin list parsed wrong: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateRPS != 2.5 || cfg.RateBurst != 7 {
		t.Fatalf("rate settings wrong: %v %v", cfg.RateRPS, cfg.RateBurst)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad port", "PORT", "http", "PORT"},
		{"bad gin mode", "GIN_MODE", "production", "GIN_MODE"},
		{"bad base path", "API_BASE_PATH", "api/v1", "API_BASE_PATH"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
		{"bad burst", "RATE_BURST", "0", "RATE_BURST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error naming %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_InvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("MAX_HEADER_BYTES", "lots")
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("RATE_RPS", "fast")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxHeaderBytes != 1<<20 {
		t.Fatalf("MaxHeaderBytes fallback wrong: %d", cfg.MaxHeaderBytes)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout fallback wrong: %v", cfg.ReadTimeout)
	}
	if cfg.RateRPS != 1 {
		t.Fatalf("RateRPS fallback wrong: %v", cfg.RateRPS)
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG_A", "yes")
	t.Setenv("FLAG_B", "off")
	if !getbool("FLAG_A", false) {
		t.Fatalf("yes should be truthy")
	}
	if getbool("FLAG_B", true) {
		t.Fatalf("off should be falsy")
	}
	if !getbool("FLAG_MISSING", true) {
		t.Fatalf("missing key should use default")
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustLoad()
}
