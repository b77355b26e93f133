package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// Upstream CRM
	t.Setenv("CRM_API_BASE_URL", "https://crm.example.com/") // trailing slash stripped
	t.Setenv("CRM_API_KEY", "sekrit")
	t.Setenv("CRM_TIMEOUT", "7s")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("REMINDER_POLL_INTERVAL", "30s")
	t.Setenv("ALARM_DISABLED", "on")

	// Rate limiting (invalids fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}

	// Upstream CRM
	if cfg.CRMBaseURL != "https://crm.example.com" {
		t.Fatalf("CRMBaseURL not normalized: %q", cfg.CRMBaseURL)
	}
	if cfg.CRMAPIKey != "sekrit" || cfg.CRMTimeout != 7*time.Second {
		t.Fatalf("CRM fields unexpected: %+v", cfg)
	}
	if cfg.CacheTTL != 90*time.Second || cfg.PollInterval != 30*time.Second {
		t.Fatalf("interval fields unexpected: %+v", cfg)
	}
	if !cfg.AlarmDisabled {
		t.Fatalf("ALARM_DISABLED=on should set AlarmDisabled")
	}

	// Rate limiting fell back to defaults on parse error
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate fields unexpected: %+v", cfg)
	}

	// CORS CSV trims empties
	want := []string{"https://a.com", "http://b"}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Fatalf("CORS origins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure ||
		cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("OTEL fields unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults should succeed: %v", err)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("default CACHE_TTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.PollInterval != 60*time.Second {
		t.Fatalf("default REMINDER_POLL_INTERVAL = %v, want 60s", cfg.PollInterval)
	}
	if cfg.CRMTimeout != 15*time.Second {
		t.Fatalf("default CRM_TIMEOUT = %v, want 15s", cfg.CRMTimeout)
	}
	if cfg.AlarmDisabled {
		t.Fatalf("alarm should be enabled by default")
	}
}

// --- Validation failures ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		k, v string
		want string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"zero read timeout", "READ_TIMEOUT", "0s", "timeouts"},
		{"negative write timeout", "WRITE_TIMEOUT", "-1s", "timeouts"},
		{"bad base url scheme", "CRM_API_BASE_URL", "ftp://crm", "CRM_API_BASE_URL"},
		{"zero cache ttl", "CACHE_TTL", "0s", "CACHE_TTL"},
		{"zero poll interval", "REMINDER_POLL_INTERVAL", "0s", "REMINDER_POLL_INTERVAL"},
		{"zero crm timeout", "CRM_TIMEOUT", "0s", "CRM_TIMEOUT"},
		{"negative rps", "RATE_RPS", "-1", "RATE_RPS"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.k, tc.v)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail for %s=%s", tc.k, tc.v)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

// --- helpers ---

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"api":      "/api",
		"/api/":    "/api",
		"/api/v2/": "/api/v2",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
