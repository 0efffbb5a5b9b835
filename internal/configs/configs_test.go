package configs

import (
	"reflect"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ENVIRONMENT", "PORT", "LOG_LEVEL", "PUBLIC_DIR", "ALLOWED_ORIGINS", "SEND_QUEUE_SIZE"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != "development" || !cfg.IsDevelopment() {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.Port != 3000 || cfg.Addr() != ":3000" {
		t.Errorf("Port = %d, Addr = %q", cfg.Port, cfg.Addr())
	}
	if cfg.SendQueueSize != 256 {
		t.Errorf("SendQueueSize = %d", cfg.SendQueueSize)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.IsDevelopment() || cfg.Port != 8081 || cfg.LogLevel != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example")

	cfg, err := LoadConfig([]string{"--port", "9090", "--origins", "https://c.example,https://d.example", "-e", "production", "--send-queue", "16"})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != 9090 || cfg.Environment != "production" || cfg.SendQueueSize != 16 {
		t.Errorf("cfg = %+v", cfg)
	}
	want := []string{"https://c.example", "https://d.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
}

func TestLoadConfigPublicDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadConfig([]string{"--public-dir", dir})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.PublicDir != dir {
		t.Errorf("PublicDir = %q, want %q", cfg.PublicDir, dir)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantErr string
	}{
		{"non-numeric port", map[string]string{"PORT": "abc"}, nil, "invalid PORT"},
		{"privileged port", nil, []string{"--port", "80"}, "outside the recommended range"},
		{"zero queue", nil, []string{"--send-queue", "0"}, "send queue size"},
		{"missing public dir", nil, []string{"--public-dir", "/does/not/exist"}, "invalid public directory"},
		{"unknown flag", nil, []string{"--nope"}, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig(tt.args)
			if err == nil {
				t.Fatal("LoadConfig() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
