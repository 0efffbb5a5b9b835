/*
Package configs is responsible for loading and parsing the application's configuration settings.

Values are read from environment variables first and can be overridden by command-line flags:
the running environment, port, websocket/CORS allowed origins, static asset directory, log level
and per-connection send queue size.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	defaultPort          = 3000
	defaultSendQueueSize = 256
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	LogLevel    string

	// Security Settings
	AllowedOrigins []string

	// Static assets served at "/" when set.
	PublicDir string

	// Transport Settings
	SendQueueSize int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Addr returns the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadConfig reads the configuration from environment variables, then applies flags from args
// (normally os.Args[1:]). Flags win over the environment.
func LoadConfig(args []string) (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- Environment ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intFromEnv("PORT", defaultPort)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	queueSize, err := intFromEnv("SEND_QUEUE_SIZE", defaultSendQueueSize)
	if err != nil {
		return nil, err
	}
	cfg.SendQueueSize = queueSize

	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.PublicDir = os.Getenv("PUBLIC_DIR")
	cfg.AllowedOrigins = splitOrigins(os.Getenv("ALLOWED_ORIGINS"))

	// --- Flags ---
	fs := pflag.NewFlagSet("chatrelay", pflag.ContinueOnError)

	env := fs.StringP("env", "e", cfg.Environment, "running environment (development, production)")
	flagPort := fs.IntP("port", "p", cfg.Port, "HTTP listen port")
	logLevel := fs.StringP("log-level", "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	publicDir := fs.String("public-dir", cfg.PublicDir, "directory of static assets served at /")
	origins := fs.StringSlice("origins", cfg.AllowedOrigins, "allowed websocket/CORS origins")
	flagQueue := fs.Int("send-queue", cfg.SendQueueSize, "per-connection outbound queue length")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse command line arguments: %w", err)
	}

	cfg.Environment = *env
	cfg.Port = *flagPort
	cfg.LogLevel = *logLevel
	cfg.PublicDir = *publicDir
	cfg.SendQueueSize = *flagQueue
	cfg.AllowedOrigins = splitOrigins(strings.Join(*origins, ","))

	// --- Validation ---
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	if cfg.SendQueueSize < 1 {
		return nil, fmt.Errorf("send queue size must be positive, got %d", cfg.SendQueueSize)
	}

	if cfg.PublicDir != "" {
		info, err := os.Stat(cfg.PublicDir)
		if err != nil {
			return nil, fmt.Errorf("invalid public directory %q: %w", cfg.PublicDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("public directory %q is not a directory", cfg.PublicDir)
		}
	}

	return cfg, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitOrigins(raw string) []string {
	origins := []string{}
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
