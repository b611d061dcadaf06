// Package config loads the server's settings from the environment.
//
// Every field is bound to an environment variable through struct tags:
//
//	env      primary variable name
//	envAlt   fallback variable name
//	default  value used when neither variable is set
//	required fail when no value is found
//
// Load applies defaults and then Validate, so a bad deployment fails on
// startup instead of on the first upload.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Render   RenderConfig
	Chart    ChartConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// in-flight runs to finish.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is applied by middleware to every request.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`
}

// UploadConfig limits uploads and chart runs.
type UploadConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default 20MB).
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent runs at once across all clients.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a request queues for a run slot.
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds one run from parse to last chart.
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"90s"`
}

// RenderConfig sizes chart rendering.
type RenderConfig struct {
	// Workers is the number of charts drawn in parallel per run.
	// Zero means one per CPU.
	Workers int `env:"RENDER_WORKERS" default:"0"`

	Width  int `env:"CHART_WIDTH" default:"1000"`
	Height int `env:"CHART_HEIGHT" default:"600"`
}

// ChartConfig holds the initial state of the display options on the upload
// form. Users may change them per run.
type ChartConfig struct {
	ShowAverageLine       bool   `env:"CHART_SHOW_AVERAGE_LINE" default:"true"`
	ShowAverageBar        bool   `env:"CHART_SHOW_AVERAGE_BAR" default:"false"`
	ShowSummaryTable      bool   `env:"CHART_SHOW_SUMMARY_TABLE" default:"true"`
	ShowIndividualSummary bool   `env:"CHART_SHOW_INDIVIDUAL_SUMMARY" default:"true"`
	TitlePrefix           string `env:"CHART_TITLE_PREFIX" default:"Test Scores for"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute applies per client IP to the chart endpoints.
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"30"`

	// Burst is how many requests may arrive at once.
	Burst int `env:"RATE_LIMIT_BURST" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the /api routes with an X-API-Key header.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig controls the run history log. Without a database URL the
// history is kept in memory.
type HistoryConfig struct {
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns    int    `env:"DB_MAX_CONNS" default:"5"`
	MinConns    int    `env:"DB_MIN_CONNS" default:"1"`

	// MaxEntries bounds the in-memory history.
	MaxEntries int `env:"HISTORY_MAX_ENTRIES" default:"1000"`

	RetentionDays int           `env:"HISTORY_RETENTION_DAYS" default:"30"`
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"24h"`
}

// Persistent reports whether history goes to PostgreSQL.
func (c *HistoryConfig) Persistent() bool { return c.DatabaseURL != "" }

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
