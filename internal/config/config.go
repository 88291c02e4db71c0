package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendFile  = "file"
)

var DefaultAllowedWidths = []int{200, 800, 1920}

type Config struct {
	Server    ServerConfig
	Resize    ResizeConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Trace     TraceConfig
}

type ServerConfig struct {
	Addr        string
	MetricsAddr string
}

type ResizeConfig struct {
	AllowedWidths   AllowedWidths
	MaxSourceBytes  int64
	MaxSourcePixels int
	CacheMaxAge     time.Duration
}

type StorageConfig struct {
	Backend  string
	Bucket   string
	Region   string
	Endpoint string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
}

type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Requests      int
	Window        time.Duration
}

func (r RateLimitConfig) Enabled() bool {
	return strings.TrimSpace(r.RedisAddr) != "" && r.Requests > 0 && r.Window > 0
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type TraceConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

// Load reads the process configuration from the environment. A .env file in the
// working directory is applied first without overriding variables already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	widths, err := ParseAllowedWidths(env("ALLOWED_WIDTHS", ""))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:        env("RESIZER_ADDR", ":8080"),
			MetricsAddr: envRaw("METRICS_ADDR", ":9090"),
		},
		Resize: ResizeConfig{
			AllowedWidths:   widths,
			MaxSourceBytes:  int64(envInt("MAX_SOURCE_BYTES", 25<<20)),
			MaxSourcePixels: envInt("MAX_SOURCE_PIXELS", 100_000_000),
			CacheMaxAge:     envDuration("CACHE_MAX_AGE", 24*time.Hour),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(env("STORAGE_BACKEND", BackendS3)),
			Bucket:         env("SOURCE_BUCKET", ""),
			Region:         env("AWS_REGION", "ap-northeast-2"),
			Endpoint:       env("S3_ENDPOINT", ""),
			MinioEndpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			MinioSecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			MinioUseSSL:    envBool("MINIO_USE_SSL", false),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     env("REDIS_ADDR", ""),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Requests:      envInt("RATE_LIMIT_REQUESTS", 0),
			Window:        envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "json"),
			File:   env("LOG_FILE", ""),
		},
		Trace: TraceConfig{
			Exporter:     env("OTEL_TRACES_EXPORTER", "none"),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3, BackendMinio, BackendFile:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND: %s", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("SOURCE_BUCKET is required")
	}
	if c.Resize.MaxSourceBytes <= 0 {
		return fmt.Errorf("MAX_SOURCE_BYTES must be positive")
	}
	if c.Resize.MaxSourcePixels <= 0 {
		return fmt.Errorf("MAX_SOURCE_PIXELS must be positive")
	}
	return nil
}

// AllowedWidths is the fixed set of output widths a caller may request.
// The zero value allows nothing.
type AllowedWidths struct {
	widths []int
}

func NewAllowedWidths(widths ...int) AllowedWidths {
	out := slices.Clone(widths)
	slices.Sort(out)
	return AllowedWidths{widths: slices.Compact(out)}
}

// ParseAllowedWidths parses a comma-separated list. An empty list yields
// DefaultAllowedWidths.
func ParseAllowedWidths(raw string) (AllowedWidths, error) {
	var widths []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return AllowedWidths{}, fmt.Errorf("ALLOWED_WIDTHS: invalid width %q", part)
		}
		if w <= 0 {
			return AllowedWidths{}, fmt.Errorf("ALLOWED_WIDTHS: width must be positive, got %d", w)
		}
		widths = append(widths, w)
	}
	if len(widths) == 0 {
		return NewAllowedWidths(DefaultAllowedWidths...), nil
	}
	return NewAllowedWidths(widths...), nil
}

func (a AllowedWidths) Contains(width int) bool {
	_, found := slices.BinarySearch(a.widths, width)
	return found
}

func (a AllowedWidths) Values() []int {
	return slices.Clone(a.widths)
}

// String renders the set the way it appears in client-facing errors: "200, 800, 1920".
func (a AllowedWidths) String() string {
	parts := make([]string, len(a.widths))
	for i, w := range a.widths {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ", ")
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// envRaw distinguishes an explicitly empty variable from an unset one.
func envRaw(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(value)
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
