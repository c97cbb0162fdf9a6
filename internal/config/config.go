package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/richtext/internal/style"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Rendering
	Theme    string
	Measurer string

	// Image loader
	ImageWorkerCount  int
	ImageQueueSize    int
	ImageFetchTimeout time.Duration
	ImageMaxBytes     int64
	ImageStateTTL     time.Duration

	// Math
	MathRenderTimeout time.Duration
	MathCacheSize     int

	// Latency stats window
	StatsWindow time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("RICHTEXT_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		Theme:    envOr("THEME", "default"),
		Measurer: envOr("MEASURER", "font"),

		ImageWorkerCount:  envInt("IMAGE_WORKER_COUNT", 4),
		ImageQueueSize:    envInt("IMAGE_QUEUE_SIZE", 100),
		ImageFetchTimeout: envDuration("IMAGE_FETCH_TIMEOUT", 10*time.Second),
		ImageMaxBytes:     envInt64("IMAGE_MAX_BYTES", 10485760), // 10MB
		ImageStateTTL:     envDuration("IMAGE_STATE_TTL", 1*time.Hour),

		MathRenderTimeout: envDuration("MATH_RENDER_TIMEOUT", 2*time.Second),
		MathCacheSize:     envInt("MATH_CACHE_SIZE", 256),

		StatsWindow: envDuration("STATS_WINDOW", 15*time.Minute),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ImageWorkerCount <= 0 {
		cfg.ImageWorkerCount = 4
	}
	if cfg.ImageQueueSize <= 0 {
		cfg.ImageQueueSize = 100
	}
	if cfg.ImageFetchTimeout <= 0 {
		cfg.ImageFetchTimeout = 10 * time.Second
	}
	if cfg.ImageMaxBytes <= 0 {
		cfg.ImageMaxBytes = 10485760
	}
	if cfg.ImageStateTTL <= 0 {
		cfg.ImageStateTTL = 1 * time.Hour
	}
	if cfg.MathRenderTimeout <= 0 {
		cfg.MathRenderTimeout = 2 * time.Second
	}
	if cfg.MathCacheSize <= 0 {
		cfg.MathCacheSize = 256
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 15 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("RICHTEXT_API_KEY is required")
	}
	if _, err := style.ThemeByName(c.Theme); err != nil {
		return fmt.Errorf("THEME: %w", err)
	}
	switch strings.ToLower(c.Measurer) {
	case "", "font", "cell":
	default:
		return fmt.Errorf("MEASURER must be font or cell, got %q", c.Measurer)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
