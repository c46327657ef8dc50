package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Default configuration values (production)
const (
	DefaultServerURL   = "wss://gofast.onrender.com/ws"
	DefaultWebURL      = "https://gofast.onrender.com"
	DefaultSTUN        = "stun:stun.l.google.com:19302"
	DefaultMaxFileSize = 16 * 1024 * 1024 // 16 MB
)

var dotenvOnce sync.Once

// loadDotEnv reads a .env file from the working directory into the process
// environment. Variables that are already set win, so real environment
// values keep priority over the file. A missing file is not an error.
func loadDotEnv() {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// Config holds peer configuration
type Config struct {
	// ServerURL is the websocket endpoint of the signaling service
	ServerURL string

	// WebURL is the browser app used to build share links
	WebURL string

	// STUNServer is the reflection server used for address discovery
	STUNServer string

	// MaxFileSize caps a single file payload in bytes
	MaxFileSize int64

	// DownloadDir is where received files are written
	DownloadDir string
}

// Options for loading config with CLI flag overrides
type Options struct {
	ServerURL   string
	WebURL      string
	STUNServer  string
	MaxFileSize int64
	DownloadDir string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. .env file
// 4. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	loadDotEnv()

	serverURL := firstNonEmpty(opts.ServerURL, os.Getenv("SERVER_URL"), DefaultServerURL)
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be ws or wss", serverURL)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize == 0 {
		maxFileSize, err = envInt64("MAX_FILE_SIZE", DefaultMaxFileSize)
		if err != nil {
			return nil, err
		}
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive, got %d", maxFileSize)
	}

	return &Config{
		ServerURL:   serverURL,
		WebURL:      strings.TrimRight(firstNonEmpty(opts.WebURL, os.Getenv("WEB_URL"), DefaultWebURL), "/"),
		STUNServer:  firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		MaxFileSize: maxFileSize,
		DownloadDir: firstNonEmpty(opts.DownloadDir, os.Getenv("DOWNLOAD_DIR"), "."),
	}, nil
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// RoomLink returns the share link for a room code.
func (c *Config) RoomLink(code string) string {
	return c.WebURL + "/r/" + code
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func envInt64(key string, def int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
