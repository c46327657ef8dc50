package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server defaults
const (
	DefaultAddr        = ":8080"
	DefaultMaxAttempts = 64
	DefaultSendBuffer  = 256
	DefaultGinMode     = "release"
)

// ServerConfig holds signaling service configuration
type ServerConfig struct {
	// Addr is the listen address
	Addr string

	// AllowedOrigins is checked for CORS and websocket upgrades; "*" allows all
	AllowedOrigins []string

	// RoomIdleTTL expires rooms that never got a second member; 0 disables it
	RoomIdleTTL time.Duration

	// MaxAttempts caps code allocation retries
	MaxAttempts int

	// SendBuffer is the outbound queue length per client
	SendBuffer int

	// GinMode is passed to gin.SetMode
	GinMode string
}

// ServerOptions carries flag overrides for the server
type ServerOptions struct {
	Addr           string
	AllowedOrigins string
	RoomIdleTTL    string
}

// LoadServer reads server configuration: flags > env > .env > defaults.
func LoadServer(opts ServerOptions) (*ServerConfig, error) {
	loadDotEnv()

	addr := firstNonEmpty(opts.Addr, os.Getenv("ADDR"))
	if addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			addr = ":" + port
		} else {
			addr = DefaultAddr
		}
	}

	var ttl time.Duration
	if raw := firstNonEmpty(opts.RoomIdleTTL, os.Getenv("ROOM_IDLE_TTL")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid room idle ttl %q: %w", raw, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("room idle ttl must not be negative, got %s", d)
		}
		ttl = d
	}

	maxAttempts, err := envInt("CODE_MAX_ATTEMPTS", DefaultMaxAttempts)
	if err != nil {
		return nil, err
	}
	sendBuffer, err := envInt("SEND_BUFFER", DefaultSendBuffer)
	if err != nil {
		return nil, err
	}

	return &ServerConfig{
		Addr:           addr,
		AllowedOrigins: splitList(firstNonEmpty(opts.AllowedOrigins, os.Getenv("ALLOWED_ORIGINS"), "*")),
		RoomIdleTTL:    ttl,
		MaxAttempts:    maxAttempts,
		SendBuffer:     sendBuffer,
		GinMode:        firstNonEmpty(os.Getenv("GIN_MODE"), DefaultGinMode),
	}, nil
}

// AllowsAnyOrigin reports whether origin checks are disabled.
func (c *ServerConfig) AllowsAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// AllowsOrigin reports whether a browser origin may connect.
func (c *ServerConfig) AllowsOrigin(origin string) bool {
	if origin == "" || c.AllowsAnyOrigin() {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
