package logging

import (
	"log/slog"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":      slog.LevelDebug,
		"dev":        slog.LevelDebug,
		"info":       slog.LevelInfo,
		"warning":    slog.LevelWarn,
		"prod":       slog.LevelError,
		"unexpected": slog.LevelInfo,
	}
	for raw, want := range cases {
		t.Setenv("LOG_LEVEL", raw)
		assert.Equal(t, want, Level(slog.LevelInfo), raw)
	}
}

func TestPionLevel(t *testing.T) {
	assert.Equal(t, logging.LogLevelDebug, PionLevel(slog.LevelDebug))
	assert.Equal(t, logging.LogLevelInfo, PionLevel(slog.LevelInfo))
	assert.Equal(t, logging.LogLevelWarn, PionLevel(slog.LevelWarn))
	assert.Equal(t, logging.LogLevelError, PionLevel(slog.LevelError))
}
