package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/powkey/powkey/internal/config"
)

func TestNewConsole(t *testing.T) {
	logger, err := New(config.LogConfig{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	logger.Info("console logger works")
}

func TestNewJSONWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powkey.log")
	logger, err := New(config.LogConfig{
		Level:      "info",
		Encoding:   "json",
		OutputPath: path,
		MaxSizeMB:  1,
	})
	require.NoError(t, err)
	logger.Info("file logger works")
	_ = logger.Sync() // stderr may not support fsync


	assert.FileExists(t, path)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Encoding: "console"})
	assert.Error(t, err)
}
