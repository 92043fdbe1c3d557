package morph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   LogConfig
		level zapcore.Level
	}{
		{"console info", LogConfig{Level: "info", Encoding: "console"}, zapcore.InfoLevel},
		{"json debug", LogConfig{Level: "debug", Encoding: "json"}, zapcore.DebugLevel},
		{"default encoding", LogConfig{Level: "warn"}, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewLogger(tt.cfg)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.level-1))
			}
		})
	}
}

func TestNewLoggerErrors(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")

	_, err = NewLogger(LogConfig{Level: "info", Encoding: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build logger")
}
