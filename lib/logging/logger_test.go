package logging

import (
	"bytes"
	"log"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logger.LogLevel
		wantErr  bool
	}{
		{"debug", logger.DEBUG, false},
		{"INFO", logger.INFO, false},
		{"warn", logger.WARNING, false},
		{"warning", logger.WARNING, false},
		{"error", logger.ERROR, false},
		{"verbose", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, level)
		})
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := &kvLogger{name: "bench", level: logger.WARNING, logger: log.New(&buf, "", 0)}

	l.Infof("hidden %d", 1)
	require.Empty(t, buf.String())

	l.Warningf("shown %d", 2)
	require.Equal(t, "WARN  | bench           | shown 2\n", buf.String())
}

func TestInitLoggersRejectsInvalidLevel(t *testing.T) {
	require.Error(t, InitLoggers("loud"))
}
