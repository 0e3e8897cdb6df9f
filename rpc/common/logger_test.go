package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggersTwice(t *testing.T) {
	require.NotPanics(t, func() {
		require.NoError(t, InitLoggers("info"))
		require.NoError(t, InitLoggers("debug"))
		require.NoError(t, InitLoggers("warn"))
	})
	assert.Error(t, InitLoggers("verbose"))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
	}{
		{"debug", logger.DEBUG},
		{"INFO", logger.INFO},
		{"", logger.INFO},
		{"warn", logger.WARNING},
		{"warning", logger.WARNING},
		{"error", logger.ERROR},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMetaLoggerFormat(t *testing.T) {
	t.Cleanup(func() { SetLogNode("") })

	var buf bytes.Buffer
	l := newMetaLogger("statemachine", &buf)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String(), "debug is below the default level")

	l.Infof("applied %d", 7)
	assert.Contains(t, buf.String(), "INFO  | statemachine    | applied 7")
	buf.Reset()

	SetLogNode("replica 3")
	l.Warningf("slow")
	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "WARN  | replica 3 | statemachine    | slow"), line)
	buf.Reset()

	l.SetLevel(logger.ERROR)
	l.Warningf("dropped")
	assert.Empty(t, buf.String())

	assert.PanicsWithValue(t, "boom 1", func() { l.Panicf("boom %d", 1) })
}
