package log

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("warn", "json")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New(" DEBUG ", "console")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New("loud", "json")
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, Init("error", "json"))
	require.NotSame(t, prev, Logger)
	require.False(t, Logger.Core().Enabled(zapcore.WarnLevel))

	require.Error(t, Init("nope", "json"))
}
