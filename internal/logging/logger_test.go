package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	lg, err := New(Options{Level: "DEBUG", Service: "api", Version: "test"})
	require.NoError(t, err)
	assert.True(t, lg.Core().Enabled(zap.DebugLevel))

	lg, err = New(Options{Level: "chatty", Production: true, Service: "worker"})
	require.NoError(t, err)
	assert.False(t, lg.Core().Enabled(zap.DebugLevel))
	assert.True(t, lg.Core().Enabled(zap.InfoLevel))

	lg.Level.SetLevel(zap.WarnLevel)
	assert.False(t, lg.Core().Enabled(zap.InfoLevel))
	lg.Close()
}
