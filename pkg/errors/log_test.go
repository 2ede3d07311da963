package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogHandlerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &LogHandler{Logger: zap.New(core), Verbose: true}

	h.HandleError(Errorf("core.View.Get", KindNotFound, "login.user", "missing"))
	h.HandlePanic(&PanicError{Op: "fill", Value: "boom", StackTrace: "frame"})
	h.HandleFillReport(&FillReport{View: "login", Ignored: []string{"extra"}})

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "widgetry error", entries[0].Message)
	assert.Equal(t, "not_found", entries[0].ContextMap()["kind"])
	assert.Equal(t, "login.user", entries[0].ContextMap()["name"])

	assert.Equal(t, "widgetry panic", entries[1].Message)
	assert.Equal(t, "frame", entries[1].ContextMap()["stack"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "login", entries[2].ContextMap()["view"])
}

func TestLogHandlerIgnoresNil(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &LogHandler{Logger: zap.New(core)}

	h.HandleError(nil)
	h.HandlePanic(nil)
	h.HandleFillReport(nil)

	assert.Zero(t, logs.Len())
}
