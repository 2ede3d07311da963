package errors

import (
	"go.uber.org/zap"
)

// LogHandler is an ErrorHandler that writes to a zap logger.
type LogHandler struct {
	// Logger receives the events. Nil means zap.L().
	Logger *zap.Logger
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

func (h *LogHandler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}

// HandleError logs a WidgetError at error level.
func (h *LogHandler) HandleError(err *WidgetError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err),
	}
	if err.Name != "" {
		fields = append(fields, zap.String("name", err.Name))
	}
	h.logger().Error("widgetry error", fields...)
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	fields := []zap.Field{zap.Any("value", err.Value)}
	if err.Op != "" {
		fields = append(fields, zap.String("op", err.Op))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.logger().Error("widgetry panic", fields...)
}

// HandleFillReport logs ignored keys and skipped children at warn level.
func (h *LogHandler) HandleFillReport(report *FillReport) {
	if report == nil {
		return
	}
	h.logger().Warn("fill incomplete",
		zap.String("view", report.View),
		zap.Strings("ignored", report.Ignored),
		zap.Strings("skipped", report.Skipped),
	)
}
