package logging

import "log/slog"

// EnableTrace turns on per-record debug output. Set by a TRACE log level.
var EnableTrace = false

// TraceDefault logs to the default logger at DEBUG level if EnableTrace is true.
func TraceDefault(msg string, args ...any) {
	if EnableTrace {
		slog.Debug(msg, args...)
	}
}
