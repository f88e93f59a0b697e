package port

// Logger is the logging surface the wallet services depend on. The default
// implementation routes through the global slog logger, which main bridges
// into zap.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
