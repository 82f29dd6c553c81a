package log

// Logger is the logging surface of the protocol engine. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NOOPLogger drops every record.
type NOOPLogger struct{}

func (NOOPLogger) Debug(string, ...any) {}
func (NOOPLogger) Info(string, ...any)  {}
func (NOOPLogger) Warn(string, ...any)  {}
func (NOOPLogger) Error(string, ...any) {}

// OrNOOP returns l, or a NOOPLogger when l is nil.
func OrNOOP(l Logger) Logger {
	if l == nil {
		return NOOPLogger{}
	}
	return l
}
