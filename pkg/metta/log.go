package metta

import "go.uber.org/zap"

// Logger is the internal diagnostic sink used for the hybrid executor's
// tier-promotion and bailout events — never for println!/print, which
// always goes through the driver's injected I/O sink. Defined as a small
// interface (rather than depending on *zap.Logger directly everywhere) so
// that NopLogger costs nothing when no logger is configured, matching the
// optional-logger shape in theRebelliousNerd-codenerd/cmd/nerd/main.go.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

// NopLogger discards everything; it is the Environment's default so that
// logging is always safe to call without a nil check.
type NopLogger struct{}

func (NopLogger) Debugw(string, ...interface{}) {}
func (NopLogger) Infow(string, ...interface{})  {}
func (NopLogger) Warnw(string, ...interface{})  {}

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger builds a Logger backed by zap's production configuration
// with a debug-toggle atomic level, the same construction
// theRebelliousNerd-codenerd/cmd/nerd/main.go uses for its CLI driver.
func NewZapLogger(debug bool) (Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{s: l.Sugar()}, nil
}

func (z *zapLogger) Debugw(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Infow(msg string, kv ...interface{})  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warnw(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }
