// Package logger builds the *zap.SugaredLogger instances used across the
// store for operational visibility: generation open/recovery, rotation,
// trim and close events.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a SugaredLogger for the given service name, encoding as
// console output at info level. Every log line carries a "service" field
// so output from multiple stores in the same process can be told apart.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	log, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op logger rather than panic; a missing logger
		// should never take down the store.
		log = zap.NewNop()
	}

	return log.Sugar().With("service", service)
}

// NewNop returns a logger that discards everything. Used by callers that
// don't supply one of their own, so internal code never has to nil-check.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
