// Package logx constructs the process-wide structured logger. Every
// component receives a *zap.Logger (or its SugaredLogger) through its
// constructor; nothing reaches for a package-level global.
package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger. When dev is true it instead builds a
// development logger (console-encoded, debug level, caller info) for local
// runs started from the CLI with -dev.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// WithChain returns a child logger tagged with the chain name, so every
// log line emitted by a chain-bound component carries it without each call
// site repeating zap.String("chain", ...).
func WithChain(l *zap.Logger, chainName string) *zap.Logger {
	return l.With(zap.String("chain", chainName))
}
