// Package log is a thin wrapper over zap, the logging library used
// throughout this module, giving every package a pre-configured
// *zap.SugaredLogger without each caller repeating the construction
// boilerplate.
package log

import "go.uber.org/zap"

// NewNop returns a logger that discards everything, used in tests and
// anywhere logging would be noise.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// NewDevelopment returns a human-readable, colorized logger suitable
// for local runs of cmd/citybound.
func NewDevelopment() *zap.SugaredLogger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return NewNop()
	}
	return l.Sugar()
}

// NewProduction returns a JSON logger suitable for long-running
// simulation hosts.
func NewProduction() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		return NewNop()
	}
	return l.Sugar()
}

// Named returns a child logger tagged with the given module name, the
// pattern every package in this module uses to identify its log lines
// (e.g. log.Named(base, "transport")).
func Named(base *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if base == nil {
		base = NewNop()
	}
	return base.Named(name)
}
