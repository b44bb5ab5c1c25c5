package engine

import (
	"io"

	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/observability"
)

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger replaces the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithOpener replaces how FILE_BACKED partitions are opened.
func WithOpener(open Opener) Option {
	return func(e *Engine) { e.open = open }
}

// WithMetricsWriter sends metric lines to w instead of Config.MetricsLog.
func WithMetricsWriter(w io.Writer) Option {
	return func(e *Engine) { e.metricsOut = w }
}

// WithInstruments records task and action metrics on m instead of
// instruments from the global meter provider.
func WithInstruments(m *observability.Metrics) Option {
	return func(e *Engine) { e.instruments = m }
}
