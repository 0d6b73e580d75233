// Package logger configures the application's logging and observability.
//
// It uses zerolog for structured logging and integrates with New Relic to
// forward logs and correlate them with traces. When no New Relic license
// key is configured, everything degrades to plain zerolog output.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
)

// LoggerService wraps the optional New Relic application instance.
// GetApplication returns nil when New Relic is not configured, and every
// caller is expected to tolerate that.
type LoggerService struct {
	nrApp *newrelic.Application
}

// GetApplication returns the New Relic application, or nil.
func (s *LoggerService) GetApplication() *newrelic.Application {
	if s == nil {
		return nil
	}
	return s.nrApp
}

// Shutdown flushes buffered telemetry. Safe to call when New Relic is off.
func (s *LoggerService) Shutdown(timeout time.Duration) {
	if s == nil || s.nrApp == nil {
		return
	}
	s.nrApp.Shutdown(timeout)
}

// New builds the application logger and the LoggerService.
//
// Output selection:
//   - console format: human-readable ConsoleWriter on stderr
//   - json format: raw JSON on stdout; when New Relic log forwarding is
//     enabled, the stream is wrapped so log lines carry trace linking
//     metadata and are forwarded to New Relic.
func New(cfg *config.Config) (*zerolog.Logger, *LoggerService, error) {
	level, err := zerolog.ParseLevel(cfg.Observability.GetLogLevel())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	service := &LoggerService{}
	if key := cfg.Observability.NewRelic.LicenseKey; key != "" {
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.Observability.ServiceName),
			newrelic.ConfigLicense(key),
			newrelic.ConfigDistributedTracerEnabled(cfg.Observability.NewRelic.DistributedTracingEnabled),
			newrelic.ConfigAppLogForwardingEnabled(cfg.Observability.NewRelic.AppLogForwardingEnabled),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing new relic: %w", err)
		}
		service.nrApp = app
	}

	var out io.Writer
	switch cfg.Observability.Logging.Format {
	case "console":
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	default:
		out = os.Stdout
		if service.nrApp != nil && cfg.Observability.NewRelic.AppLogForwardingEnabled {
			w := zerologWriter.New(os.Stdout, service.nrApp)
			out = &w
		}
	}

	log := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Observability.ServiceName).
		Str("env", cfg.Observability.Environment).
		Logger()

	return &log, service, nil
}

// WithTraceContext returns a logger carrying the transaction's trace and
// span IDs so log lines can be joined with distributed traces.
func WithTraceContext(log zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return log
	}
	md := txn.GetTraceMetadata()
	return log.With().
		Str("trace.id", md.TraceID).
		Str("span.id", md.SpanID).
		Logger()
}
