// Package observability configures OpenTelemetry tracing. Tracing is off
// unless OTEL_ENABLED is set; spans then go to the OTLP endpoint in
// OTEL_EXPORTER_OTLP_ENDPOINT, or to stdout when none is configured.
package observability

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/abhisek/gilbot/internal/logger"
)

// DefaultSampleRatio is used when OTEL_SAMPLER_RATIO is unset or invalid.
const DefaultSampleRatio = 0.1

// Config describes the traced service.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	Enabled     bool
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64

	// StdoutWriter receives spans when no endpoint is set. Defaults to
	// os.Stdout.
	StdoutWriter io.Writer
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// ConfigFromEnv reads the standard OTEL_* variables.
func ConfigFromEnv(serviceName, version string) Config {
	return Config{
		ServiceName: serviceName,
		Environment: getEnv("GILBOT_ENV"),
		Version:     version,
		Enabled:     truthy(getEnv("OTEL_ENABLED")),
		Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Headers:     parseHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:    truthy(getEnv("OTEL_EXPORTER_OTLP_INSECURE")),
		SampleRatio: parseRatio(getEnv("OTEL_SAMPLER_RATIO")),
	}
}

// Init installs a global tracer provider when tracing is enabled. Exporter
// failures are logged and tracing continues without export. The returned
// function is never nil.
func Init(ctx context.Context, log *logger.Logger, cfg Config) ShutdownFunc {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop
	}
	if log == nil {
		log = logger.Nop()
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "gilbot"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		),
	)
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
	}
	exporter, err := buildExporter(ctx, log, cfg)
	if err != nil {
		log.Warn("otel exporter init failed (continuing)", "error", err)
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("otel tracing initialized", "service", serviceName, "endpoint", cfg.Endpoint)
	return tp.Shutdown
}

func buildExporter(ctx context.Context, log *logger.Logger, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}

	w := cfg.StdoutWriter
	if w == nil {
		w = os.Stdout
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	return exp, nil
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseRatio(v string) float64 {
	if v == "" {
		return DefaultSampleRatio
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return DefaultSampleRatio
	}
	return min(max(f, 0), 1)
}

// parseHeaders reads "k1=v1,k2=v2". Malformed pairs are skipped.
func parseHeaders(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
