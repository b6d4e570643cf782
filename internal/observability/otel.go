package observability

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/openshelf/openshelf-backend/internal/platform/envutil"
	"github.com/openshelf/openshelf-backend/internal/platform/logger"
)

// tracingConfig is populated entirely from the environment so callers only
// decide when to initialize, not what with.
type tracingConfig struct {
	serviceName string
	environment string
	version     string
	endpoint    string
	headers     map[string]string
	insecure    bool
	sampleRatio float64
}

func tracingFromEnv() tracingConfig {
	return tracingConfig{
		serviceName: envutil.Str("OTEL_SERVICE_NAME", "openshelf-backend"),
		environment: envutil.Str("ENVIRONMENT", "development"),
		version:     envutil.Str("SERVICE_VERSION", "dev"),
		endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		headers:     parseHeaderList(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		sampleRatio: sampleRatioFromEnv(),
	}
}

func sampleRatioFromEnv() float64 {
	raw := strings.TrimSpace(os.Getenv("OTEL_SAMPLER_RATIO"))
	if raw == "" {
		return 0.1
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.1
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// parseHeaderList turns "k1=v1,k2=v2" into a header map, skipping malformed
// entries.
func parseHeaderList(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider when OTEL_ENABLED is set.
// Everything else is read from the environment too: OTLP endpoint (stdout
// exporter when unset), headers, sampler ratio, and the resource identity.
// Returns the provider shutdown, nil when tracing stayed off.
func InitOTel(ctx context.Context, log *logger.Logger) func(context.Context) error {
	otelOnce.Do(func() {
		if !envutil.Bool("OTEL_ENABLED", false) {
			return
		}
		cfg := tracingFromEnv()

		res, err := resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(cfg.serviceName),
				semconv.ServiceVersionKey.String(cfg.version),
				attribute.String("deployment.environment", cfg.environment),
			),
		)
		if err != nil && log != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.sampleRatio))),
			sdktrace.WithResource(res),
		}
		exporter, expErr := newTraceExporter(ctx, log, cfg)
		if expErr != nil && log != nil {
			log.Warn("otel exporter init failed (continuing)", "error", expErr)
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
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized", "service", cfg.serviceName, "endpoint", cfg.endpoint)
		}
	})
	return otelShutdown
}

func newTraceExporter(ctx context.Context, log *logger.Logger, cfg tracingConfig) (sdktrace.SpanExporter, error) {
	if cfg.endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.endpoint)}
		if cfg.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if cfg.headers != nil {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	if log != nil {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	}
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}
