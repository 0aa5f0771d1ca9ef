package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"orderflow/internal/config"
)

const (
	namespace       = "orderflow"
	pipelineTracer  = "orderflow-pipeline"
	exporterTimeout = 5 * time.Second
)

// Span attributes shared by the dispatcher and the persistence worker.
var (
	AttrOrderID    = attribute.Key("orderflow.order_id")
	AttrChannel    = attribute.Key("orderflow.channel")
	AttrObjectName = attribute.Key("orderflow.object_name")
	AttrAttempts   = attribute.Key("orderflow.attempts")
	AttrState      = attribute.Key("orderflow.state")
)

type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

func (p *TracerProvider) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Init installs the W3C propagator for every service, so trace headers on
// queued order records survive hops through services that do not export.
// Spans leave the process only when tracing is enabled.
func Init(cfg config.TracingConfig, serviceName string) (*TracerProvider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		return &TracerProvider{tp: sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))}, nil
	}

	sampler, err := NewSampler(cfg.Sampler)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(resolveServiceName(cfg, serviceName)),
			semconv.ServiceNamespaceKey.String(namespace),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), exporterTimeout)
	defer cancel()

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLP.Endpoint)}
	if cfg.OTLP.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// resolveServiceName prefers the binary's own name over the configured one.
func resolveServiceName(cfg config.TracingConfig, serviceName string) string {
	switch {
	case serviceName != "":
		return serviceName
	case cfg.ServiceName != "":
		return cfg.ServiceName
	default:
		return namespace
	}
}

// NewSampler maps tracing.sampler.type to an SDK sampler. Ratio samplers
// are parent based, so a record keeps the decision made at checkout.
func NewSampler(cfg config.SamplerConfig) (sdktrace.Sampler, error) {
	switch cfg.Type {
	case "", "always_on":
		return sdktrace.AlwaysSample(), nil
	case "always_off":
		return sdktrace.NeverSample(), nil
	case "traceidratio", "parentbased_traceidratio":
		if cfg.Param < 0 || cfg.Param > 1 {
			return nil, fmt.Errorf("sampler ratio %v outside [0,1]", cfg.Param)
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Param)), nil
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	default:
		return nil, fmt.Errorf("unknown sampler type: %s", cfg.Type)
	}
}

func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartStep opens a span for one pipeline step, such as a dispatch channel
// or a sink upload.
func StartStep(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer(pipelineTracer).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndStep records err on span, if any, and ends it.
func EndStep(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
