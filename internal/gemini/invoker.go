package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wonderfulgo/internal/logger"
	"wonderfulgo/internal/metrics"
)

var ErrAllModelsFailed = errors.New("all gemini models failed")

const tracerName = "wonderfulgo/internal/gemini"

type Generator interface {
	Generate(ctx context.Context, req Request) (Envelope, error)
}

type Result struct {
	Envelope Envelope
	Model    string
	Attempts int
}

// Invoker walks a priority-ordered model chain and returns the first
// successful envelope. Every per-model error is a soft failure.
type Invoker struct {
	generator  Generator
	models     []string
	retryDelay time.Duration
	tracer     trace.Tracer
}

func NewInvoker(generator Generator, models []string, retryDelay time.Duration) *Invoker {
	return &Invoker{
		generator:  generator,
		models:     append([]string(nil), models...),
		retryDelay: retryDelay,
		tracer:     otel.Tracer(tracerName),
	}
}

// WithTracerProvider reports attempt spans to tp instead of the global
// provider.
func (i *Invoker) WithTracerProvider(tp trace.TracerProvider) *Invoker {
	if tp != nil {
		i.tracer = tp.Tracer(tracerName)
	}
	return i
}

func (i *Invoker) Models() []string {
	return append([]string(nil), i.models...)
}

func (i *Invoker) Invoke(ctx context.Context, prompt string, grounded bool) (Result, error) {
	var lastErr error
	for idx, model := range i.models {
		if idx > 0 {
			if err := sleepContext(ctx, i.retryDelay); err != nil {
				lastErr = err
				break
			}
		}

		envelope, err := i.attempt(ctx, Request{Model: model, Prompt: prompt, Grounded: grounded})
		if err == nil {
			return Result{Envelope: envelope, Model: model, Attempts: idx + 1}, nil
		}
		lastErr = err
		logger.Warn(ctx, "gemini model attempt failed",
			"model", model,
			"attempt", idx+1,
			"error", err.Error(),
		)
		if ctx.Err() != nil {
			break
		}
	}

	metrics.UpstreamChainExhaustedTotal.Inc()
	if lastErr == nil {
		return Result{}, ErrAllModelsFailed
	}
	return Result{}, fmt.Errorf("%w: %w", ErrAllModelsFailed, lastErr)
}

func (i *Invoker) attempt(ctx context.Context, req Request) (Envelope, error) {
	ctx, span := i.tracer.Start(ctx, "gemini.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", req.Model),
		attribute.Bool("gemini.grounded", req.Grounded),
	)

	started := time.Now()
	envelope, err := i.generator.Generate(ctx, req)
	metrics.UpstreamAttemptDuration.WithLabelValues(req.Model).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.UpstreamAttemptsTotal.WithLabelValues(req.Model, "soft_failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return nil, err
	}
	metrics.UpstreamAttemptsTotal.WithLabelValues(req.Model, "ok").Inc()
	return envelope, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
