package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Provider interface {
	// Name is the adapter family, e.g. "koa" or "campspot".
	Name() string
	// Classes lists the accommodation classes the venue reports. Nil means the
	// venue answers with a single result.
	Classes() []Class
	// FetchAvailability runs the fetch-parse-normalize pipeline. Expected
	// failures come back as unavailable results, never as errors.
	FetchAvailability(ctx context.Context, q Query) Outcome
	// BookingURL is the public page a user books on.
	BookingURL() string
}

// Registry maps stable campground ids to adapters. It is filled once at
// startup and only read afterwards.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry { return &Registry{providers: map[string]Provider{}} }

func (r *Registry) Register(id string, p Provider) { r.providers[id] = p }

func (r *Registry) Get(id string) (Provider, bool) { p, ok := r.providers[id]; return p, ok }

// IDs returns every registered campground id, sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.providers))
	for id := range r.providers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

var tracer = otel.Tracer("github.com/brensch/campcheck/internal/providers")

// Fetch looks up the adapter for id and runs it. A panicking adapter is
// converted into a *PanicError so callers can answer with a generic failure.
func (r *Registry) Fetch(ctx context.Context, id string, q Query) (out Outcome, err error) {
	p, ok := r.Get(id)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownCampground, id)
	}

	ctx, span := tracer.Start(ctx, "venue.fetch", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("campground", id),
		attribute.String("adapter", p.Name()),
		attribute.String("query", q.Key()),
	)
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Campground: id, Value: rec}
			span.SetStatus(codes.Error, err.Error())
			slog.Error("adapter panicked", slog.String("campground", id), slog.Any("panic", rec))
		}
		span.End()
	}()

	out = p.FetchAvailability(ctx, q)
	span.SetAttributes(attribute.Bool("available", out.AnyAvailable()))
	slog.Info("availability fetched",
		slog.String("campground", id),
		slog.String("adapter", p.Name()),
		slog.Bool("available", out.AnyAvailable()),
		slog.Duration("took", time.Since(start)),
	)
	return out, nil
}
