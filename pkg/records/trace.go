package records

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedStore wraps a Store with OpenTelemetry spans.
type tracedStore struct {
	Store
	tracer trace.Tracer
}

// Traced wraps store so every Load and Append runs in a span named
// "records.load" / "records.append". The tracer comes from the global
// provider.
func Traced(store Store, tracerName string) Store {
	return &tracedStore{
		Store:  store,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *tracedStore) Load(ctx context.Context, th int) ([]Record, error) {
	ctx, span := s.tracer.Start(ctx, "records.load",
		trace.WithAttributes(attribute.Int("thbase.th", th)))
	defer span.End()

	list, err := s.Store.Load(ctx, th)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("thbase.records", len(list)))
	return list, err
}

func (s *tracedStore) Append(ctx context.Context, th int, rec Record) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "records.append",
		trace.WithAttributes(attribute.Int("thbase.th", th)))
	defer span.End()

	stored, err := s.Store.Append(ctx, th, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Record{}, err
	}
	span.SetAttributes(attribute.Int("thbase.record_id", stored.ID))
	span.SetStatus(codes.Ok, "")
	return stored, nil
}
