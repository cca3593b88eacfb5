package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordedSpan struct {
	noop.Span
	mu     sync.Mutex
	name   string
	status codes.Code
	attrs  []attribute.KeyValue
	ended  bool
}

func (s *recordedSpan) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) {
	s.mu.Lock()
	s.status = code
	s.mu.Unlock()
}

func (s *recordedSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.mu.Lock()
	s.attrs = append(s.attrs, kv...)
	s.mu.Unlock()
}

func (s *recordedSpan) End(...trace.SpanEndOption) {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

func (s *recordedSpan) attr(key string) (attribute.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

type recordingTracer struct {
	noop.Tracer
	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordedSpan{name: name, attrs: cfg.Attributes()}
	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
	return trace.ContextWithSpan(ctx, span), span
}

type recordingProvider struct {
	noop.TracerProvider
	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return p.tracer
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{tracer: &recordingTracer{}}
}

func TestOpenTelemetry_NamesSpanAfterRouteMatch(t *testing.T) {
	tp := newRecordingProvider()

	var inHandler trace.Span
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(OpenTelemetry(WithTracerProvider(tp)))
	r.Get("/api/records/{th}", func(w http.ResponseWriter, r *http.Request) {
		inHandler = trace.SpanFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/records/12", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(tp.tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tp.tracer.spans))
	}
	span := tp.tracer.spans[0]
	if inHandler != span {
		t.Fatal("expected handler context to carry the request span")
	}
	if span.name != "GET /api/records/{th}" {
		t.Errorf("span name = %q", span.name)
	}
	if span.status != codes.Ok {
		t.Errorf("status = %v, want Ok", span.status)
	}
	if !span.ended {
		t.Error("expected span to be ended")
	}
	if v, ok := span.attr("thbase.request_id"); !ok || v.AsString() != "req-1" {
		t.Errorf("request id attr = %v, %v", v, ok)
	}
	if v, ok := span.attr("http.status_code"); !ok || v.AsInt64() != 200 {
		t.Errorf("status attr = %v, %v", v, ok)
	}
}

func TestOpenTelemetry_ServerErrorMarksSpan(t *testing.T) {
	tp := newRecordingProvider()

	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithTracerProvider(tp)))
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	if got := tp.tracer.spans[0].status; got != codes.Error {
		t.Fatalf("status = %v, want Error", got)
	}
}

func TestOpenTelemetry_FilterAndExtractor(t *testing.T) {
	tp := newRecordingProvider()

	r := chi.NewRouter()
	r.Use(OpenTelemetry(
		WithTracerProvider(tp),
		WithRequestFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if len(tp.tracer.spans) != 0 {
		t.Fatalf("filtered request produced %d spans", len(tp.tracer.spans))
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(tp.tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tp.tracer.spans))
	}
	if v, ok := tp.tracer.spans[0].attr("test.attr"); !ok || v.AsString() != "ok" {
		t.Errorf("custom attr = %v, %v", v, ok)
	}
}
