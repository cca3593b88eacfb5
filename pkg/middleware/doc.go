// Package middleware provides the net/http middleware used by the thbase
// server.
//
// This package includes:
//   - Request ids
//   - Structured request logging and panic recovery
//   - Prometheus metrics
//   - OpenTelemetry tracing
//
// Every constructor returns a func(http.Handler) http.Handler so the
// middleware plugs straight into a chi router:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(middleware.Recoverer(logger))
//	r.Use(middleware.Logger(logger))
//	r.Use(middleware.Prometheus())
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("thbase")))
//
// # Prometheus Metrics
//
// The Prometheus middleware collects:
//   - thbase_http_requests_total: requests by route pattern and status
//   - thbase_http_request_duration_seconds: request duration histogram
//
// The domain counters are recorded from handler code through the Record*
// functions:
//   - thbase_uploads_rejected_total: rejected uploads by reason
//   - thbase_records_appended_total: records appended to a category
//   - thbase_images_stored_bytes: bytes of images stored
//
// The Record* functions are no-ops until Prometheus has been called, so a
// server with metrics disabled pays nothing for them.
package middleware
