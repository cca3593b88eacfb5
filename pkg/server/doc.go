// Package server wires the thbase HTTP surface: the submission form and
// handler, read-only image serving, the record listing API, the live feed,
// health and metrics endpoints.
//
// A Server is built from an *config.Config:
//
//	cfg, _ := config.LoadOrDefault("")
//	srv, err := server.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
//
// Run blocks until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests within the configured shutdown
// timeout.
package server
