// Package health serves the liveness, readiness and version endpoints of the
// docgate watch listener.
//
// # Endpoints
//
//   - /health: the process is running
//   - /ready: every registered component check passes
//   - /version: build information
//
// # Component Checks
//
// The watch command registers one check per long-lived component:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("gate", func(ctx context.Context) error {
//	    if gate.Stats().Closed {
//	        return errors.New("admission gate closed")
//	    }
//	    return nil
//	})
//	health.Mount(mux, checker, version, commit, buildDate)
//
// A failing or slow check turns /ready into 503 with status "degraded". The
// failing check's message is included in the body:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "gate": {"status": "ok"},
//	        "journal": {"status": "unhealthy", "message": "dial tcp: connection refused"}
//	    },
//	    "timestamp": "2026-03-02T10:30:00Z"
//	}
package health
