// Package telemetry provides Prometheus metrics for the garage.
//
// The telemetry package handles:
//   - Counting car starts and stops by engine type
//   - Counting engine swaps by outgoing and incoming type
//   - Counting created bays and trimmed journal entries
//   - Tracking the number of bays currently in the garage
//   - Serving the /metrics endpoint
//
// Metrics live in their own registry so the endpoint only exposes garage
// series. A disabled configuration produces a no-op collector, so callers
// never need nil checks around recording.
//
// Usage:
//
//	metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{
//		Enabled:   true,
//		Namespace: "garage",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.RecordCarStart("Petrol Engine")
//	http.Handle("/metrics", metrics.Handler())
package telemetry
