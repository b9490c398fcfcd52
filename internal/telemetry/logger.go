// Package telemetry is cold-path only: structured init/diagnostic logging
// and Prometheus counter exposition for the statistics surface named in
// spec.md §1/§7 as external collaborators ("statistics pretty-printing").
// The hot path never touches this package. Grounded on
// Aidin1998-finalex's go.uber.org/zap and prometheus/client_golang usage
// — the pack's only production structured-logging/metrics example.
package telemetry

import "go.uber.org/zap"

// NewLogger returns a zap logger configured production-JSON or
// development-console.
func NewLogger(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
