package syncengine

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metrics instruments for staging reconciliation.
type Metrics struct {
	modulesSyncedTotal metric.Int64Counter
	modulesPrunedTotal metric.Int64Counter
}

// syncMetrics is the global metrics instance for this package. Set via
// SetMetrics() during application initialization.
var syncMetrics *Metrics

// SetMetrics sets the global metrics instance.
func SetMetrics(m *Metrics) {
	syncMetrics = m
}

// NewMetrics creates syncengine metrics instruments.
// If meter is nil, returns nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return nil, nil
	}

	modulesSyncedTotal, err := meter.Int64Counter(
		"hybridmount_modules_synced_total",
		metric.WithDescription("Modules copied into the staging area"),
	)
	if err != nil {
		return nil, err
	}

	modulesPrunedTotal, err := meter.Int64Counter(
		"hybridmount_modules_pruned_total",
		metric.WithDescription("Orphaned staging entries removed"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		modulesSyncedTotal: modulesSyncedTotal,
		modulesPrunedTotal: modulesPrunedTotal,
	}, nil
}

func (m *Metrics) recordSynced(ctx context.Context) {
	if m == nil {
		return
	}
	m.modulesSyncedTotal.Add(ctx, 1)
}

func (m *Metrics) recordPruned(ctx context.Context) {
	if m == nil {
		return
	}
	m.modulesPrunedTotal.Add(ctx, 1)
}
