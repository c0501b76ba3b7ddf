package executor

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metrics instruments for the mount-dispatch passes.
type Metrics struct {
	overlayMountTotal metric.Int64Counter
	magicMountTotal   metric.Int64Counter
}

// execMetrics is the global metrics instance for this package. Set via
// SetMetrics() during application initialization.
var execMetrics *Metrics

// SetMetrics sets the global metrics instance.
func SetMetrics(m *Metrics) {
	execMetrics = m
}

// NewMetrics creates executor metrics instruments.
// If meter is nil, returns nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		return nil, nil
	}

	overlayMountTotal, err := meter.Int64Counter(
		"hybridmount_overlay_mount_total",
		metric.WithDescription("OverlayFS mount attempts by partition and outcome"),
	)
	if err != nil {
		return nil, err
	}

	magicMountTotal, err := meter.Int64Counter(
		"hybridmount_magic_mount_total",
		metric.WithDescription("Magic-mount pass invocations by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		overlayMountTotal: overlayMountTotal,
		magicMountTotal:   magicMountTotal,
	}, nil
}

// recordOverlay records one OverlayFS mount attempt for target.
func (m *Metrics) recordOverlay(ctx context.Context, target string, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.overlayMountTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("target", target),
			attribute.String("status", status),
		))
}

// recordMagic records one magic-mount pass invocation.
func (m *Metrics) recordMagic(ctx context.Context, moduleCount int, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.magicMountTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int("modules", moduleCount),
			attribute.String("status", status),
		))
}
