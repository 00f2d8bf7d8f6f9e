package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/joao-fontenele/storefront"

type Metrics struct {
	compareOps  metric.Int64Counter
	compareSize metric.Int64Histogram
	cartTotal   metric.Float64Histogram
}

// NewMetrics creates the storefront instruments on the global MeterProvider,
// so InitMeterProvider must run first for them to be exported.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	compareOps, err := meter.Int64Counter("storefront.compare.operations",
		metric.WithDescription("Compare list operations by outcome"),
	)
	if err != nil {
		return nil, err
	}

	compareSize, err := meter.Int64Histogram("storefront.compare.list_size",
		metric.WithDescription("Compare list size observed after a change"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3),
	)
	if err != nil {
		return nil, err
	}

	cartTotal, err := meter.Float64Histogram("storefront.cart.total",
		metric.WithDescription("Cart totals returned by the pricing endpoints"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		compareOps:  compareOps,
		compareSize: compareSize,
		cartTotal:   cartTotal,
	}, nil
}

func (m *Metrics) RecordCompareOperation(ctx context.Context, op, outcome string) {
	m.compareOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordCompareListSize(ctx context.Context, size int) {
	m.compareSize.Record(ctx, int64(size))
}

func (m *Metrics) RecordCartTotal(ctx context.Context, total float64, couponApplied bool) {
	m.cartTotal.Record(ctx, total, metric.WithAttributes(
		attribute.Bool("coupon_applied", couponApplied),
	))
}
