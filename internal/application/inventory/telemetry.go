package inventory

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jhoicas/serial-inventory-api/internal/application/inventory"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	devicesMinted, _     = meter.Int64Counter("inventory.devices.minted", metric.WithDescription("unidades serializadas creadas"))
	movementsRecorded, _ = meter.Int64Counter("inventory.movements.recorded", metric.WithDescription("movimientos agregados al ledger"))
	failures, _          = meter.Int64Counter("inventory.operations.failed", metric.WithDescription("operaciones del motor que terminaron en error"))
)

// startSpan abre un span para una operación del motor.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "inventory."+name, trace.WithAttributes(attrs...))
}

// endSpan registra el error (si hay) y cierra el span.
func endSpan(ctx context.Context, span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		failures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	}
	span.End()
}
