package observability

import (
	"github.com/paycalhq/paycal/internal/observability/logger"
	"github.com/paycalhq/paycal/internal/observability/metrics"
	"github.com/paycalhq/paycal/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires logging, tracing and HTTP metrics.
var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(tracing.NewProvider),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
