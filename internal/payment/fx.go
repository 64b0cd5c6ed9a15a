package payment

import (
	"github.com/paycalhq/paycal/internal/payment/adapters"
	"github.com/paycalhq/paycal/internal/payment/repository"
	"github.com/paycalhq/paycal/internal/payment/service"
	"go.uber.org/fx"
)

// Module wires the payment ingestion service.
var Module = fx.Module("payment.service",
	fx.Provide(adapters.NewRegistry),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
