package obligation

import (
	"github.com/paycalhq/paycal/internal/obligation/repository"
	"github.com/paycalhq/paycal/internal/obligation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("obligation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
