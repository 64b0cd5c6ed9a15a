package audit

import (
	"github.com/paycalhq/paycal/internal/audit/repository"
	"github.com/paycalhq/paycal/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
