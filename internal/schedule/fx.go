package schedule

import (
	"github.com/paycalhq/paycal/internal/schedule/repository"
	"github.com/paycalhq/paycal/internal/schedule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("schedule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
