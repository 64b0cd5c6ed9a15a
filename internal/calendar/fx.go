package calendar

import (
	"github.com/paycalhq/paycal/internal/calendar/service"
	"go.uber.org/fx"
)

// Module wires the calendar view service.
var Module = fx.Module("calendar.service",
	fx.Provide(service.NewService),
)
