package dunning

import (
	"context"

	"github.com/paycalhq/paycal/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module runs the obligation lifecycle worker for the process lifetime.
var Module = fx.Module("dunning.worker",
	fx.Provide(NewWorker),
	fx.Invoke(registerWorker),
)

func registerWorker(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, worker *Worker) {
	if !cfg.Dunning.Enabled {
		log.Named("dunning.worker").Info("dunning worker disabled")
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				worker.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
