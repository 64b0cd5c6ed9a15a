package dunning

import (
	"context"
	"time"

	"github.com/paycalhq/paycal/internal/clock"
	"github.com/paycalhq/paycal/internal/config"
	"github.com/paycalhq/paycal/internal/events"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	"github.com/paycalhq/paycal/internal/observability/metrics"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Outbox *events.Outbox
}

// Worker advances unresolved obligations through the collection lifecycle:
// pending debts age into grace, grace expires into retrying, exhausted
// retries turn delinquent, and stale delinquency becomes failed.
type Worker struct {
	cfg     config.Dunning
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	outbox  *events.Outbox
	metrics *metrics.DunningMetrics
}

// Stats reports what one worker pass did.
type Stats struct {
	ToGrace      int
	ToRetrying   int
	Retried      int
	ToDelinquent int
	ToFailed     int
}

// Total returns the number of transitions applied in the pass.
func (s Stats) Total() int {
	return s.ToGrace + s.ToRetrying + s.Retried + s.ToDelinquent + s.ToFailed
}

func NewWorker(p Params) *Worker {
	return &Worker{
		cfg:     p.Config.Dunning,
		db:      p.DB,
		log:     p.Log.Named("dunning.worker"),
		clock:   p.Clock,
		outbox:  p.Outbox,
		metrics: metrics.Dunning(p.Config.Tracing.ServiceName, p.Config.Environment),
	}
}

// Run polls until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.log.Info("dunning worker started",
		zap.Duration("poll_interval", w.cfg.PollInterval),
		zap.Int("batch_size", w.cfg.BatchSize),
	)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("dunning worker stopped")
			return
		case <-ticker.C:
			stats, err := w.RunOnce(ctx)
			if err != nil {
				w.log.Error("dunning pass failed", zap.Error(err))
				continue
			}
			if stats.Total() > 0 {
				w.log.Info("dunning pass applied transitions",
					zap.Int("to_grace", stats.ToGrace),
					zap.Int("to_retrying", stats.ToRetrying),
					zap.Int("retried", stats.Retried),
					zap.Int("to_delinquent", stats.ToDelinquent),
					zap.Int("to_failed", stats.ToFailed),
				)
			}
		}
	}
}

// RunOnce applies every due transition once, in lifecycle order, and
// refreshes the backlog gauges.
func (w *Worker) RunOnce(ctx context.Context) (Stats, error) {
	started := time.Now()
	defer func() { w.metrics.ObserveRun(time.Since(started)) }()

	now := w.clock.Now()
	today := scheduledomain.DateOnly(now)

	var stats Stats
	passes := []struct {
		count *int
		run   func(context.Context, time.Time, time.Time) (int, error)
	}{
		{&stats.ToGrace, w.pendingToGrace},
		{&stats.ToRetrying, w.graceToRetrying},
		{&stats.Retried, w.retryAgain},
		{&stats.ToDelinquent, w.retryingToDelinquent},
		{&stats.ToFailed, w.delinquentToFailed},
	}
	for _, pass := range passes {
		n, err := pass.run(ctx, now, today)
		if err != nil {
			return stats, err
		}
		*pass.count += n
	}

	if err := w.refreshBacklog(ctx, now); err != nil {
		w.log.Warn("backlog refresh failed", zap.Error(err))
	}
	return stats, nil
}

// pendingToGrace moves debts past their due date into the grace window.
func (w *Worker) pendingToGrace(ctx context.Context, now, today time.Time) (int, error) {
	return w.transition(ctx, transitionSpec{
		from:      obligationdomain.StatusPending,
		to:        obligationdomain.StatusGrace,
		condition: "due_date < ?",
		args:      []any{today},
		now:       now,
	})
}

// graceToRetrying escalates debts whose grace period ran out and schedules
// the first retry.
func (w *Worker) graceToRetrying(ctx context.Context, now, _ time.Time) (int, error) {
	nextRetry := now.Add(w.cfg.RetryInterval)
	return w.transition(ctx, transitionSpec{
		from:      obligationdomain.StatusGrace,
		to:        obligationdomain.StatusRetrying,
		condition: "due_date <= ?",
		args:      []any{now.Add(-w.cfg.GracePeriod)},
		now:       now,
		apply: func(o *obligationdomain.Obligation) {
			o.AttemptCount++
			o.NextRetryAt = &nextRetry
		},
		escalate: true,
	})
}

// retryAgain burns another attempt on retrying debts whose retry moment
// arrived but whose attempt budget is not exhausted.
func (w *Worker) retryAgain(ctx context.Context, now, _ time.Time) (int, error) {
	nextRetry := now.Add(w.cfg.RetryInterval)
	return w.transition(ctx, transitionSpec{
		from:      obligationdomain.StatusRetrying,
		to:        obligationdomain.StatusRetrying,
		condition: "next_retry_at <= ? AND attempt_count < ?",
		args:      []any{now, w.cfg.MaxRetryAttempts},
		now:       now,
		apply: func(o *obligationdomain.Obligation) {
			o.AttemptCount++
			o.NextRetryAt = &nextRetry
		},
	})
}

// retryingToDelinquent gives up on debts that used their whole attempt
// budget.
func (w *Worker) retryingToDelinquent(ctx context.Context, now, _ time.Time) (int, error) {
	return w.transition(ctx, transitionSpec{
		from:      obligationdomain.StatusRetrying,
		to:        obligationdomain.StatusDelinquent,
		condition: "next_retry_at <= ? AND attempt_count >= ?",
		args:      []any{now, w.cfg.MaxRetryAttempts},
		now:       now,
		apply: func(o *obligationdomain.Obligation) {
			o.NextRetryAt = nil
		},
		escalate: true,
	})
}

// delinquentToFailed closes the lifecycle for debt that stayed delinquent
// past the configured age.
func (w *Worker) delinquentToFailed(ctx context.Context, now, _ time.Time) (int, error) {
	return w.transition(ctx, transitionSpec{
		from:      obligationdomain.StatusDelinquent,
		to:        obligationdomain.StatusFailed,
		condition: "due_date <= ?",
		args:      []any{now.Add(-w.cfg.DelinquencyAge)},
		now:       now,
		escalate:  true,
	})
}

type transitionSpec struct {
	from      obligationdomain.Status
	to        obligationdomain.Status
	condition string
	args      []any
	now       time.Time
	apply     func(*obligationdomain.Obligation)
	escalate  bool
}

// transition claims a batch of candidates and applies one lifecycle step.
// The row lock skips obligations another worker already claimed; the status
// guard in the UPDATE makes the step a no-op if a settlement won the race.
func (w *Worker) transition(ctx context.Context, spec transitionSpec) (int, error) {
	applied := 0
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.
			Where("status = ?", spec.from).
			Where(spec.condition, spec.args...).
			Order("due_date ASC, id ASC").
			Limit(w.cfg.BatchSize)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var batch []obligationdomain.Obligation
		if err := query.Find(&batch).Error; err != nil {
			return err
		}

		for i := range batch {
			o := &batch[i]
			o.Status = spec.to
			if spec.apply != nil {
				spec.apply(o)
			}
			o.UpdatedAt = spec.now

			res := tx.Model(&obligationdomain.Obligation{}).
				Where("id = ? AND status = ?", o.ID, spec.from).
				Updates(map[string]any{
					"status":        o.Status,
					"attempt_count": o.AttemptCount,
					"next_retry_at": o.NextRetryAt,
					"updated_at":    o.UpdatedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			applied++
			w.metrics.IncTransition(string(spec.from), string(spec.to))

			if spec.escalate {
				ruleID := ""
				if o.RuleID != nil {
					ruleID = o.RuleID.String()
				}
				err := w.outbox.PublishTx(ctx, tx, events.Event{
					OrgID: o.OrgID,
					Type:  events.EventObligationEscalated,
					Payload: events.ObligationPayload{
						ObligationID: o.ID.String(),
						RuleID:       ruleID,
						Status:       string(o.Status),
						DueDate:      o.DueDateKey,
					},
					DedupeKey: events.EventObligationEscalated + ":" + o.ID.String() + ":" + string(o.Status),
				})
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

// refreshBacklog publishes gauge values for unresolved debt by status.
func (w *Worker) refreshBacklog(ctx context.Context, now time.Time) error {
	type row struct {
		Status string
		Total  int
		Oldest *time.Time
	}
	var rows []row
	err := w.db.WithContext(ctx).
		Raw(`SELECT status, COUNT(*) AS total, MIN(due_date) AS oldest
		     FROM obligations
		     WHERE status IN ('pending', 'grace', 'retrying', 'delinquent', 'failed')
		     GROUP BY status`).
		Scan(&rows).Error
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, r := range rows {
		seen[r.Status] = true
		w.metrics.SetBacklog(r.Status, r.Total)
		if r.Oldest != nil {
			w.metrics.SetBacklogOldest(r.Status, now.Sub(*r.Oldest))
		}
	}
	for _, status := range []obligationdomain.Status{
		obligationdomain.StatusPending,
		obligationdomain.StatusGrace,
		obligationdomain.StatusRetrying,
		obligationdomain.StatusDelinquent,
		obligationdomain.StatusFailed,
	} {
		if !seen[string(status)] {
			w.metrics.SetBacklog(string(status), 0)
			w.metrics.SetBacklogOldest(string(status), 0)
		}
	}
	return nil
}
