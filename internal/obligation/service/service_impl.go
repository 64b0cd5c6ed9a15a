package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/paycalhq/paycal/internal/audit/domain"
	"github.com/paycalhq/paycal/internal/clock"
	"github.com/paycalhq/paycal/internal/events"
	"github.com/paycalhq/paycal/internal/obligation/domain"
	"github.com/paycalhq/paycal/internal/orgcontext"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Outbox   *events.Outbox
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	outbox   *events.Outbox
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("obligation.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		outbox:   p.Outbox,
		auditSvc: p.AuditSvc,
	}
}

type ruleRow struct {
	ID         snowflake.ID
	ClientName string
	Amount     int64
	Currency   string
}

// MarkUnpaid opens a custom obligation for an occurrence that looked paid but
// bounced outside Stripe. At most one unresolved obligation may exist per
// (rule, due date) pair; the check here is backed by a partial unique index.
func (s *Service) MarkUnpaid(ctx context.Context, req domain.MarkUnpaidRequest) (domain.Obligation, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.Obligation{}, domain.ErrInvalidOrganization
	}
	if req.RuleID == 0 {
		return domain.Obligation{}, domain.ErrInvalidRuleID
	}
	dueDateKey, ok := scheduledomain.NormalizeDateKey(req.DueDate)
	if !ok {
		return domain.Obligation{}, domain.ErrInvalidDueDate
	}

	var created domain.Obligation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rule ruleRow
		if err := tx.WithContext(ctx).Raw(
			`SELECT id, client_name, amount, currency
			 FROM payment_rules
			 WHERE org_id = ? AND id = ?`,
			orgID,
			req.RuleID,
		).Scan(&rule).Error; err != nil {
			return err
		}
		if rule.ID == 0 {
			return domain.ErrRuleNotFound
		}

		existing, err := s.repo.FindUnresolvedForOccurrence(ctx, tx, orgID, req.RuleID, dueDateKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrObligationExists
		}

		now := s.clock.Now()
		dueDate, err := parseDateKey(dueDateKey)
		if err != nil {
			return domain.ErrInvalidDueDate
		}
		ruleID := req.RuleID
		created = domain.Obligation{
			ID:         s.genID.Generate(),
			OrgID:      orgID,
			RuleID:     &ruleID,
			Origin:     domain.OriginCustom,
			ClientName: rule.ClientName,
			Amount:     rule.Amount,
			Currency:   rule.Currency,
			DueDate:    dueDate,
			DueDateKey: dueDateKey,
			Status:     domain.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.Insert(ctx, tx, &created); err != nil {
			return err
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID: orgID,
			Type:  events.EventObligationCreated,
			Payload: events.ObligationPayload{
				ObligationID: created.ID.String(),
				RuleID:       req.RuleID.String(),
				Status:       string(created.Status),
				DueDate:      dueDateKey,
			},
			DedupeKey: events.EventObligationCreated + ":" + created.ID.String(),
		})
	})
	if err != nil {
		return domain.Obligation{}, err
	}

	s.audit(ctx, orgID, "obligation.mark_unpaid", created.ID, map[string]any{
		"rule_id":  req.RuleID.String(),
		"due_date": dueDateKey,
	})
	return created, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidOrganization
	}
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}

	obligations, err := s.repo.List(ctx, s.db, orgID, domain.ListFilter{
		Status:     req.Status,
		Origin:     req.Origin,
		RuleID:     req.RuleID,
		From:       req.From,
		To:         req.To,
		Unresolved: req.Unresolved,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}
	return domain.ListResponse{Obligations: obligations}, nil
}

func (s *Service) Settle(ctx context.Context, id snowflake.ID, req domain.SettleRequest) (domain.Obligation, error) {
	return s.transition(ctx, id, events.EventObligationSettled, "obligation.settle", func(o *domain.Obligation) error {
		return o.Settle(req, s.clock.Now())
	})
}

func (s *Service) WriteOff(ctx context.Context, id snowflake.ID, note string) (domain.Obligation, error) {
	return s.transition(ctx, id, events.EventObligationWrittenOff, "obligation.write_off", func(o *domain.Obligation) error {
		return o.WriteOff(note, s.clock.Now())
	})
}

func (s *Service) Unsettle(ctx context.Context, id snowflake.ID) (domain.Obligation, error) {
	return s.transition(ctx, id, events.EventObligationReopened, "obligation.unsettle", func(o *domain.Obligation) error {
		return o.Unsettle(s.clock.Now())
	})
}

func (s *Service) transition(
	ctx context.Context,
	id snowflake.ID,
	eventType string,
	auditAction string,
	apply func(*domain.Obligation) error,
) (domain.Obligation, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.Obligation{}, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.Obligation{}, domain.ErrInvalidObligationID
	}

	var updated domain.Obligation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		obligation, err := s.repo.FindByID(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if obligation == nil {
			return domain.ErrObligationNotFound
		}
		if err := apply(obligation); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, obligation); err != nil {
			return err
		}
		updated = *obligation

		ruleID := ""
		if obligation.RuleID != nil {
			ruleID = obligation.RuleID.String()
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID: orgID,
			Type:  eventType,
			Payload: events.ObligationPayload{
				ObligationID: obligation.ID.String(),
				RuleID:       ruleID,
				Status:       string(obligation.Status),
				DueDate:      obligation.DueDateKey,
			},
			DedupeKey: eventType + ":" + obligation.ID.String() + ":" + string(obligation.Status),
		})
	})
	if err != nil {
		return domain.Obligation{}, err
	}

	s.audit(ctx, orgID, auditAction, updated.ID, map[string]any{
		"status": string(updated.Status),
	})
	return updated, nil
}

func (s *Service) audit(ctx context.Context, orgID snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, "obligation", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

func parseDateKey(key string) (time.Time, error) {
	return time.Parse("2006-01-02", key)
}
