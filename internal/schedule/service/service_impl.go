package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/paycalhq/paycal/internal/audit/domain"
	"github.com/paycalhq/paycal/internal/events"
	"github.com/paycalhq/paycal/internal/orgcontext"
	"github.com/paycalhq/paycal/internal/schedule/domain"
	"github.com/paycalhq/paycal/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Outbox   *events.Outbox
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	outbox   *events.Outbox
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("schedule.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		outbox:   p.Outbox,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRuleRequest) (domain.PaymentRule, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.PaymentRule{}, domain.ErrInvalidOrganization
	}

	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return domain.PaymentRule{}, domain.ErrInvalidClientName
	}
	if req.Amount <= 0 {
		return domain.PaymentRule{}, domain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return domain.PaymentRule{}, domain.ErrInvalidCurrency
	}
	if !req.Frequency.Valid() {
		return domain.PaymentRule{}, domain.ErrInvalidFrequency
	}
	if req.StartDate.IsZero() {
		return domain.PaymentRule{}, domain.ErrInvalidStartDate
	}

	now := time.Now().UTC()
	rule := domain.PaymentRule{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		ClientName:    clientName,
		Amount:        req.Amount,
		Currency:      currency,
		Frequency:     req.Frequency,
		StartDate:     domain.DateOnly(req.StartDate),
		IsActive:      true,
		ExcludedDates: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &rule); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID:     orgID,
			Type:      events.EventRuleCreated,
			Payload:   events.RulePayload{RuleID: rule.ID.String(), ClientName: clientName},
			DedupeKey: events.EventRuleCreated + ":" + rule.ID.String(),
		})
	})
	if err != nil {
		return domain.PaymentRule{}, err
	}

	targetID := rule.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "payment_rule.create", "payment_rule", &targetID, map[string]any{
		"client_name": clientName,
		"amount":      rule.Amount,
		"currency":    rule.Currency,
		"frequency":   string(rule.Frequency),
	})

	return rule, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRuleRequest) (domain.ListRuleResponse, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.ListRuleResponse{}, domain.ErrInvalidOrganization
	}

	afterID, ok := pagination.DecodeCursor(req.PageToken)
	if !ok {
		return domain.ListRuleResponse{}, domain.ErrInvalidRuleID
	}
	limit := pagination.Limit(req.PageSize)

	rules, err := s.repo.List(ctx, s.db, orgID, domain.ListFilter{
		ClientName: strings.TrimSpace(req.ClientName),
		ActiveOnly: req.ActiveOnly,
		AfterID:    afterID,
		Limit:      limit + 1,
	})
	if err != nil {
		return domain.ListRuleResponse{}, err
	}

	resp := domain.ListRuleResponse{Rules: rules}
	if len(rules) > limit {
		resp.Rules = rules[:limit]
		resp.NextPageToken = pagination.EncodeCursor(int64(rules[limit-1].ID))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.PaymentRule, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.PaymentRule{}, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.PaymentRule{}, domain.ErrInvalidRuleID
	}

	rule, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.PaymentRule{}, err
	}
	if rule == nil {
		return domain.PaymentRule{}, domain.ErrRuleNotFound
	}
	return *rule, nil
}

func (s *Service) Stop(ctx context.Context, id snowflake.ID) (domain.PaymentRule, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.PaymentRule{}, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.PaymentRule{}, domain.ErrInvalidRuleID
	}

	var stopped domain.PaymentRule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rule, err := s.repo.FindByID(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if rule == nil {
			return domain.ErrRuleNotFound
		}
		if !rule.IsActive {
			return domain.ErrRuleAlreadyStopped
		}

		now := time.Now().UTC()
		rule.IsActive = false
		rule.StoppedAt = &now
		rule.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, rule); err != nil {
			return err
		}
		stopped = *rule

		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID:     orgID,
			Type:      events.EventRuleStopped,
			Payload:   events.RulePayload{RuleID: rule.ID.String()},
			DedupeKey: events.EventRuleStopped + ":" + rule.ID.String(),
		})
	})
	if err != nil {
		return domain.PaymentRule{}, err
	}

	targetID := stopped.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "payment_rule.stop", "payment_rule", &targetID, nil)

	return stopped, nil
}

func (s *Service) ExcludeDate(ctx context.Context, id snowflake.ID, date string) (domain.PaymentRule, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.PaymentRule{}, domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.PaymentRule{}, domain.ErrInvalidRuleID
	}
	key, ok := domain.NormalizeDateKey(date)
	if !ok {
		return domain.PaymentRule{}, domain.ErrInvalidExcludedDate
	}

	var updated domain.PaymentRule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rule, err := s.repo.FindByID(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if rule == nil {
			return domain.ErrRuleNotFound
		}

		if _, exists := rule.ExcludedKeys()[key]; !exists {
			rule.ExcludedDates = append(rule.ExcludedDates, key)
			rule.UpdatedAt = time.Now().UTC()
			if err := s.repo.Update(ctx, tx, rule); err != nil {
				return err
			}
		}
		updated = *rule

		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID:     orgID,
			Type:      events.EventRuleDateExcluded,
			Payload:   events.RulePayload{RuleID: rule.ID.String(), Date: key},
			DedupeKey: events.EventRuleDateExcluded + ":" + rule.ID.String() + ":" + key,
		})
	})
	if err != nil {
		return domain.PaymentRule{}, err
	}

	targetID := updated.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "payment_rule.exclude_date", "payment_rule", &targetID, map[string]any{
		"date": key,
	})

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if id == 0 {
		return domain.ErrInvalidRuleID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rule, err := s.repo.FindByID(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if rule == nil {
			return domain.ErrRuleNotFound
		}

		// Deleting a rule removes its derived obligations as well.
		if err := tx.WithContext(ctx).Exec(
			`DELETE FROM obligations WHERE org_id = ? AND rule_id = ?`,
			orgID,
			id,
		).Error; err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, orgID, id); err != nil {
			return err
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID:     orgID,
			Type:      events.EventRuleDeleted,
			Payload:   events.RulePayload{RuleID: id.String()},
			DedupeKey: events.EventRuleDeleted + ":" + id.String(),
		})
	})
	if err != nil {
		return err
	}

	targetID := id.String()
	_ = s.auditSvc.AuditLog(ctx, &orgID, "", nil, "payment_rule.delete", "payment_rule", &targetID, nil)

	return nil
}
