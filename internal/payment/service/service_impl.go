package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/paycalhq/paycal/internal/audit/domain"
	"github.com/paycalhq/paycal/internal/clock"
	"github.com/paycalhq/paycal/internal/config"
	"github.com/paycalhq/paycal/internal/events"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	"github.com/paycalhq/paycal/internal/payment/adapters"
	"github.com/paycalhq/paycal/internal/payment/domain"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config   config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Registry *adapters.Registry
	Outbox   *events.Outbox
	AuditSvc auditdomain.Service
}

type Service struct {
	cfg      config.Config
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	registry *adapters.Registry
	outbox   *events.Outbox
	auditSvc auditdomain.Service

	orgMu sync.Mutex
	orgID snowflake.ID
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:      p.Config,
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		registry: p.Registry,
		outbox:   p.Outbox,
		auditSvc: p.AuditSvc,
	}
}

// IngestWebhook verifies a provider delivery, records it exactly once and
// applies its billing effect. Re-deliveries of an already recorded event
// acknowledge without side effects.
func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, header http.Header) (*domain.IngestResult, error) {
	adapter, err := s.registry.Lookup(provider)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := adapter.Verify(payload, header, now); err != nil {
		return nil, err
	}

	event, err := adapter.Parse(payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			return &domain.IngestResult{Ignored: true}, nil
		}
		return nil, err
	}

	orgID, err := s.defaultOrg(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.IngestResult{EventID: event.ProviderEventID}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := &domain.EventRecord{
			ID:              s.genID.Generate(),
			OrgID:           orgID,
			Provider:        provider,
			ProviderEventID: event.ProviderEventID,
			EventType:       string(event.Type),
			Payload:         datatypes.JSON(payload),
			ReceivedAt:      now,
		}
		inserted, err := s.repo.InsertEvent(ctx, tx, rec)
		if err != nil {
			return err
		}
		if !inserted {
			result.Duplicate = true
			return nil
		}

		switch event.Type {
		case domain.EventPaymentSucceeded:
			err = s.applySucceeded(ctx, tx, orgID, provider, event, now)
		case domain.EventPaymentFailed:
			err = s.applyFailed(ctx, tx, orgID, provider, event, now)
		}
		if err != nil {
			return err
		}
		return s.repo.MarkEventProcessed(ctx, tx, rec.ID, now)
	})
	if err != nil {
		return nil, err
	}

	if !result.Duplicate {
		s.audit(ctx, orgID, "payment.webhook_ingested", event.ProviderEventID, map[string]any{
			"provider":   provider,
			"event_type": string(event.Type),
			"invoice_id": event.ProviderInvoiceID,
		})
	}
	return result, nil
}

// applySucceeded records a paid payment. When an earlier failure opened a
// stripe-origin obligation for the same invoice, the success settles it.
func (s *Service) applySucceeded(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, provider string, event *domain.WebhookEvent, now time.Time) error {
	payment, err := s.repo.FindByProviderInvoice(ctx, tx, orgID, provider, event.ProviderInvoiceID)
	if err != nil {
		return err
	}

	if payment == nil {
		payment = &domain.Payment{
			ID:                s.genID.Generate(),
			OrgID:             orgID,
			Provider:          provider,
			ProviderInvoiceID: event.ProviderInvoiceID,
			ClientName:        event.ClientName,
			Amount:            event.Amount,
			Currency:          event.Currency,
			Status:            domain.StatusPaid,
			OccurredAt:        event.OccurredAt,
			DateKey:           scheduledomain.DateKey(event.OccurredAt),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if event.InvoiceURL != "" {
			payment.InvoiceURL = event.InvoiceURL
		}
		if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
			return err
		}
	} else {
		payment.Status = domain.StatusPaid
		payment.Amount = event.Amount
		payment.UpdatedAt = now
		if event.InvoiceURL != "" {
			payment.InvoiceURL = event.InvoiceURL
		}
		if err := s.repo.UpdatePayment(ctx, tx, payment); err != nil {
			return err
		}
	}

	if err := s.settleLinkedObligation(ctx, tx, orgID, payment, event, now); err != nil {
		return err
	}

	return s.outbox.PublishTx(ctx, tx, events.Event{
		OrgID: orgID,
		Type:  events.EventPaymentRecorded,
		Payload: events.PaymentPayload{
			PaymentID: payment.ID.String(),
			Provider:  provider,
			InvoiceID: event.ProviderInvoiceID,
			Status:    string(domain.StatusPaid),
			Date:      payment.DateKey,
		},
		DedupeKey: events.EventPaymentRecorded + ":" + event.ProviderEventID,
	})
}

// applyFailed records the failed payment and opens a stripe-origin
// obligation in retrying state so the calendar surfaces it immediately.
func (s *Service) applyFailed(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, provider string, event *domain.WebhookEvent, now time.Time) error {
	payment, err := s.repo.FindByProviderInvoice(ctx, tx, orgID, provider, event.ProviderInvoiceID)
	if err != nil {
		return err
	}

	if payment == nil {
		payment = &domain.Payment{
			ID:                s.genID.Generate(),
			OrgID:             orgID,
			Provider:          provider,
			ProviderInvoiceID: event.ProviderInvoiceID,
			ClientName:        event.ClientName,
			Amount:            event.Amount,
			Currency:          event.Currency,
			Status:            domain.StatusFailed,
			OccurredAt:        event.OccurredAt,
			DateKey:           scheduledomain.DateKey(event.OccurredAt),
			InvoiceURL:        event.InvoiceURL,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
			return err
		}
	} else {
		payment.Status = domain.StatusFailed
		payment.UpdatedAt = now
		if err := s.repo.UpdatePayment(ctx, tx, payment); err != nil {
			return err
		}
	}

	var existing obligationdomain.Obligation
	err = tx.WithContext(ctx).
		Where("org_id = ? AND payment_id = ? AND status IN ?", orgID, payment.ID, []obligationdomain.Status{
			obligationdomain.StatusPending,
			obligationdomain.StatusGrace,
			obligationdomain.StatusRetrying,
			obligationdomain.StatusDelinquent,
			obligationdomain.StatusFailed,
		}).
		First(&existing).Error
	switch {
	case err == nil:
		existing.AttemptCount++
		nextRetry := now.Add(s.cfg.Dunning.RetryInterval)
		existing.NextRetryAt = &nextRetry
		existing.UpdatedAt = now
		if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
			return err
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	paymentID := payment.ID
	nextRetry := now.Add(s.cfg.Dunning.RetryInterval)
	obligation := obligationdomain.Obligation{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		PaymentID:    &paymentID,
		Origin:       obligationdomain.OriginStripe,
		ClientName:   event.ClientName,
		Amount:       event.Amount,
		Currency:     event.Currency,
		DueDate:      scheduledomain.DateOnly(event.OccurredAt),
		DueDateKey:   scheduledomain.DateKey(event.OccurredAt),
		Status:       obligationdomain.StatusRetrying,
		NextRetryAt:  &nextRetry,
		AttemptCount: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&obligation).Error; err != nil {
		return err
	}

	return s.outbox.PublishTx(ctx, tx, events.Event{
		OrgID: orgID,
		Type:  events.EventObligationCreated,
		Payload: events.ObligationPayload{
			ObligationID: obligation.ID.String(),
			Status:       string(obligation.Status),
			DueDate:      obligation.DueDateKey,
		},
		DedupeKey: events.EventObligationCreated + ":" + obligation.ID.String(),
	})
}

// settleLinkedObligation closes the stripe-origin obligation tied to any
// payment for the same invoice once the retry finally clears.
func (s *Service) settleLinkedObligation(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, payment *domain.Payment, event *domain.WebhookEvent, now time.Time) error {
	var obligation obligationdomain.Obligation
	err := tx.WithContext(ctx).
		Joins("JOIN payments ON payments.id = obligations.payment_id").
		Where("obligations.org_id = ? AND payments.provider = ? AND payments.provider_invoice_id = ? AND obligations.status IN ?",
			orgID, payment.Provider, payment.ProviderInvoiceID, []obligationdomain.Status{
				obligationdomain.StatusPending,
				obligationdomain.StatusGrace,
				obligationdomain.StatusRetrying,
				obligationdomain.StatusDelinquent,
				obligationdomain.StatusFailed,
			}).
		First(&obligation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := obligation.Settle(obligationdomain.SettleRequest{
		AmountPaid: event.Amount,
		Method:     payment.Provider,
		Reference:  event.ProviderInvoiceID,
	}, now); err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Save(&obligation).Error; err != nil {
		return err
	}

	return s.outbox.PublishTx(ctx, tx, events.Event{
		OrgID: orgID,
		Type:  events.EventObligationSettled,
		Payload: events.ObligationPayload{
			ObligationID: obligation.ID.String(),
			Status:       string(obligation.Status),
			DueDate:      obligation.DueDateKey,
		},
		DedupeKey: events.EventObligationSettled + ":" + obligation.ID.String() + ":" + event.ProviderEventID,
	})
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Payment, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrPayloadInvalid
	}
	return s.repo.List(ctx, s.db, req.OrgID, req.From, req.To)
}

// defaultOrg resolves the organization webhook deliveries belong to.
// Webhooks carry no API key, so the default organization owns them.
func (s *Service) defaultOrg(ctx context.Context) (snowflake.ID, error) {
	s.orgMu.Lock()
	defer s.orgMu.Unlock()
	if s.orgID != 0 {
		return s.orgID, nil
	}

	var row struct{ ID snowflake.ID }
	err := s.db.WithContext(ctx).
		Raw(`SELECT id FROM organizations WHERE is_default = ? ORDER BY id LIMIT 1`, true).
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	if row.ID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	s.orgID = row.ID
	return s.orgID, nil
}

func (s *Service) audit(ctx context.Context, orgID snowflake.ID, action, targetID string, metadata map[string]any) {
	system := "webhook"
	if err := s.auditSvc.AuditLog(ctx, &orgID, string(auditdomain.ActorTypeSystem), &system, action, "payment_event", &targetID, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
