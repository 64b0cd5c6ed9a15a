package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/internal/cache"
	"github.com/paycalhq/paycal/internal/calendar/domain"
	"github.com/paycalhq/paycal/internal/clock"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	"github.com/paycalhq/paycal/internal/orgcontext"
	paymentdomain "github.com/paycalhq/paycal/internal/payment/domain"
	scheduledomain "github.com/paycalhq/paycal/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ruleCacheTTL bounds staleness of the cached rule set. Rule mutations land
// on the calendar within this interval at worst.
const ruleCacheTTL = 15 * time.Second

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Rules       scheduledomain.Repository
	Payments    paymentdomain.Repository
	Obligations obligationdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	rules       scheduledomain.Repository
	payments    paymentdomain.Repository
	obligations obligationdomain.Repository
	ruleCache   *cache.TTLCache[snowflake.ID, []scheduledomain.PaymentRule]
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("calendar.service"),
		clock:       p.Clock,
		rules:       p.Rules,
		payments:    p.Payments,
		obligations: p.Obligations,
		ruleCache:   cache.NewTTLCache[snowflake.ID, []scheduledomain.PaymentRule](),
	}
}

// View projects every rule over the requested window, merges the result with
// payment history and the obligation ledger, and classifies each entry.
func (s *Service) View(ctx context.Context, req domain.ViewRequest) (domain.View, error) {
	orgID := orgcontext.OrgID(ctx)
	if orgID == 0 {
		return domain.View{}, domain.ErrInvalidOrganization
	}

	now := s.clock.Now()
	window, err := resolveWindow(req, now)
	if err != nil {
		return domain.View{}, err
	}

	rules, err := s.loadRules(ctx, orgID)
	if err != nil {
		return domain.View{}, err
	}

	today := scheduledomain.DateOnly(now)
	var occurrences []scheduledomain.Occurrence
	for _, rule := range rules {
		occurrences = append(occurrences, scheduledomain.Project(rule, window, today)...)
	}

	payments, err := s.payments.List(ctx, s.db, orgID, window.Start, window.End)
	if err != nil {
		return domain.View{}, err
	}

	obligations, err := s.obligations.ListForCalendar(ctx, s.db, orgID, window.Start, window.End)
	if err != nil {
		return domain.View{}, err
	}

	return domain.Reconcile(domain.Input{
		From:        window.Start,
		To:          window.End,
		Today:       today,
		Occurrences: occurrences,
		Payments:    payments,
		Obligations: obligations,
	}), nil
}

func (s *Service) loadRules(ctx context.Context, orgID snowflake.ID) ([]scheduledomain.PaymentRule, error) {
	if rules, ok := s.ruleCache.Get(orgID); ok {
		return rules, nil
	}
	rules, err := s.rules.ListAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	s.ruleCache.Set(orgID, rules, ruleCacheTTL)
	return rules, nil
}

func resolveWindow(req domain.ViewRequest, now time.Time) (scheduledomain.Window, error) {
	if req.From == "" && req.To == "" {
		return scheduledomain.DefaultWindow(now), nil
	}

	window := scheduledomain.DefaultWindow(now)
	if req.From != "" {
		key, ok := scheduledomain.NormalizeDateKey(req.From)
		if !ok {
			return scheduledomain.Window{}, domain.ErrInvalidWindow
		}
		start, err := time.Parse("2006-01-02", key)
		if err != nil {
			return scheduledomain.Window{}, domain.ErrInvalidWindow
		}
		window.Start = start
	}
	if req.To != "" {
		key, ok := scheduledomain.NormalizeDateKey(req.To)
		if !ok {
			return scheduledomain.Window{}, domain.ErrInvalidWindow
		}
		end, err := time.Parse("2006-01-02", key)
		if err != nil {
			return scheduledomain.Window{}, domain.ErrInvalidWindow
		}
		window.End = end
	}
	if window.End.Before(window.Start) {
		return scheduledomain.Window{}, domain.ErrInvalidWindow
	}
	return window, nil
}
