package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/internal/events"
	obligationdomain "github.com/paycalhq/paycal/internal/obligation/domain"
	"github.com/paycalhq/paycal/internal/orgcontext"
	"github.com/paycalhq/paycal/internal/schedule/domain"
	"github.com/paycalhq/paycal/internal/schedule/repository"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type auditStub struct{}

func (auditStub) AuditLog(context.Context, *snowflake.ID, string, *string, string, string, *string, map[string]any) error {
	return nil
}

func newTestService(t *testing.T) (domain.Service, context.Context, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.PaymentRule{}, &obligationdomain.Obligation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS billing_events (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT,
		dedupe_key TEXT,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP,
		UNIQUE (org_id, dedupe_key)
	)`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("ddl: %v", err)
	}

	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	orgID := node.Generate()

	svc := NewService(Params{
		DB:       db,
		Log:      zaptest.NewLogger(t),
		GenID:    node,
		Repo:     repository.Provide(),
		Outbox:   events.NewOutbox(db, node),
		AuditSvc: auditStub{},
	})
	ctx := orgcontext.WithOrgID(context.Background(), int64(orgID))
	return svc, ctx, db
}

func createRule(t *testing.T, svc domain.Service, ctx context.Context) domain.PaymentRule {
	t.Helper()
	rule, err := svc.Create(ctx, domain.CreateRuleRequest{
		ClientName: "Acme Web",
		Amount:     25000,
		Currency:   "usd",
		Frequency:  domain.FrequencyMonthly,
		StartDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	return rule
}

func TestCreateNormalizesAndPersists(t *testing.T) {
	svc, ctx, db := newTestService(t)

	rule := createRule(t, svc, ctx)
	if rule.Currency != "USD" {
		t.Fatalf("expected uppercased currency, got %q", rule.Currency)
	}
	if !rule.IsActive {
		t.Fatal("expected new rule active")
	}

	var count int64
	if err := db.Model(&domain.PaymentRule{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one rule, got %d", count)
	}

	var eventCount int64
	if err := db.Table("billing_events").Where("event_type = ?", "payment_rule.created").Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected creation event, got %d", eventCount)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, ctx, _ := newTestService(t)

	cases := []struct {
		name string
		req  domain.CreateRuleRequest
		want error
	}{
		{"empty client", domain.CreateRuleRequest{Amount: 100, Currency: "USD", Frequency: domain.FrequencyMonthly, StartDate: time.Now()}, domain.ErrInvalidClientName},
		{"zero amount", domain.CreateRuleRequest{ClientName: "A", Currency: "USD", Frequency: domain.FrequencyMonthly, StartDate: time.Now()}, domain.ErrInvalidAmount},
		{"negative amount", domain.CreateRuleRequest{ClientName: "A", Amount: -5, Currency: "USD", Frequency: domain.FrequencyMonthly, StartDate: time.Now()}, domain.ErrInvalidAmount},
		{"bad currency", domain.CreateRuleRequest{ClientName: "A", Amount: 100, Currency: "US", Frequency: domain.FrequencyMonthly, StartDate: time.Now()}, domain.ErrInvalidCurrency},
		{"bad frequency", domain.CreateRuleRequest{ClientName: "A", Amount: 100, Currency: "USD", Frequency: "daily", StartDate: time.Now()}, domain.ErrInvalidFrequency},
		{"zero start", domain.CreateRuleRequest{ClientName: "A", Amount: 100, Currency: "USD", Frequency: domain.FrequencyMonthly}, domain.ErrInvalidStartDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestStopFreezesRule(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	rule := createRule(t, svc, ctx)

	stopped, err := svc.Stop(ctx, rule.ID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.IsActive || stopped.StoppedAt == nil {
		t.Fatalf("expected stopped rule, got %+v", stopped)
	}

	if _, err := svc.Stop(ctx, rule.ID); !errors.Is(err, domain.ErrRuleAlreadyStopped) {
		t.Fatalf("expected rule_already_stopped, got %v", err)
	}
}

func TestExcludeDateIsIdempotent(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	rule := createRule(t, svc, ctx)

	first, err := svc.ExcludeDate(ctx, rule.ID, "2024-03-15")
	if err != nil {
		t.Fatalf("exclude: %v", err)
	}
	second, err := svc.ExcludeDate(ctx, rule.ID, "2024-03-15T00:00:00Z")
	if err != nil {
		t.Fatalf("exclude again: %v", err)
	}
	if len(first.ExcludedDates) != 1 || len(second.ExcludedDates) != 1 {
		t.Fatalf("expected one exclusion, got %v then %v", first.ExcludedDates, second.ExcludedDates)
	}

	if _, err := svc.ExcludeDate(ctx, rule.ID, "not a date"); !errors.Is(err, domain.ErrInvalidExcludedDate) {
		t.Fatalf("expected invalid_excluded_date, got %v", err)
	}
}

func TestDeleteCascadesObligations(t *testing.T) {
	svc, ctx, db := newTestService(t)
	rule := createRule(t, svc, ctx)

	ruleID := rule.ID
	obligation := obligationdomain.Obligation{
		ID:         snowflake.ID(77),
		OrgID:      orgcontext.OrgID(ctx),
		RuleID:     &ruleID,
		Origin:     obligationdomain.OriginCustom,
		ClientName: rule.ClientName,
		Amount:     rule.Amount,
		Currency:   rule.Currency,
		DueDate:    time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		DueDateKey: "2024-02-15",
		Status:     obligationdomain.StatusPending,
	}
	if err := db.Create(&obligation).Error; err != nil {
		t.Fatalf("seed obligation: %v", err)
	}

	if err := svc.Delete(ctx, rule.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var rules, obligations int64
	db.Model(&domain.PaymentRule{}).Count(&rules)
	db.Model(&obligationdomain.Obligation{}).Count(&obligations)
	if rules != 0 || obligations != 0 {
		t.Fatalf("expected cascade delete, rules=%d obligations=%d", rules, obligations)
	}
}

func TestListPaginates(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	for i := 0; i < 5; i++ {
		createRule(t, svc, ctx)
	}

	first, err := svc.List(ctx, domain.ListRuleRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Rules) != 2 || first.NextPageToken == "" {
		t.Fatalf("expected first page of 2 with token, got %d %q", len(first.Rules), first.NextPageToken)
	}

	second, err := svc.List(ctx, domain.ListRuleRequest{PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Rules) != 2 {
		t.Fatalf("expected second page of 2, got %d", len(second.Rules))
	}
	if second.Rules[0].ID == first.Rules[0].ID {
		t.Fatal("expected distinct pages")
	}
}

func TestScopedByOrganization(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	rule := createRule(t, svc, ctx)

	otherCtx := orgcontext.WithOrgID(context.Background(), 424242)
	if _, err := svc.GetByID(otherCtx, rule.ID); !errors.Is(err, domain.ErrRuleNotFound) {
		t.Fatalf("expected rule_not_found across orgs, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), rule.ID); !errors.Is(err, domain.ErrInvalidOrganization) {
		t.Fatalf("expected invalid_organization, got %v", err)
	}
}
