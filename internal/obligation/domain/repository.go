package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status     Status
	Origin     Origin
	RuleID     snowflake.ID
	From       *time.Time
	To         *time.Time
	Unresolved bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, obligation *Obligation) error
	Update(ctx context.Context, db *gorm.DB, obligation *Obligation) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Obligation, error)
	// FindUnresolvedForOccurrence looks up the open obligation for a
	// (rule, due date) pair, enforcing the one-open-obligation invariant.
	FindUnresolvedForOccurrence(ctx context.Context, db *gorm.DB, orgID, ruleID snowflake.ID, dueDateKey string) (*Obligation, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]Obligation, error)
	// ListForCalendar returns obligations that are either unresolved or
	// resolved with a due date inside the window; the reconciler needs both.
	ListForCalendar(ctx context.Context, db *gorm.DB, orgID snowflake.ID, from, to time.Time) ([]Obligation, error)
}
