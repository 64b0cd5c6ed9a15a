package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidWindow       = errors.New("invalid_window")
)

// ViewRequest bounds a calendar query. Empty From/To fall back to the
// default projection window around today.
type ViewRequest struct {
	From string
	To   string
}

// Service assembles the reconciled payment calendar.
type Service interface {
	View(ctx context.Context, req ViewRequest) (View, error)
}
