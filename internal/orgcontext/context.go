package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const orgIDKey contextKey = "org_id"

// WithOrgID stores the authenticated organization on the context.
func WithOrgID(ctx context.Context, orgID int64) context.Context {
	if orgID == 0 {
		return ctx
	}
	return context.WithValue(ctx, orgIDKey, orgID)
}

// OrgID returns the authenticated organization, or 0 when absent.
func OrgID(ctx context.Context) snowflake.ID {
	if ctx == nil {
		return 0
	}
	value, _ := ctx.Value(orgIDKey).(int64)
	return snowflake.ID(value)
}
