package context

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	orgIDKey
)

// WithRequestID tags the context with the inbound request identifier.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithOrgID tags the context with the authenticated organization so request
// logs carry the tenant. Actor identity lives in auditcontext, not here.
func WithOrgID(ctx context.Context, orgID snowflake.ID) context.Context {
	if ctx == nil || orgID == 0 {
		return ctx
	}
	return context.WithValue(ctx, orgIDKey, orgID)
}

func OrgIDFromContext(ctx context.Context) snowflake.ID {
	if ctx == nil {
		return 0
	}
	value, _ := ctx.Value(orgIDKey).(snowflake.ID)
	return value
}
