package auditcontext

import "context"

type contextKey string

const (
	actorTypeKey contextKey = "audit_actor_type"
	actorIDKey   contextKey = "audit_actor_id"
	ipAddressKey contextKey = "audit_ip_address"
	userAgentKey contextKey = "audit_user_agent"
)

func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	if actorType != "" {
		ctx = context.WithValue(ctx, actorTypeKey, actorType)
	}
	if actorID != "" {
		ctx = context.WithValue(ctx, actorIDKey, actorID)
	}
	return ctx
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	actorType, _ := ctx.Value(actorTypeKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return actorType, actorID
}

func WithRequestMeta(ctx context.Context, ipAddress, userAgent string) context.Context {
	if ipAddress != "" {
		ctx = context.WithValue(ctx, ipAddressKey, ipAddress)
	}
	if userAgent != "" {
		ctx = context.WithValue(ctx, userAgentKey, userAgent)
	}
	return ctx
}

func RequestMetaFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	ipAddress, _ := ctx.Value(ipAddressKey).(string)
	userAgent, _ := ctx.Value(userAgentKey).(string)
	return ipAddress, userAgent
}
