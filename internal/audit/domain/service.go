package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service writes audit records. Actor and request metadata are taken from the
// context when not supplied explicitly.
type Service interface {
	AuditLog(
		ctx context.Context,
		orgID *snowflake.ID,
		actorType string,
		actorID *string,
		action string,
		targetType string,
		targetID *string,
		metadata map[string]any,
	) error
}
