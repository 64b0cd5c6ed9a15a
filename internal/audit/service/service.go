package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paycalhq/paycal/internal/audit/domain"
	"github.com/paycalhq/paycal/internal/auditcontext"
	"github.com/paycalhq/paycal/internal/observability/logger"
	"github.com/paycalhq/paycal/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// AuditLog records an immutable audit entry. Failures are logged, never
// propagated into the caller's request path.
func (s *Service) AuditLog(
	ctx context.Context,
	orgID *snowflake.ID,
	actorType string,
	actorID *string,
	action string,
	targetType string,
	targetID *string,
	metadata map[string]any,
) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil
	}

	if orgID == nil {
		if ctxOrg := orgcontext.OrgID(ctx); ctxOrg != 0 {
			orgID = &ctxOrg
		}
	}
	if actorType == "" {
		ctxActorType, ctxActorID := auditcontext.ActorFromContext(ctx)
		actorType = ctxActorType
		if actorID == nil && ctxActorID != "" {
			actorID = &ctxActorID
		}
	}
	if actorType == "" {
		actorType = string(domain.ActorTypeSystem)
	}

	entry := &domain.AuditLog{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   datatypes.JSONMap(logger.MaskJSON(metadata)),
		CreatedAt:  time.Now().UTC(),
	}

	ipAddress, userAgent := auditcontext.RequestMetaFromContext(ctx)
	if ipAddress != "" {
		entry.IPAddress = &ipAddress
	}
	if userAgent != "" {
		entry.UserAgent = &userAgent
	}
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}
