package server

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	apikeydomain "github.com/paycalhq/paycal/internal/apikey/domain"
	"github.com/paycalhq/paycal/internal/auditcontext"
	obscontext "github.com/paycalhq/paycal/internal/observability/context"
	"github.com/paycalhq/paycal/internal/orgcontext"
)

// APIKeyRequired authenticates requests with a bearer API key. Organization
// identity comes from the api_keys table only; callers cannot pick an org
// via headers or query parameters.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestHasOrgID(c) {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hash := apikeydomain.HashAPIKey(parts[1])
		now := time.Now().UTC()

		var record struct {
			ID      snowflake.ID `gorm:"column:id"`
			OrgID   snowflake.ID `gorm:"column:org_id"`
			KeyHash string       `gorm:"column:key_hash"`
		}
		if err := s.db.WithContext(c.Request.Context()).Raw(
			`SELECT id, org_id, key_hash
			 FROM api_keys
			 WHERE key_hash = ?
			   AND is_active = ?
			   AND (expires_at IS NULL OR expires_at > ?)
			 LIMIT 1`,
			hash,
			true,
			now,
		).Scan(&record).Error; err != nil {
			AbortWithError(c, err)
			return
		}

		if record.ID == 0 || subtle.ConstantTimeCompare([]byte(record.KeyHash), []byte(hash)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if !s.limiter.Allow(strconv.FormatInt(int64(record.ID), 10)) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), int64(record.OrgID))
		ctx = obscontext.WithOrgID(ctx, record.OrgID)
		ctx = auditcontext.WithActor(ctx, "api_key", record.ID.String())
		ctx = auditcontext.WithRequestMeta(ctx, c.ClientIP(), c.Request.UserAgent())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestHasOrgID(c *gin.Context) bool {
	if strings.TrimSpace(c.GetHeader("X-Org-Id")) != "" {
		return true
	}
	if value, ok := c.GetQuery("org_id"); ok && strings.TrimSpace(value) != "" {
		return true
	}
	return false
}
