package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey authenticates API requests for one organization. Only the SHA-256
// hash of the key material is stored.
type APIKey struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index" json:"org_id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	KeyHash    string       `gorm:"type:text;not null;uniqueIndex" json:"-"`
	IsActive   bool         `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt  *time.Time   `gorm:"column:expires_at" json:"expires_at,omitempty"`
	LastUsedAt *time.Time   `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }
