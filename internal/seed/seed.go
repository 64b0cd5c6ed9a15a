package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/paycalhq/paycal/internal/apikey/domain"
	"gorm.io/gorm"
)

const defaultOrgName = "Default Organization"

// devAPIKey is the well-known key seeded outside production so local
// clients can talk to the API immediately.
const devAPIKey = "pc_dev_local_key"

// EnsureDefaultOrg creates the default organization if none exists.
// Webhook deliveries and single-tenant installs attach to it.
func EnsureDefaultOrg(db *gorm.DB, genID *snowflake.Node) error {
	var count int64
	if err := db.Table("organizations").Where("is_default = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	return db.Exec(
		`INSERT INTO organizations (id, name, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		genID.Generate(), defaultOrgName, true, now, now,
	).Error
}

// EnsureDevAPIKey seeds a development API key for the default org. Never
// called in production.
func EnsureDevAPIKey(db *gorm.DB, genID *snowflake.Node) error {
	var org struct{ ID snowflake.ID }
	err := db.Raw(`SELECT id FROM organizations WHERE is_default = ? ORDER BY id LIMIT 1`, true).
		Scan(&org).Error
	if err != nil {
		return err
	}
	if org.ID == 0 {
		return gorm.ErrRecordNotFound
	}

	hash := apikeydomain.HashAPIKey(devAPIKey)
	var count int64
	if err := db.Table("api_keys").Where("key_hash = ?", hash).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	key := apikeydomain.APIKey{
		ID:        genID.Generate(),
		OrgID:     org.ID,
		Name:      "development",
		KeyHash:   hash,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.Create(&key).Error
}
