package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ClientName string
	ActiveOnly bool
	AfterID    int64
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *PaymentRule) error
	Update(ctx context.Context, db *gorm.DB, rule *PaymentRule) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*PaymentRule, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]PaymentRule, error)
	ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]PaymentRule, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
