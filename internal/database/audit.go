package database

import (
	"context"

	"gorm.io/gorm"

	"adminctl/internal/types"
)

type AuditRepository interface {
	Save(ctx context.Context, entry *types.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]*types.AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Save only ever inserts, entries are never updated.
func (a auditRepository) Save(ctx context.Context, entry *types.AuditEntry) error {
	return a.db.WithContext(ctx).Create(entry).Error
}

// Recent returns the newest entries first.
func (a auditRepository) Recent(ctx context.Context, limit int) ([]*types.AuditEntry, error) {
	result := make([]*types.AuditEntry, 0)
	err := a.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&result).Error
	return result, err
}
