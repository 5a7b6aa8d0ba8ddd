package types

import (
	"time"

	"github.com/google/uuid"
)

type AuditEntry struct {
	ID        uuid.UUID `gorm:"primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"index" json:"session_id"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	Message   string    `json:"message"`
}
