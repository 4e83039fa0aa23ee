package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog stores ERROR+ log records so failed background work stays queryable.
type SystemLog struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp     time.Time      `gorm:"not null;index" json:"timestamp"`
	Level         string         `gorm:"size:10;not null;index" json:"level"`
	Message       string         `gorm:"type:text" json:"message"`
	CorrelationID string         `gorm:"size:64;index" json:"correlation_id"`
	UserID        *string        `gorm:"size:36;index" json:"user_id"`
	Action        string         `gorm:"size:100" json:"action"`
	Error         string         `gorm:"type:text" json:"error"`
	Extra         datatypes.JSON `json:"extra"`
	CreatedAt     time.Time      `json:"created_at"`
}
