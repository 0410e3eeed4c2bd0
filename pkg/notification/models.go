package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Type string

const (
	TypeRecordUploaded Type = "RECORD_UPLOADED"
	TypeRecordShared   Type = "RECORD_SHARED"
	TypeConsentGranted Type = "CONSENT_GRANTED"
	TypeClaimStatus    Type = "CLAIM_STATUS"
	TypeTestResult     Type = "TEST_RESULT"
	TypeOther          Type = "OTHER"
)

// Notification is one inbox row for a user. Rows are written by the event
// consumer and only ever mutated by the read-state endpoints.
type Notification struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id"`
	UserID      string            `json:"user_id" gorm:"column:user_id;index:idx_notifications_user_read"`
	Type        Type              `json:"type" gorm:"column:type;index"`
	Title       string            `json:"title" gorm:"column:title"`
	Message     string            `json:"message" gorm:"column:message"`
	Data        datatypes.JSONMap `json:"data" gorm:"column:data"`
	IsRead      bool              `json:"is_read" gorm:"column:is_read;index:idx_notifications_user_read"`
	ReadAt      *time.Time        `json:"read_at,omitempty" gorm:"column:read_at"`
	IsImportant bool              `json:"is_important" gorm:"column:is_important"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
