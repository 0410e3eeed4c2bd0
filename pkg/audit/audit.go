package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/reformhealth/platform/pkg/common/logger"
)

type ActionType string

const (
	ActionLogin          ActionType = "LOGIN"
	ActionLogout         ActionType = "LOGOUT"
	ActionRecordView     ActionType = "RECORD_VIEW"
	ActionRecordUpload   ActionType = "RECORD_UPLOAD"
	ActionRecordDelete   ActionType = "RECORD_DELETE"
	ActionDocumentShare  ActionType = "DOCUMENT_SHARE"
	ActionConsentGranted ActionType = "CONSENT_GRANTED"
	ActionConsentRevoked ActionType = "CONSENT_REVOKED"
	ActionAadhaarAuth    ActionType = "AADHAAR_AUTH"
	ActionPasswordChange ActionType = "PASSWORD_CHANGE"
	ActionProfileUpdate  ActionType = "PROFILE_UPDATE"
	ActionOther          ActionType = "OTHER"
)

// Log is one append-only audit row. Rows are never updated or deleted.
type Log struct {
	ID          string            `json:"id" gorm:"primaryKey;column:id"`
	UserID      string            `json:"user_id" gorm:"column:user_id;index"`
	Action      ActionType        `json:"action" gorm:"column:action;index"`
	EntityType  string            `json:"entity_type" gorm:"column:entity_type"`
	EntityID    string            `json:"entity_id" gorm:"column:entity_id"`
	Description string            `json:"description" gorm:"column:description"`
	IPAddress   string            `json:"ip_address" gorm:"column:ip_address"`
	UserAgent   string            `json:"user_agent" gorm:"column:user_agent"`
	Metadata    datatypes.JSONMap `json:"metadata" gorm:"column:metadata"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (Log) TableName() string {
	return "audit_logs"
}

// Auditor appends audit rows. Callers treat it as best-effort: an audit
// failure must never fail the audited operation, so call sites discard the
// error after Record has logged it.
type Auditor struct {
	repo *Repository
}

func NewAuditor(repo *Repository) *Auditor {
	return &Auditor{repo: repo}
}

func (a *Auditor) Record(ctx context.Context, entry Log) error {
	if a == nil || a.repo == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.UserID == "" {
		entry.UserID = "system"
	}
	if entry.Action == "" {
		entry.Action = ActionOther
	}
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}
	entry.CreatedAt = time.Now().UTC()

	if err := a.repo.Append(ctx, &entry); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"action":    entry.Action,
			"entity_id": entry.EntityID,
		}).Warn("Failed to append audit log")
		return err
	}
	return nil
}

func (a *Auditor) List(ctx context.Context, userID string, action ActionType, limit int) ([]Log, error) {
	return a.repo.List(ctx, userID, action, limit)
}
