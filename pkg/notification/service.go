package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/common/models"
	"github.com/reformhealth/platform/pkg/observability/metrics"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func numberField(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Translate maps a bus event onto an inbox row. Events without a patient to
// deliver to, and event types the inbox does not surface, translate to nil.
func Translate(event models.Event) *Notification {
	patientID := stringField(event.Data, models.PatientIDKey)
	if patientID == "" {
		return nil
	}

	n := &Notification{
		ID:     uuid.New().String(),
		UserID: patientID,
		Data:   datatypes.JSONMap(event.Data),
	}

	switch event.Type {
	case models.EventRecordUploaded:
		n.Type = TypeRecordUploaded
		n.Title = "Record uploaded"
		n.Message = fmt.Sprintf("Your record '%s' was uploaded and is being processed.", stringField(event.Data, "title"))
	case models.EventRecordProcessed:
		n.Type = TypeTestResult
		n.Title = "Test results available"
		count := numberField(event.Data, "value_count")
		n.Message = fmt.Sprintf("A %s record was processed; %d values were extracted.", stringField(event.Data, "category"), count)
	case models.EventRecordShared:
		n.Type = TypeRecordShared
		n.Title = "Records shared"
		n.Message = fmt.Sprintf("Your records were shared with %s.", stringField(event.Data, "provider_name"))
		n.IsImportant = true
	case models.EventShareRevoked:
		n.Type = TypeOther
		n.Title = "Access revoked"
		n.Message = fmt.Sprintf("%s no longer has access to your shared records.", stringField(event.Data, "provider_name"))
	case models.EventClaimSubmitted, models.EventClaimUpdated:
		n.Type = TypeClaimStatus
		status := stringField(event.Data, "status")
		n.Title = "Claim update"
		n.Message = fmt.Sprintf("Claim %s is now %s.", stringField(event.Data, "claim_number"), status)
		n.IsImportant = status == "APPROVED" || status == "REJECTED" || status == "PAID"
	case models.EventInsightsGenerated:
		n.Type = TypeOther
		n.Title = "New health insights"
		n.Message = fmt.Sprintf("%d new insights were generated from your records.", numberField(event.Data, "insight_count"))
		n.IsImportant = true
	default:
		return nil
	}

	return n
}

// HandleEvent is the consumer callback. Untranslatable events are committed
// rather than retried; only persistence failures propagate so the consumer
// redelivers.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	metrics.IncEventConsumed()

	n := Translate(event)
	if n == nil {
		metrics.IncEventSkipped()
		logger.Log.WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("Event not surfaced as notification")
		return nil
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("persisting notification: %w", err)
	}
	metrics.IncNotificationCreated()

	logger.Log.WithFields(map[string]interface{}{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"type":            n.Type,
	}).Info("Notification created")

	return nil
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	return s.repo.List(ctx, userID, unreadOnly, limit)
}

func (s *Service) MarkRead(ctx context.Context, id string) (*Notification, error) {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}
