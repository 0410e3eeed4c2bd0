package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/reformhealth/platform/pkg/audit"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/common/models"
)

const defaultShareDays = 30

var errShareNotActive = errors.New("share is not active")

// Share grants a provider access to a set of the patient's records. The
// share is active immediately and expires after expires_in_days (30 when
// unset). Every record in the set must exist and belong to the patient.
func (s *Service) Share(ctx context.Context, req ShareRequest) (*RecordShare, error) {
	if err := s.validator.ValidateShare(req); err != nil {
		return nil, err
	}

	for _, recordID := range req.RecordIDs {
		rec, err := s.repo.Get(ctx, recordID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return nil, ValidationError{reason: fmt.Errorf("record %s not found", recordID)}
			}
			return nil, err
		}
		if rec.PatientID != req.PatientID {
			return nil, ValidationError{reason: fmt.Errorf("record %s does not belong to patient", recordID)}
		}
	}

	days := req.ExpiresInDays
	if days <= 0 {
		days = defaultShareDays
	}
	now := time.Now().UTC()
	expires := now.AddDate(0, 0, days)
	idsJSON, _ := json.Marshal(req.RecordIDs)

	share := &RecordShare{
		ID:            uuid.New().String(),
		PatientID:     req.PatientID,
		ProviderName:  req.ProviderName,
		RecordIDs:     datatypes.JSON(idsJSON),
		Purpose:       req.Purpose,
		Status:        ShareGranted,
		AllowDownload: req.AllowDownload,
		GrantedAt:     &now,
		ExpiresAt:     &expires,
	}

	if err := s.repo.CreateShare(ctx, share); err != nil {
		return nil, fmt.Errorf("persisting record share: %w", err)
	}

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      req.PatientID,
		Action:      audit.ActionDocumentShare,
		EntityType:  "record_share",
		EntityID:    share.ID,
		Description: fmt.Sprintf("Shared %d record(s) with %s", len(req.RecordIDs), req.ProviderName),
	})

	s.publishShareEvent(ctx, models.EventRecordShared, share)

	return share, nil
}

// Revoke withdraws an active share. Already revoked or expired shares cannot
// be revoked again.
func (s *Service) Revoke(ctx context.Context, id string) (*RecordShare, error) {
	share, err := s.repo.GetShare(ctx, id)
	if err != nil {
		return nil, err
	}
	if share.Status != ShareGranted && share.Status != SharePending {
		return nil, ValidationError{reason: errShareNotActive}
	}

	if err := s.repo.UpdateShare(ctx, id, map[string]interface{}{
		"status": ShareRevoked,
	}); err != nil {
		return nil, err
	}
	share.Status = ShareRevoked

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      share.PatientID,
		Action:      audit.ActionConsentRevoked,
		EntityType:  "record_share",
		EntityID:    share.ID,
		Description: fmt.Sprintf("Revoked share with %s", share.ProviderName),
	})

	s.publishShareEvent(ctx, models.EventShareRevoked, share)

	return share, nil
}

func (s *Service) GetShare(ctx context.Context, id string) (*RecordShare, error) {
	return s.repo.GetShare(ctx, id)
}

func (s *Service) ListShares(ctx context.Context, patientID string, status ShareStatus) ([]RecordShare, error) {
	return s.repo.ListSharesByPatient(ctx, patientID, status)
}

// SharedRecords resolves the records behind an active share, for the
// provider-facing view. Records deleted since the grant are skipped.
func (s *Service) SharedRecords(ctx context.Context, shareID string) ([]HealthRecord, error) {
	share, err := s.repo.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.Status != ShareGranted {
		return nil, ValidationError{reason: errShareNotActive}
	}
	if share.ExpiresAt != nil && share.ExpiresAt.Before(time.Now().UTC()) {
		return nil, ValidationError{reason: errShareNotActive}
	}

	var ids []string
	_ = json.Unmarshal(share.RecordIDs, &ids)

	recs := make([]HealthRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

// ExpireOverdueShares is the periodic sweep behind automatic consent expiry.
func (s *Service) ExpireOverdueShares(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdueShares(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring shares: %w", err)
	}
	if n > 0 {
		logger.Log.WithFields(map[string]interface{}{
			"count": n,
		}).Info("Expired overdue shares")
	}
	return n, nil
}

func (s *Service) publishShareEvent(ctx context.Context, eventType string, share *RecordShare) {
	if s.shareProducer == nil {
		return
	}

	var recordIDs []string
	_ = json.Unmarshal(share.RecordIDs, &recordIDs)

	payload := map[string]interface{}{
		"share_id":      share.ID,
		"patient_id":    share.PatientID,
		"provider_name": share.ProviderName,
		"record_ids":    recordIDs,
		"status":        string(share.Status),
	}

	if err := s.shareProducer.PublishEvent(ctx, eventType, eventSource, payload); err != nil {
		logger.Log.WithError(err).Error("Failed to publish share event")
		if s.dlq != nil {
			if dlqErr := s.dlq.PublishEvent(ctx, eventType, eventSource, payload); dlqErr != nil {
				logger.Log.WithError(dlqErr).Error("Failed to push share event to DLQ")
			}
		}
	}
}
