package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/reformhealth/platform/pkg/audit"
	"github.com/reformhealth/platform/pkg/common/kafka"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/common/models"
)

const eventSource = "records-service"

type CreateRecordRequest struct {
	PatientID    string                 `json:"patient_id"`
	UploadedBy   string                 `json:"uploaded_by"`
	Title        string                 `json:"title"`
	Category     Category               `json:"category"`
	Description  string                 `json:"description"`
	FileURL      string                 `json:"file_url"`
	FileName     string                 `json:"file_name"`
	FileSize     int64                  `json:"file_size"`
	FileType     string                 `json:"file_type"`
	RecordDate   string                 `json:"record_date"`
	ProviderName string                 `json:"provider_name"`
	DoctorName   string                 `json:"doctor_name"`
	OCRData      map[string]interface{} `json:"ocr_data"`
	Tags         []string               `json:"tags"`
	Notes        string                 `json:"notes"`
}

type UpdateRecordRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	ProviderName *string  `json:"provider_name"`
	DoctorName   *string  `json:"doctor_name"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
}

type ShareRequest struct {
	PatientID     string   `json:"patient_id"`
	ProviderName  string   `json:"provider_name"`
	RecordIDs     []string `json:"record_ids"`
	Purpose       string   `json:"purpose"`
	AllowDownload bool     `json:"allow_download"`
	ExpiresInDays int      `json:"expires_in_days"`
}

type Service struct {
	validator     *Validator
	repo          *Repository
	producer      *kafka.Producer
	shareProducer *kafka.Producer
	dlq           *kafka.Producer
	auditor       *audit.Auditor
	workers       chan struct{}
}

func NewService(validator *Validator, repo *Repository, producer, shareProducer, dlq *kafka.Producer, auditor *audit.Auditor, maxWorkers int) *Service {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Service{
		validator:     validator,
		repo:          repo,
		producer:      producer,
		shareProducer: shareProducer,
		dlq:           dlq,
		auditor:       auditor,
		workers:       make(chan struct{}, maxWorkers),
	}
}

// Create validates and persists an uploaded record as PENDING, then kicks off
// value extraction in the background. The caller gets the PENDING row back
// immediately; extraction flips it to PROCESSED or ERROR on its own time.
func (s *Service) Create(ctx context.Context, req CreateRecordRequest) (*HealthRecord, error) {
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, err
	}
	recordDate, err := ParseRecordDate(req.RecordDate)
	if err != nil {
		return nil, ValidationError{reason: err}
	}

	if req.Tags == nil {
		req.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(req.Tags)

	rec := &HealthRecord{
		ID:              uuid.New().String(),
		PatientID:       req.PatientID,
		UploadedBy:      req.UploadedBy,
		Title:           req.Title,
		Category:        req.Category,
		Description:     req.Description,
		FileURL:         req.FileURL,
		FileName:        req.FileName,
		FileSize:        req.FileSize,
		FileType:        req.FileType,
		RecordDate:      recordDate,
		ProviderName:    req.ProviderName,
		DoctorName:      req.DoctorName,
		Status:          StatusPending,
		OCRData:         datatypes.JSONMap(req.OCRData),
		ExtractedValues: datatypes.JSONMap{},
		Tags:            datatypes.JSON(tagsJSON),
		Notes:           req.Notes,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting health record: %w", err)
	}

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      req.UploadedBy,
		Action:      audit.ActionRecordUpload,
		EntityType:  "health_record",
		EntityID:    rec.ID,
		Description: fmt.Sprintf("Uploaded '%s' (%s)", rec.Title, rec.Category),
	})

	if s.producer != nil {
		payload := map[string]interface{}{
			"record_id":  rec.ID,
			"patient_id": rec.PatientID,
			"category":   string(rec.Category),
			"title":      rec.Title,
		}
		if err := s.producer.PublishEvent(ctx, models.EventRecordUploaded, eventSource, payload); err != nil {
			logger.Log.WithError(err).Warn("Failed to publish record.uploaded event")
		}
	}

	go s.processAsync(rec.ID)

	return rec, nil
}

func (s *Service) processAsync(recordID string) {
	s.workers <- struct{}{}
	defer func() { <-s.workers }()

	ctx := context.Background()
	if err := s.Process(ctx, recordID); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"record_id": recordID,
		}).Error("Record processing failed")
	}
}

// Process runs value extraction for one record. A record without OCR output
// goes to ERROR rather than silently staying PENDING, so the reprocess sweep
// does not pick it up forever.
func (s *Service) Process(ctx context.Context, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if len(rec.OCRData) == 0 {
		if err := s.repo.MarkError(ctx, id, "no OCR data to extract values from"); err != nil {
			return fmt.Errorf("marking record errored: %w", err)
		}
		logger.Log.WithFields(map[string]interface{}{
			"record_id":  id,
			"patient_id": rec.PatientID,
		}).Warn("Record has no OCR data")
		return nil
	}

	extracted := ParseValues(map[string]interface{}(rec.OCRData))
	if err := s.repo.MarkProcessed(ctx, id, datatypes.JSONMap(extracted)); err != nil {
		return fmt.Errorf("marking record processed: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"record_id":   id,
		"patient_id":  rec.PatientID,
		"value_count": len(extracted),
	}).Info("Record processed")

	s.publishProcessed(ctx, rec, extracted)
	return nil
}

func (s *Service) publishProcessed(ctx context.Context, rec *HealthRecord, extracted map[string]interface{}) {
	if s.producer == nil {
		return
	}

	payload := map[string]interface{}{
		"record_id":        rec.ID,
		"patient_id":       rec.PatientID,
		"category":         string(rec.Category),
		"record_date":      rec.RecordDate.Format(time.RFC3339),
		"extracted_values": extracted,
		"value_count":      len(extracted),
	}

	if err := s.producer.PublishEvent(ctx, models.EventRecordProcessed, eventSource, payload); err != nil {
		logger.Log.WithError(err).Error("Failed to publish record.processed event")
		if s.dlq != nil {
			if dlqErr := s.dlq.PublishEvent(ctx, models.EventRecordProcessed, eventSource, payload); dlqErr != nil {
				logger.Log.WithError(dlqErr).Error("Failed to push record event to DLQ")
			}
		}
	}
}

// ReprocessStuck re-runs extraction for records that have sat PENDING longer
// than olderThan, typically because the service died between upload and
// extraction. Returns how many records were swept.
func (s *Service) ReprocessStuck(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	recs, err := s.repo.ListStuckPending(ctx, olderThan, limit)
	if err != nil {
		return 0, fmt.Errorf("listing stuck records: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	var wg sync.WaitGroup
	for _, rec := range recs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.workers <- struct{}{}
			defer func() { <-s.workers }()

			if err := s.Process(ctx, id); err != nil {
				logger.Log.WithError(err).WithFields(map[string]interface{}{
					"record_id": id,
				}).Error("Reprocess failed")
			}
		}(rec.ID)
	}
	wg.Wait()

	logger.Log.WithFields(map[string]interface{}{
		"count": len(recs),
	}).Info("Reprocess sweep completed")

	return len(recs), nil
}

func (s *Service) Get(ctx context.Context, id string) (*HealthRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:     rec.PatientID,
		Action:     audit.ActionRecordView,
		EntityType: "health_record",
		EntityID:   rec.ID,
	})

	return rec, nil
}

func (s *Service) List(ctx context.Context, patientID string, category Category, limit int) ([]HealthRecord, error) {
	return s.repo.ListByPatient(ctx, patientID, category, limit)
}

// Update applies a partial edit to the caller-editable fields. Extraction
// output and file metadata are not editable through this path.
func (s *Service) Update(ctx context.Context, id string, req UpdateRecordRequest) (*HealthRecord, error) {
	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.ProviderName != nil {
		fields["provider_name"] = *req.ProviderName
	}
	if req.DoctorName != nil {
		fields["doctor_name"] = *req.DoctorName
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.Tags != nil {
		tagsJSON, _ := json.Marshal(req.Tags)
		fields["tags"] = datatypes.JSON(tagsJSON)
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	_ = s.auditor.Record(ctx, audit.Log{
		UserID:      rec.PatientID,
		Action:      audit.ActionRecordDelete,
		EntityType:  "health_record",
		EntityID:    rec.ID,
		Description: fmt.Sprintf("Deleted '%s'", rec.Title),
	})

	return nil
}
