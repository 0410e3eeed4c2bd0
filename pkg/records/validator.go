package records

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	errMissingPatient  = errors.New("patient_id required")
	errMissingTitle    = errors.New("title required")
	errInvalidCategory = errors.New("invalid category")
	errMissingDate     = errors.New("record_date required")
	errMissingProvider = errors.New("provider_name required")
	errMissingRecords  = errors.New("record_ids required")
	errMissingPurpose  = errors.New("purpose required")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

type Validator struct {
	categories map[Category]struct{}
}

func NewValidator(categories []Category) *Validator {
	if len(categories) == 0 {
		categories = Categories
	}
	set := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return &Validator{categories: set}
}

func (v *Validator) ValidateCreate(req CreateRecordRequest) error {
	if strings.TrimSpace(req.PatientID) == "" {
		return ValidationError{reason: errMissingPatient}
	}
	if strings.TrimSpace(req.Title) == "" {
		return ValidationError{reason: errMissingTitle}
	}
	if req.Category == "" {
		return ValidationError{reason: fmt.Errorf("category required: %w", errInvalidCategory)}
	}
	if _, ok := v.categories[req.Category]; !ok {
		return ValidationError{reason: fmt.Errorf("category '%s' not recognized: %w", req.Category, errInvalidCategory)}
	}
	if strings.TrimSpace(req.RecordDate) == "" {
		return ValidationError{reason: errMissingDate}
	}
	if _, err := ParseRecordDate(req.RecordDate); err != nil {
		return ValidationError{reason: fmt.Errorf("record_date '%s' unparseable: %w", req.RecordDate, errMissingDate)}
	}
	return nil
}

func (v *Validator) ValidateShare(req ShareRequest) error {
	if strings.TrimSpace(req.PatientID) == "" {
		return ValidationError{reason: errMissingPatient}
	}
	if strings.TrimSpace(req.ProviderName) == "" {
		return ValidationError{reason: errMissingProvider}
	}
	if len(req.RecordIDs) == 0 {
		return ValidationError{reason: errMissingRecords}
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return ValidationError{reason: errMissingPurpose}
	}
	return nil
}

// ParseRecordDate accepts the date-only form lab reports carry and full
// RFC3339 stamps from API clients.
func ParseRecordDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", trimmed); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
