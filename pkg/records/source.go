package records

import (
	"context"

	"github.com/reformhealth/platform/pkg/analytics"
)

// AnalyticsSource adapts the records store to the analytics engine's input
// interface. Only PROCESSED records feed analysis; pending and errored
// uploads have no extraction output worth reading.
type AnalyticsSource struct {
	repo *Repository
}

func NewAnalyticsSource(repo *Repository) *AnalyticsSource {
	return &AnalyticsSource{repo: repo}
}

func (s *AnalyticsSource) ProcessedRecords(ctx context.Context, patientID string) ([]analytics.SourceRecord, error) {
	recs, err := s.repo.ListProcessedByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	out := make([]analytics.SourceRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, analytics.SourceRecord{
			ID:              rec.ID,
			RecordDate:      rec.RecordDate,
			ExtractedValues: map[string]interface{}(rec.ExtractedValues),
		})
	}
	return out, nil
}
