package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reformhealth/platform/pkg/common/kafka"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/common/models"
	"github.com/reformhealth/platform/pkg/reference"
)

// RecordSource supplies the processed records the engine analyzes. The
// records service implements it over its own store; tests implement it over
// fixtures.
type RecordSource interface {
	ProcessedRecords(ctx context.Context, patientID string) ([]SourceRecord, error)
}

// Service runs the analytics pipeline: extraction, trend fitting, anomaly
// detection, risk scoring, insight generation and forecasting. Batch
// operations are best-effort per item; single-item operations propagate
// persistence errors.
type Service struct {
	source     RecordSource
	repo       *Repository
	ranges     reference.Catalog
	trends     *TrendCalculator
	detector   *AnomalyDetector
	scorer     *RiskScorer
	generator  *InsightGenerator
	forecaster *Forecaster
	snapshot   *SnapshotStore
	producer   *kafka.Producer
	dlq        *kafka.Producer
	horizon    int
}

// NewService wires the engine. snapshot, producer and dlq may be nil; the
// service degrades to uncached, unpublished operation.
func NewService(source RecordSource, repo *Repository, ranges reference.Catalog, snapshot *SnapshotStore, producer, dlq *kafka.Producer, horizonDays int) *Service {
	if horizonDays <= 0 {
		horizonDays = DefaultForecastHorizonDays
	}
	return &Service{
		source:     source,
		repo:       repo,
		ranges:     ranges,
		trends:     NewTrendCalculator(ranges),
		detector:   NewAnomalyDetector(ranges),
		scorer:     NewRiskScorer(),
		generator:  NewInsightGenerator(),
		forecaster: NewForecaster(),
		snapshot:   snapshot,
		producer:   producer,
		dlq:        dlq,
		horizon:    horizonDays,
	}
}

func (s *Service) patientSeries(ctx context.Context, patientID string) (MetricSeries, error) {
	records, err := s.source.ProcessedRecords(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient records: %w", err)
	}
	return ExtractMetrics(records), nil
}

// AnalyzeTrends recomputes trends from the patient's observation history.
// With metricName set only that metric is analyzed and persistence errors
// propagate; otherwise every metric with enough data is analyzed and a
// failing metric is logged and skipped.
func (s *Service) AnalyzeTrends(ctx context.Context, patientID, metricName string) ([]*Trend, error) {
	series, err := s.patientSeries(ctx, patientID)
	if err != nil {
		return nil, err
	}

	names := series.MetricNames()
	if metricName != "" {
		names = []string{metricName}
	}

	trends := make([]*Trend, 0, len(names))
	for _, name := range names {
		trend := s.trends.Calculate(patientID, name, series[name])
		if trend == nil {
			continue
		}
		if err := s.repo.UpsertTrend(ctx, trend); err != nil {
			if metricName != "" {
				return nil, fmt.Errorf("persisting trend for %s: %w", name, err)
			}
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"patient_id": patientID,
				"metric":     name,
			}).Error("Failed to persist trend")
			continue
		}
		trends = append(trends, trend)
	}

	if s.snapshot != nil && len(series) > 0 {
		if err := s.snapshot.MaterializeVitals(ctx, patientID, series); err != nil {
			logger.Log.WithError(err).WithField("patient_id", patientID).Warn("Failed to refresh vitals snapshot")
		}
	}

	return trends, nil
}

// DetectAnomalies reports statistical outliers in the patient's history. It
// persists nothing.
func (s *Service) DetectAnomalies(ctx context.Context, patientID string) ([]Anomaly, error) {
	series, err := s.patientSeries(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.detector.Detect(series), nil
}

// AssessHealthRisks scores every risk category with observed inputs and
// upserts the results. A category that fails to persist is logged and
// dropped from the returned set.
func (s *Service) AssessHealthRisks(ctx context.Context, patientID string) ([]*Risk, error) {
	series, err := s.patientSeries(ctx, patientID)
	if err != nil {
		return nil, err
	}

	assessed := make([]*Risk, 0, 3)
	for _, risk := range s.scorer.Assess(patientID, series) {
		if err := s.repo.UpsertRisk(ctx, risk); err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"patient_id": patientID,
				"category":   risk.Category,
			}).Error("Failed to persist risk assessment")
			continue
		}
		assessed = append(assessed, risk)
	}
	return assessed, nil
}

// GenerateInsights runs the full pipeline and appends one insight per
// noteworthy finding. Every call appends anew; the insight log keeps
// history rather than deduplicating.
func (s *Service) GenerateInsights(ctx context.Context, patientID string) ([]*Insight, error) {
	trends, err := s.AnalyzeTrends(ctx, patientID, "")
	if err != nil {
		return nil, err
	}
	anomalies, err := s.DetectAnomalies(ctx, patientID)
	if err != nil {
		return nil, err
	}
	risks, err := s.AssessHealthRisks(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var candidates []*Insight
	for _, trend := range trends {
		if insight := s.generator.FromTrend(trend); insight != nil {
			candidates = append(candidates, insight)
		}
	}
	for _, anomaly := range anomalies {
		candidates = append(candidates, s.generator.FromAnomaly(patientID, anomaly))
	}
	for _, risk := range risks {
		candidates = append(candidates, s.generator.FromRisk(risk))
	}

	insights := make([]*Insight, 0, len(candidates))
	for _, insight := range candidates {
		if err := s.repo.AppendInsight(ctx, insight); err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"patient_id": patientID,
				"type":       insight.Type,
			}).Error("Failed to persist insight")
			continue
		}
		insights = append(insights, insight)
	}

	s.publishInsights(ctx, patientID, insights)

	return insights, nil
}

// publishInsights announces new insights on the bus. Publication is not part
// of the generation contract: rows are already persisted, so failures fall
// back to the DLQ and are otherwise swallowed.
func (s *Service) publishInsights(ctx context.Context, patientID string, insights []*Insight) {
	if s.producer == nil || len(insights) == 0 {
		return
	}

	ids := make([]string, len(insights))
	for i, insight := range insights {
		ids[i] = insight.ID
	}
	payload := map[string]interface{}{
		models.PatientIDKey: patientID,
		"insight_ids":       ids,
		"insight_count":     len(insights),
		"generated_at":      time.Now().UTC(),
	}

	if err := s.producer.PublishEvent(ctx, models.EventInsightsGenerated, "analytics-service", payload); err != nil {
		logger.Log.WithError(err).Error("Failed to publish insights event")
		if s.dlq != nil {
			if dlqErr := s.dlq.PublishEvent(ctx, models.EventInsightsGenerated, "analytics-service", payload); dlqErr != nil {
				logger.Log.WithError(dlqErr).Error("Failed to push insights event to DLQ")
			}
		}
	}
}

// PredictFutureValues projects the stored trend for (patient, metric) up to
// daysAhead days out. A missing trend reads as not enough data, matching the
// error a too-short trend produces.
func (s *Service) PredictFutureValues(ctx context.Context, patientID, metricName string, daysAhead int) ([]Prediction, error) {
	if daysAhead <= 0 {
		daysAhead = s.horizon
	}

	trend, err := s.repo.GetTrendByMetric(ctx, patientID, metricName)
	if errors.Is(err, ErrTrendNotFound) {
		return nil, ErrInsufficientData
	}
	if err != nil {
		return nil, err
	}

	return s.projectTrend(ctx, trend, daysAhead)
}

// PredictForTrend serves the trend-scoped forecast route. The trend is
// returned alongside the predictions so callers can label them.
func (s *Service) PredictForTrend(ctx context.Context, trendID string, daysAhead int) (*Trend, []Prediction, error) {
	if daysAhead <= 0 {
		daysAhead = s.horizon
	}

	trend, err := s.repo.GetTrend(ctx, trendID)
	if err != nil {
		return nil, nil, err
	}

	predictions, err := s.projectTrend(ctx, trend, daysAhead)
	if err != nil {
		return nil, nil, err
	}
	return trend, predictions, nil
}

func (s *Service) projectTrend(ctx context.Context, trend *Trend, daysAhead int) ([]Prediction, error) {
	if s.snapshot != nil {
		cached, ok, err := s.snapshot.CachedForecast(ctx, trend, daysAhead)
		if err != nil {
			logger.Log.WithError(err).Warn("Forecast cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	predictions, err := s.forecaster.Project(trend, daysAhead)
	if err != nil {
		return nil, err
	}

	if s.snapshot != nil {
		if err := s.snapshot.CacheForecast(ctx, trend, daysAhead, predictions); err != nil {
			logger.Log.WithError(err).Warn("Forecast cache write failed")
		}
	}
	return predictions, nil
}

func (s *Service) ListTrends(ctx context.Context, patientID string) ([]Trend, error) {
	return s.repo.ListTrends(ctx, patientID)
}

func (s *Service) GetTrend(ctx context.Context, id string) (*Trend, error) {
	return s.repo.GetTrend(ctx, id)
}

func (s *Service) ListRisks(ctx context.Context, patientID string) ([]Risk, error) {
	return s.repo.ListRisks(ctx, patientID)
}

func (s *Service) ListInsights(ctx context.Context, patientID string, insightType InsightType, limit int) ([]Insight, error) {
	return s.repo.ListInsights(ctx, patientID, insightType, limit)
}

// Summary assembles the patient dashboard: latest vitals from the snapshot
// (recomputed from source records on a cold cache), current risk levels and
// the active insight count.
func (s *Service) Summary(ctx context.Context, patientID string) (*PatientSummary, error) {
	summary := &PatientSummary{
		PatientID:    patientID,
		LatestVitals: map[string]LatestVital{},
		RiskLevels:   map[string]RiskLevel{},
		GeneratedAt:  time.Now().UTC(),
	}

	if s.snapshot != nil {
		vitals, err := s.snapshot.LatestVitals(ctx, patientID)
		if err != nil {
			logger.Log.WithError(err).WithField("patient_id", patientID).Warn("Vitals snapshot read failed")
		} else {
			summary.LatestVitals = vitals
		}
	}

	if len(summary.LatestVitals) == 0 {
		series, err := s.patientSeries(ctx, patientID)
		if err != nil {
			return nil, err
		}
		for _, name := range series.MetricNames() {
			obs, ok := series.Latest(name)
			if !ok {
				continue
			}
			vital := LatestVital{Value: obs.Value, Date: obs.Date}
			if rng, ok := s.ranges.Lookup(name); ok {
				vital.Unit = rng.Unit
			}
			summary.LatestVitals[name] = vital
		}
	}

	risks, err := s.repo.ListRisks(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, risk := range risks {
		summary.RiskLevels[string(risk.Category)] = risk.RiskLevel
	}

	count, err := s.repo.CountActiveInsights(ctx, patientID)
	if err != nil {
		return nil, err
	}
	summary.ActiveInsights = count

	return summary, nil
}
