package analytics

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrTrendNotFound   = errors.New("health trend not found")
	ErrInsightNotFound = errors.New("health insight not found")
)

// Repository persists the derived analytics entities. Two contracts live
// here and must not be unified: trends and risks are idempotent replacements
// keyed by their natural key, insights are a monotonic log.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Trend{}, &Risk{}, &Insight{})
}

// UpsertTrend writes the trend for (patient, metric), overwriting every
// computed field of an existing row. The row identity and creation time
// survive recomputation.
func (r *Repository) UpsertTrend(ctx context.Context, t *Trend) error {
	var existing Trend
	result := r.db.WithContext(ctx).
		Where("patient_id = ? AND metric_name = ?", t.PatientID, t.MetricName).
		First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		t.CreatedAt = time.Now().UTC()
		return r.db.WithContext(ctx).Create(t).Error
	}
	if result.Error != nil {
		return result.Error
	}

	t.ID = existing.ID
	t.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Model(&Trend{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"metric_unit":       t.MetricUnit,
			"data_points":       t.DataPoints,
			"trend_direction":   t.TrendDirection,
			"trend_strength":    t.TrendStrength,
			"current_value":     t.CurrentValue,
			"average_value":     t.AverageValue,
			"min_value":         t.MinValue,
			"max_value":         t.MaxValue,
			"change_percentage": t.ChangePercentage,
			"normal_range_min":  t.NormalRangeMin,
			"normal_range_max":  t.NormalRangeMax,
			"last_updated":      t.LastUpdated,
		}).Error
}

func (r *Repository) GetTrend(ctx context.Context, id string) (*Trend, error) {
	var trend Trend
	result := r.db.WithContext(ctx).First(&trend, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrTrendNotFound
	}
	return &trend, result.Error
}

func (r *Repository) GetTrendByMetric(ctx context.Context, patientID, metricName string) (*Trend, error) {
	var trend Trend
	result := r.db.WithContext(ctx).
		Where("patient_id = ? AND metric_name = ?", patientID, metricName).
		First(&trend)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrTrendNotFound
	}
	return &trend, result.Error
}

func (r *Repository) ListTrends(ctx context.Context, patientID string) ([]Trend, error) {
	var trends []Trend
	result := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("metric_name ASC").
		Find(&trends)
	return trends, result.Error
}

// UpsertRisk writes the assessment for (patient, category), overwriting an
// existing row in place.
func (r *Repository) UpsertRisk(ctx context.Context, risk *Risk) error {
	var existing Risk
	result := r.db.WithContext(ctx).
		Where("patient_id = ? AND category = ?", risk.PatientID, risk.Category).
		First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(risk).Error
	}
	if result.Error != nil {
		return result.Error
	}

	risk.ID = existing.ID
	return r.db.WithContext(ctx).Model(&Risk{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"risk_score":           risk.RiskScore,
			"risk_level":           risk.RiskLevel,
			"description":          risk.Description,
			"contributing_factors": risk.ContributingFactors,
			"recommendations":      risk.Recommendations,
			"related_records":      risk.RelatedRecords,
			"assessed_at":          risk.AssessedAt,
			"updated_at":           risk.UpdatedAt,
		}).Error
}

func (r *Repository) ListRisks(ctx context.Context, patientID string) ([]Risk, error) {
	var risks []Risk
	result := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("category ASC").
		Find(&risks)
	return risks, result.Error
}

// AppendInsight adds one row to the insight log. There is deliberately no
// update path through this repository.
func (r *Repository) AppendInsight(ctx context.Context, insight *Insight) error {
	return r.db.WithContext(ctx).Create(insight).Error
}

func (r *Repository) GetInsight(ctx context.Context, id string) (*Insight, error) {
	var insight Insight
	result := r.db.WithContext(ctx).First(&insight, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrInsightNotFound
	}
	return &insight, result.Error
}

func (r *Repository) ListInsights(ctx context.Context, patientID string, insightType InsightType, limit int) ([]Insight, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if insightType != "" {
		query = query.Where("type = ?", insightType)
	}
	var insights []Insight
	result := query.Order("created_at DESC").Limit(limit).Find(&insights)
	return insights, result.Error
}

func (r *Repository) CountActiveInsights(ctx context.Context, patientID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&Insight{}).
		Where("patient_id = ? AND is_active = ?", patientID, true).
		Count(&count)
	return count, result.Error
}
