package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InsightGenerator turns trends, anomalies and risks into human-readable
// insight rows. Every insight is a fresh append: the log records what was
// concluded and when, so repeated generation over unchanged data repeats the
// conclusion rather than hiding it.
type InsightGenerator struct{}

func NewInsightGenerator() *InsightGenerator {
	return &InsightGenerator{}
}

// FromTrend describes where a metric is heading. A current value breaching
// the reference band is HIGH severity no matter how small the move;
// otherwise severity follows the size of the change.
func (g *InsightGenerator) FromTrend(t *Trend) *Insight {
	var title, description string
	severity := SeverityLow

	switch t.TrendDirection {
	case TrendIncreasing:
		if t.NormalRangeMax != nil && t.CurrentValue > *t.NormalRangeMax {
			title = fmt.Sprintf("%s is increasing and above normal", t.MetricName)
			description = fmt.Sprintf(
				"%s has been increasing and is currently %s, which is above the normal range (%s-%s). Consider consulting your doctor.",
				t.MetricName, formatValue(t.CurrentValue), formatBound(t.NormalRangeMin), formatBound(t.NormalRangeMax),
			)
			severity = SeverityHigh
		} else {
			title = fmt.Sprintf("%s is showing an increasing trend", t.MetricName)
			description = fmt.Sprintf(
				"%s has increased by %.1f%% over the observed period. Current value: %s.",
				t.MetricName, t.ChangePercentage, formatValue(t.CurrentValue),
			)
			if t.ChangePercentage > 10 {
				severity = SeverityMedium
			}
		}
	case TrendDecreasing:
		if t.NormalRangeMin != nil && t.CurrentValue < *t.NormalRangeMin {
			title = fmt.Sprintf("%s is decreasing and below normal", t.MetricName)
			description = fmt.Sprintf(
				"%s has been decreasing and is currently %s, which is below the normal range (%s-%s).",
				t.MetricName, formatValue(t.CurrentValue), formatBound(t.NormalRangeMin), formatBound(t.NormalRangeMax),
			)
			severity = SeverityHigh
		} else {
			title = fmt.Sprintf("%s is showing a decreasing trend", t.MetricName)
			description = fmt.Sprintf(
				"%s has decreased by %.1f%% over the observed period. Current value: %s.",
				t.MetricName, math.Abs(t.ChangePercentage), formatValue(t.CurrentValue),
			)
			if math.Abs(t.ChangePercentage) > 10 {
				severity = SeverityMedium
			}
		}
	default:
		title = fmt.Sprintf("%s is stable", t.MetricName)
		description = fmt.Sprintf(
			"%s has remained relatively stable. Current value: %s.",
			t.MetricName, formatValue(t.CurrentValue),
		)
	}

	insight := g.newInsight(t.PatientID, InsightTrend, title, description, severity, 0.8)
	insight.Metrics = datatypes.JSONMap(map[string]interface{}{
		"metric_name":   t.MetricName,
		"current_value": t.CurrentValue,
	})
	return insight
}

// FromAnomaly reports one outlier observation. Confidence grows with the
// z-score and saturates at 1.
func (g *InsightGenerator) FromAnomaly(patientID string, a Anomaly) *Insight {
	severity := SeverityMedium
	if a.ZScore > 3 {
		severity = SeverityHigh
	}

	title := fmt.Sprintf("Anomaly detected in %s", a.Metric)
	description := fmt.Sprintf(
		"%s value (%s) is outside normal range (%s)",
		a.Metric, formatValue(a.Value), a.NormalRange.String(),
	)

	insight := g.newInsight(patientID, InsightAnomaly, title, description, severity, math.Min(a.ZScore/3, 1.0))
	insight.RelatedRecords = mustJSON([]string{a.RecordID})
	insight.Metrics = datatypes.JSONMap(map[string]interface{}{
		"metric":  a.Metric,
		"value":   a.Value,
		"z_score": a.ZScore,
	})
	return insight
}

// FromRisk restates a category assessment as an insight, carrying the
// assessment's recommendations along.
func (g *InsightGenerator) FromRisk(r *Risk) *Insight {
	severity := SeverityLow
	switch r.RiskLevel {
	case RiskCritical:
		severity = SeverityCritical
	case RiskHigh:
		severity = SeverityHigh
	case RiskModerate:
		severity = SeverityMedium
	}

	title := fmt.Sprintf("%s Risk Assessment", r.Category.Display())

	insight := g.newInsight(r.PatientID, InsightRisk, title, r.Description, severity, r.RiskScore/100)
	insight.RelatedRecords = r.RelatedRecords
	insight.Recommendations = r.Recommendations
	insight.Metrics = datatypes.JSONMap(map[string]interface{}{
		"risk_score": r.RiskScore,
		"risk_level": string(r.RiskLevel),
	})
	insight.Predictions = datatypes.JSONMap(map[string]interface{}{
		"risk_category": string(r.Category),
	})
	return insight
}

func (g *InsightGenerator) newInsight(patientID string, kind InsightType, title, description string, severity Severity, confidence float64) *Insight {
	now := time.Now().UTC()
	return &Insight{
		ID:              uuid.New().String(),
		PatientID:       patientID,
		Type:            kind,
		Title:           title,
		Description:     description,
		Severity:        severity,
		RelatedRecords:  datatypes.JSON("[]"),
		Recommendations: datatypes.JSON("[]"),
		ConfidenceScore: confidence,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

func formatBound(b *float64) string {
	if b == nil {
		return "none"
	}
	return fmt.Sprintf("%g", *b)
}

// decodeStrings is shared by consumers that need a JSON string list back as
// a slice.
func decodeStrings(raw datatypes.JSON) []string {
	var out []string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}
