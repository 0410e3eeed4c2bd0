package analytics

import (
	"encoding/json"
	"time"

	"github.com/reformhealth/platform/pkg/reference"
	"gorm.io/datatypes"
)

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "INCREASING"
	TrendDecreasing TrendDirection = "DECREASING"
	TrendStable     TrendDirection = "STABLE"
)

type RiskCategory string

const (
	RiskDiabetes     RiskCategory = "DIABETES"
	RiskHypertension RiskCategory = "HYPERTENSION"
	RiskHeartDisease RiskCategory = "HEART_DISEASE"
)

// Display renders the category the way insight titles spell it.
func (c RiskCategory) Display() string {
	switch c {
	case RiskDiabetes:
		return "Diabetes"
	case RiskHypertension:
		return "Hypertension"
	case RiskHeartDisease:
		return "Heart Disease"
	default:
		return string(c)
	}
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

type InsightType string

const (
	InsightTrend   InsightType = "TREND"
	InsightAnomaly InsightType = "ANOMALY"
	InsightRisk    InsightType = "RISK"
)

// Observation is one dated numeric measurement pulled out of a processed
// record. Observations are transient: they exist between extraction and the
// derived entities, never as rows of their own.
type Observation struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	RecordID string    `json:"record_id"`
}

// MetricSeries groups observations by metric name, each series ordered by
// date ascending.
type MetricSeries map[string][]Observation

// SourceRecord is the slice of a processed health record the engine needs:
// when it was taken and which numeric fields extraction produced. The records
// service owns the full entity.
type SourceRecord struct {
	ID              string
	RecordDate      time.Time
	ExtractedValues map[string]interface{}
}

// Trend is the per-(patient, metric) projection of the observation history.
// Recomputation overwrites it in place; there is never more than one row per
// key.
type Trend struct {
	ID               string         `json:"id" gorm:"primaryKey;column:id"`
	PatientID        string         `json:"patient_id" gorm:"column:patient_id;uniqueIndex:idx_trends_patient_metric"`
	MetricName       string         `json:"metric_name" gorm:"column:metric_name;uniqueIndex:idx_trends_patient_metric"`
	MetricUnit       string         `json:"metric_unit" gorm:"column:metric_unit"`
	DataPoints       datatypes.JSON `json:"data_points" gorm:"column:data_points"`
	TrendDirection   TrendDirection `json:"trend_direction" gorm:"column:trend_direction"`
	TrendStrength    float64        `json:"trend_strength" gorm:"column:trend_strength"`
	CurrentValue     float64        `json:"current_value" gorm:"column:current_value"`
	AverageValue     float64        `json:"average_value" gorm:"column:average_value"`
	MinValue         float64        `json:"min_value" gorm:"column:min_value"`
	MaxValue         float64        `json:"max_value" gorm:"column:max_value"`
	ChangePercentage float64        `json:"change_percentage" gorm:"column:change_percentage"`
	NormalRangeMin   *float64       `json:"normal_range_min" gorm:"column:normal_range_min"`
	NormalRangeMax   *float64       `json:"normal_range_max" gorm:"column:normal_range_max"`
	LastUpdated      time.Time      `json:"last_updated" gorm:"column:last_updated"`
	CreatedAt        time.Time      `json:"created_at" gorm:"column:created_at"`
}

func (Trend) TableName() string {
	return "health_trends"
}

// Points decodes the persisted observation sequence.
func (t *Trend) Points() []Observation {
	var points []Observation
	if len(t.DataPoints) > 0 {
		_ = json.Unmarshal(t.DataPoints, &points)
	}
	return points
}

// Risk is the per-(patient, category) assessment projection, overwritten on
// every re-assessment.
type Risk struct {
	ID                  string         `json:"id" gorm:"primaryKey;column:id"`
	PatientID           string         `json:"patient_id" gorm:"column:patient_id;uniqueIndex:idx_risks_patient_category"`
	Category            RiskCategory   `json:"category" gorm:"column:category;uniqueIndex:idx_risks_patient_category"`
	RiskScore           float64        `json:"risk_score" gorm:"column:risk_score"`
	RiskLevel           RiskLevel      `json:"risk_level" gorm:"column:risk_level"`
	Description         string         `json:"description" gorm:"column:description"`
	ContributingFactors datatypes.JSON `json:"contributing_factors" gorm:"column:contributing_factors"`
	Recommendations     datatypes.JSON `json:"recommendations" gorm:"column:recommendations"`
	RelatedRecords      datatypes.JSON `json:"related_records" gorm:"column:related_records"`
	AssessedAt          time.Time      `json:"assessed_at" gorm:"column:assessed_at"`
	UpdatedAt           time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (Risk) TableName() string {
	return "health_risks"
}

// Insight is an append-only conclusion. The engine never mutates one after
// creation; consumers may flip IsActive when a finding is acknowledged.
type Insight struct {
	ID              string            `json:"id" gorm:"primaryKey;column:id"`
	PatientID       string            `json:"patient_id" gorm:"column:patient_id;index"`
	Type            InsightType       `json:"type" gorm:"column:type"`
	Title           string            `json:"title" gorm:"column:title"`
	Description     string            `json:"description" gorm:"column:description"`
	Severity        Severity          `json:"severity" gorm:"column:severity"`
	RelatedRecords  datatypes.JSON    `json:"related_records" gorm:"column:related_records"`
	Metrics         datatypes.JSONMap `json:"metrics" gorm:"column:metrics"`
	Predictions     datatypes.JSONMap `json:"predictions" gorm:"column:predictions"`
	Recommendations datatypes.JSON    `json:"recommendations" gorm:"column:recommendations"`
	ConfidenceScore float64           `json:"confidence_score" gorm:"column:confidence_score"`
	IsActive        bool              `json:"is_active" gorm:"column:is_active"`
	CreatedAt       time.Time         `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time         `json:"updated_at" gorm:"column:updated_at"`
}

func (Insight) TableName() string {
	return "health_insights"
}

// Anomaly is a reportable statistical outlier. Not persisted by itself; the
// insight generator turns each one into an Insight row.
type Anomaly struct {
	Metric      string          `json:"metric"`
	Value       float64         `json:"value"`
	Date        time.Time       `json:"date"`
	RecordID    string          `json:"record_id"`
	ZScore      float64         `json:"z_score"`
	NormalRange reference.Range `json:"normal_range"`
}

// Prediction is one projected point on a fitted trend line.
type Prediction struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	DaysAhead int     `json:"days_ahead"`
}

// PatientSummary is the dashboard view assembled from the vitals snapshot and
// the derived entities.
type PatientSummary struct {
	PatientID      string                 `json:"patient_id"`
	LatestVitals   map[string]LatestVital `json:"latest_vitals"`
	RiskLevels     map[string]RiskLevel   `json:"risk_levels"`
	ActiveInsights int64                  `json:"active_insights"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// LatestVital is the most recent observation of one metric.
type LatestVital struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
	Unit  string    `json:"unit,omitempty"`
}

// Canonical metric names produced by record extraction. The reference catalog
// and the risk rules key on these exact strings.
const (
	MetricHbA1c             = "HbA1c"
	MetricFastingBloodSugar = "Fasting Blood Sugar"
	MetricSystolicBP        = "Blood Pressure Systolic"
	MetricDiastolicBP       = "Blood Pressure Diastolic"
	MetricTotalCholesterol  = "Total Cholesterol"
	MetricLDLCholesterol    = "LDL Cholesterol"
)

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}
