package analytics

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// bracket maps a latest metric value to points and a contributing-factor
// line. Brackets are ordered highest threshold first; the first match wins
// for its metric.
type bracket struct {
	atLeast float64
	points  float64
	factor  string // "{value}" is replaced with the observed value
}

// metricRule is the ordered bracket list for one metric.
type metricRule struct {
	metric   string
	brackets []bracket
}

// recommendationTier appends advice once the accumulated score reaches its
// floor. Tiers are ordered highest floor first to keep the original copy
// order.
type recommendationTier struct {
	atLeast float64
	advice  []string
}

// assessment is one category's complete rule set. gated assessments are
// skipped entirely unless at least one of their metrics was observed.
type assessment struct {
	category    RiskCategory
	description string
	gated       bool
	rules       []metricRule
	tiers       []recommendationTier
}

// assessments is the full rule table. Keeping it data rather than branching
// code means a new bracket is a one-line change and each rule is testable on
// its own.
var assessments = []assessment{
	{
		category:    RiskDiabetes,
		description: "Diabetes risk assessment based on blood sugar levels and HbA1c",
		rules: []metricRule{
			{
				metric: MetricHbA1c,
				brackets: []bracket{
					{atLeast: 6.5, points: 80, factor: "HbA1c level ({value}%) indicates diabetes"},
					{atLeast: 5.7, points: 50, factor: "HbA1c level ({value}%) indicates pre-diabetes"},
				},
			},
			{
				metric: MetricFastingBloodSugar,
				brackets: []bracket{
					{atLeast: 126, points: 70, factor: "Fasting blood sugar ({value} mg/dL) indicates diabetes"},
					{atLeast: 100, points: 40, factor: "Fasting blood sugar ({value} mg/dL) is elevated"},
				},
			},
		},
		tiers: []recommendationTier{
			{atLeast: 60, advice: []string{
				"Consult a diabetologist for further evaluation",
				"Monitor blood sugar levels regularly",
			}},
			{atLeast: 40, advice: []string{
				"Follow a diabetic-friendly diet",
				"Maintain regular exercise routine",
			}},
		},
	},
	{
		category:    RiskHypertension,
		description: "Hypertension risk assessment based on blood pressure readings",
		gated:       true,
		rules: []metricRule{
			{
				metric: MetricSystolicBP,
				brackets: []bracket{
					{atLeast: 180, points: 90, factor: "Very high systolic BP ({value} mmHg) - Hypertensive Crisis"},
					{atLeast: 140, points: 70, factor: "High systolic BP ({value} mmHg) - Stage 2 Hypertension"},
					{atLeast: 130, points: 50, factor: "Elevated systolic BP ({value} mmHg) - Stage 1 Hypertension"},
					{atLeast: 120, points: 30, factor: "High-normal systolic BP ({value} mmHg)"},
				},
			},
			{
				metric: MetricDiastolicBP,
				brackets: []bracket{
					{atLeast: 120, points: 90, factor: "Very high diastolic BP ({value} mmHg) - Hypertensive Crisis"},
					{atLeast: 90, points: 70, factor: "High diastolic BP ({value} mmHg) - Stage 2 Hypertension"},
					{atLeast: 80, points: 50, factor: "Elevated diastolic BP ({value} mmHg) - Stage 1 Hypertension"},
				},
			},
		},
		tiers: []recommendationTier{
			{atLeast: 60, advice: []string{
				"Consult a cardiologist for blood pressure management",
				"Monitor blood pressure daily",
			}},
			{atLeast: 40, advice: []string{
				"Reduce sodium intake",
				"Maintain healthy weight",
				"Regular exercise",
			}},
		},
	},
	{
		category:    RiskHeartDisease,
		description: "Heart disease risk assessment based on cholesterol and cardiovascular markers",
		rules: []metricRule{
			{
				metric: MetricTotalCholesterol,
				brackets: []bracket{
					{atLeast: 240, points: 60, factor: "High total cholesterol ({value} mg/dL)"},
					{atLeast: 200, points: 40, factor: "Borderline high total cholesterol ({value} mg/dL)"},
				},
			},
			{
				metric: MetricLDLCholesterol,
				brackets: []bracket{
					{atLeast: 190, points: 70, factor: "Very high LDL cholesterol ({value} mg/dL)"},
					{atLeast: 160, points: 50, factor: "High LDL cholesterol ({value} mg/dL)"},
					{atLeast: 130, points: 30, factor: "Borderline high LDL cholesterol ({value} mg/dL)"},
				},
			},
			{
				metric: MetricSystolicBP,
				brackets: []bracket{
					{atLeast: 140, points: 30, factor: "High blood pressure increases heart disease risk"},
				},
			},
		},
		tiers: []recommendationTier{
			{atLeast: 50, advice: []string{
				"Consult a cardiologist for comprehensive heart health evaluation",
			}},
			{atLeast: 40, advice: []string{
				"Follow heart-healthy diet (low saturated fat)",
				"Maintain healthy weight",
				"Regular physical activity",
			}},
		},
	},
}

// RiskScorer evaluates the category rule table against a patient's latest
// observed values.
type RiskScorer struct {
	table []assessment
}

func NewRiskScorer() *RiskScorer {
	return &RiskScorer{table: assessments}
}

// Assess runs every category assessment. Categories that accumulate no score
// yield nothing: no risk row is produced and an earlier one is left alone.
func (s *RiskScorer) Assess(patientID string, series MetricSeries) []*Risk {
	var risks []*Risk
	for _, a := range s.table {
		if risk := s.evaluate(a, patientID, series); risk != nil {
			risks = append(risks, risk)
		}
	}
	return risks
}

func (s *RiskScorer) evaluate(a assessment, patientID string, series MetricSeries) *Risk {
	if a.gated && !s.anyObserved(a, series) {
		return nil
	}

	var score float64
	var factors []string

	for _, rule := range a.rules {
		latest, ok := series.Latest(rule.metric)
		if !ok {
			continue
		}
		for _, b := range rule.brackets {
			if latest.Value >= b.atLeast {
				score += b.points
				factors = append(factors, renderFactor(b.factor, latest.Value))
				break
			}
		}
	}

	if score <= 0 {
		return nil
	}
	if score > 100 {
		score = 100
	}

	advice := []string{}
	for _, tier := range a.tiers {
		if score >= tier.atLeast {
			advice = append(advice, tier.advice...)
		}
	}

	now := time.Now().UTC()
	return &Risk{
		ID:                  uuid.New().String(),
		PatientID:           patientID,
		Category:            a.category,
		RiskScore:           score,
		RiskLevel:           riskLevelFor(score),
		Description:         a.description,
		ContributingFactors: mustJSON(factors),
		Recommendations:     mustJSON(advice),
		RelatedRecords:      mustJSON([]string{}),
		AssessedAt:          now,
		UpdatedAt:           now,
	}
}

func (s *RiskScorer) anyObserved(a assessment, series MetricSeries) bool {
	for _, rule := range a.rules {
		if _, ok := series[rule.metric]; ok {
			return true
		}
	}
	return false
}

// riskLevelFor is the fixed score-to-band mapping. A clamped score of 100
// lands in CRITICAL, as does exactly 80.
func riskLevelFor(score float64) RiskLevel {
	switch {
	case score < 30:
		return RiskLow
	case score < 60:
		return RiskModerate
	case score < 80:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func renderFactor(template string, value float64) string {
	return strings.ReplaceAll(template, "{value}", strconv.FormatFloat(value, 'g', -1, 64))
}
