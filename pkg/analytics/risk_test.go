package analytics

import (
	"testing"
)

func latestValues(values map[string]float64) MetricSeries {
	series := make(MetricSeries, len(values))
	for metric, v := range values {
		series[metric] = []Observation{{Date: day(0), Value: v, RecordID: "r1"}}
	}
	return series
}

func findRisk(risks []*Risk, category RiskCategory) *Risk {
	for _, r := range risks {
		if r.Category == category {
			return r
		}
	}
	return nil
}

func TestAssessDiabetesFromHbA1c(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{MetricHbA1c: 7.0}))
	risk := findRisk(risks, RiskDiabetes)
	if risk == nil {
		t.Fatal("expected a diabetes risk")
	}
	if risk.RiskScore != 80 {
		t.Fatalf("expected score 80, got %g", risk.RiskScore)
	}
	if risk.RiskLevel != RiskCritical {
		t.Fatalf("expected CRITICAL at score 80, got %s", risk.RiskLevel)
	}
	if risk.Description != "Diabetes risk assessment based on blood sugar levels and HbA1c" {
		t.Fatalf("unexpected description: %s", risk.Description)
	}

	factors := decodeStrings(risk.ContributingFactors)
	if len(factors) != 1 || factors[0] != "HbA1c level (7%) indicates diabetes" {
		t.Fatalf("unexpected factors: %v", factors)
	}

	advice := decodeStrings(risk.Recommendations)
	if len(advice) != 4 {
		t.Fatalf("expected both recommendation tiers, got %v", advice)
	}
	if advice[0] != "Consult a diabetologist for further evaluation" {
		t.Fatalf("expected specialist advice first, got %s", advice[0])
	}
}

func TestAssessDiabetesHighBand(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{MetricFastingBloodSugar: 126}))
	risk := findRisk(risks, RiskDiabetes)
	if risk == nil {
		t.Fatal("expected a diabetes risk")
	}
	if risk.RiskScore != 70 {
		t.Fatalf("expected score 70, got %g", risk.RiskScore)
	}
	if risk.RiskLevel != RiskHigh {
		t.Fatalf("expected HIGH, got %s", risk.RiskLevel)
	}
	factors := decodeStrings(risk.ContributingFactors)
	if len(factors) != 1 || factors[0] != "Fasting blood sugar (126 mg/dL) indicates diabetes" {
		t.Fatalf("unexpected factors: %v", factors)
	}
}

func TestAssessScoreClampedAtHundred(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{
		MetricHbA1c:             7.2,
		MetricFastingBloodSugar: 140,
	}))
	risk := findRisk(risks, RiskDiabetes)
	if risk == nil {
		t.Fatal("expected a diabetes risk")
	}
	if risk.RiskScore != 100 {
		t.Fatalf("expected clamped score 100, got %g", risk.RiskScore)
	}
	if risk.RiskLevel != RiskCritical {
		t.Fatalf("expected CRITICAL, got %s", risk.RiskLevel)
	}
	if factors := decodeStrings(risk.ContributingFactors); len(factors) != 2 {
		t.Fatalf("expected both factors recorded, got %v", factors)
	}
}

func TestAssessHypertensionRequiresBloodPressure(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{MetricTotalCholesterol: 250}))
	if findRisk(risks, RiskHypertension) != nil {
		t.Fatal("expected no hypertension assessment without blood pressure readings")
	}
	if findRisk(risks, RiskHeartDisease) == nil {
		t.Fatal("expected a heart disease risk from cholesterol")
	}
}

func TestAssessHypertensionStageTwo(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{MetricSystolicBP: 145}))
	risk := findRisk(risks, RiskHypertension)
	if risk == nil {
		t.Fatal("expected a hypertension risk")
	}
	if risk.RiskScore != 70 {
		t.Fatalf("expected score 70, got %g", risk.RiskScore)
	}
	factors := decodeStrings(risk.ContributingFactors)
	if len(factors) != 1 || factors[0] != "High systolic BP (145 mmHg) - Stage 2 Hypertension" {
		t.Fatalf("unexpected factors: %v", factors)
	}
}

func TestAssessNormalSystolicScoresNothing(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{MetricSystolicBP: 118}))
	if findRisk(risks, RiskHypertension) != nil {
		t.Fatal("expected no hypertension risk at 118 mmHg")
	}
}

func TestAssessHeartDiseaseModerate(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{MetricTotalCholesterol: 210}))
	risk := findRisk(risks, RiskHeartDisease)
	if risk == nil {
		t.Fatal("expected a heart disease risk")
	}
	if risk.RiskScore != 40 {
		t.Fatalf("expected score 40, got %g", risk.RiskScore)
	}
	if risk.RiskLevel != RiskModerate {
		t.Fatalf("expected MODERATE, got %s", risk.RiskLevel)
	}
	if risk.Description != "Heart disease risk assessment based on cholesterol and cardiovascular markers" {
		t.Fatalf("unexpected description: %s", risk.Description)
	}

	advice := decodeStrings(risk.Recommendations)
	if len(advice) != 3 {
		t.Fatalf("expected the lifestyle tier only, got %v", advice)
	}
	if advice[0] != "Follow heart-healthy diet (low saturated fat)" {
		t.Fatalf("unexpected first recommendation: %s", advice[0])
	}
}

func TestAssessHighBloodPressureRaisesHeartRisk(t *testing.T) {
	scorer := NewRiskScorer()

	risks := scorer.Assess("p1", latestValues(map[string]float64{MetricSystolicBP: 150}))
	risk := findRisk(risks, RiskHeartDisease)
	if risk == nil {
		t.Fatal("expected a heart disease risk from blood pressure")
	}
	if risk.RiskScore != 30 {
		t.Fatalf("expected score 30, got %g", risk.RiskScore)
	}
	factors := decodeStrings(risk.ContributingFactors)
	if len(factors) != 1 || factors[0] != "High blood pressure increases heart disease risk" {
		t.Fatalf("unexpected factors: %v", factors)
	}
	if advice := decodeStrings(risk.Recommendations); len(advice) != 0 {
		t.Fatalf("expected no recommendations below the 40-point tier, got %v", advice)
	}
}

func TestAssessEmptySeries(t *testing.T) {
	scorer := NewRiskScorer()
	if risks := scorer.Assess("p1", MetricSeries{}); len(risks) != 0 {
		t.Fatalf("expected no risks with no observations, got %d", len(risks))
	}
}
