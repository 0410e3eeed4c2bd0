package analytics

import (
	"testing"

	"github.com/reformhealth/platform/pkg/reference"
)

func seriesOf(metric string, values ...float64) MetricSeries {
	points := make([]Observation, len(values))
	for i, v := range values {
		points[i] = Observation{Date: day(i * 7), Value: v, RecordID: recordID(i)}
	}
	return MetricSeries{metric: points}
}

func recordID(i int) string {
	return string(rune('a' + i))
}

func TestDetectFlagsOutlierOutsideRange(t *testing.T) {
	detector := NewAnomalyDetector(reference.DefaultCatalog())

	series := seriesOf(MetricFastingBloodSugar, 95, 96, 94, 95, 96, 94, 180)
	anomalies := detector.Detect(series)

	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(anomalies))
	}
	a := anomalies[0]
	if a.Metric != MetricFastingBloodSugar {
		t.Fatalf("expected metric %s, got %s", MetricFastingBloodSugar, a.Metric)
	}
	if a.Value != 180 {
		t.Fatalf("expected anomalous value 180, got %g", a.Value)
	}
	if a.ZScore <= 2 {
		t.Fatalf("expected z-score above 2, got %g", a.ZScore)
	}
	if a.RecordID != recordID(6) {
		t.Fatalf("expected the spike's record id, got %s", a.RecordID)
	}
}

func TestDetectIgnoresOutlierInsideRange(t *testing.T) {
	detector := NewAnomalyDetector(reference.DefaultCatalog())

	// 99 is a clear statistical outlier of this series but still inside the
	// 70-100 reference band.
	series := seriesOf(MetricFastingBloodSugar, 85, 86, 84, 85, 86, 84, 99)
	if anomalies := detector.Detect(series); len(anomalies) != 0 {
		t.Fatalf("expected no anomalies inside the reference band, got %d", len(anomalies))
	}
}

func TestDetectExcludesExactBoundaryZ(t *testing.T) {
	// 10,10,10,10,100: mean 28, population std 36, so the spike sits at
	// z == 2.0 exactly. The strict threshold keeps it out even though the
	// value is far outside the reference band.
	max := 20.0
	catalog := reference.Catalog{Ranges: map[string]reference.Range{
		"Custom Index": {Max: &max},
	}}
	detector := NewAnomalyDetector(catalog)

	series := seriesOf("Custom Index", 10, 10, 10, 10, 100)
	if anomalies := detector.Detect(series); len(anomalies) != 0 {
		t.Fatalf("expected no anomalies at the z threshold, got %d", len(anomalies))
	}
}

func TestDetectIgnoresUncatalogedMetric(t *testing.T) {
	detector := NewAnomalyDetector(reference.DefaultCatalog())

	series := seriesOf("Custom Index", 1, 1, 1, 1, 1, 1, 100)
	if anomalies := detector.Detect(series); len(anomalies) != 0 {
		t.Fatalf("expected no anomalies without a reference band, got %d", len(anomalies))
	}
}

func TestDetectRequiresTwoPoints(t *testing.T) {
	detector := NewAnomalyDetector(reference.DefaultCatalog())

	series := seriesOf(MetricFastingBloodSugar, 500)
	if anomalies := detector.Detect(series); len(anomalies) != 0 {
		t.Fatalf("expected no anomalies for a single observation, got %d", len(anomalies))
	}
}
