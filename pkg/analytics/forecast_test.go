package analytics

import (
	"errors"
	"math"
	"testing"
)

func trendWithPoints(values ...float64) *Trend {
	points := make([]Observation, len(values))
	for i, v := range values {
		points[i] = Observation{Date: day(i * 30), Value: v, RecordID: "r"}
	}
	return &Trend{
		ID:         "t1",
		PatientID:  "p1",
		MetricName: MetricFastingBloodSugar,
		DataPoints: mustJSON(points),
	}
}

func TestProjectLinearSeries(t *testing.T) {
	forecaster := NewForecaster()

	predictions, err := forecaster.Project(trendWithPoints(10, 20, 30), 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(predictions))
	}

	wantValues := []float64{40, 50, 60}
	wantDays := []int{30, 60, 90}
	wantDates := []string{"2024-03-31", "2024-04-30", "2024-05-30"}
	for i, p := range predictions {
		if math.Abs(p.Value-wantValues[i]) > 1e-6 {
			t.Fatalf("prediction %d: expected value %g, got %g", i, wantValues[i], p.Value)
		}
		if p.DaysAhead != wantDays[i] {
			t.Fatalf("prediction %d: expected %d days ahead, got %d", i, wantDays[i], p.DaysAhead)
		}
		if p.Date != wantDates[i] {
			t.Fatalf("prediction %d: expected date %s, got %s", i, wantDates[i], p.Date)
		}
	}
}

func TestProjectRequiresThreePoints(t *testing.T) {
	forecaster := NewForecaster()

	_, err := forecaster.Project(trendWithPoints(10, 20), 90)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestProjectShortHorizon(t *testing.T) {
	forecaster := NewForecaster()

	predictions, err := forecaster.Project(trendWithPoints(10, 20, 30), 29)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if predictions == nil {
		t.Fatal("expected an empty prediction list, not nil")
	}
	if len(predictions) != 0 {
		t.Fatalf("expected no predictions under a 30-day horizon, got %d", len(predictions))
	}
}

func TestProjectPartialStep(t *testing.T) {
	forecaster := NewForecaster()

	// 100 days ahead still stops at the 90-day step.
	predictions, err := forecaster.Project(trendWithPoints(10, 20, 30), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(predictions))
	}
	if predictions[2].DaysAhead != 90 {
		t.Fatalf("expected last step at 90 days, got %d", predictions[2].DaysAhead)
	}
}

func TestProjectUnsortedPoints(t *testing.T) {
	forecaster := NewForecaster()

	trend := &Trend{
		ID:         "t1",
		PatientID:  "p1",
		MetricName: MetricFastingBloodSugar,
		DataPoints: mustJSON([]Observation{
			{Date: day(60), Value: 30, RecordID: "r3"},
			{Date: day(0), Value: 10, RecordID: "r1"},
			{Date: day(30), Value: 20, RecordID: "r2"},
		}),
	}

	predictions, err := forecaster.Project(trend, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(predictions))
	}
	if math.Abs(predictions[0].Value-40) > 1e-6 {
		t.Fatalf("expected 40, got %g", predictions[0].Value)
	}
	if predictions[0].Date != "2024-03-31" {
		t.Fatalf("expected date anchored at the latest observation, got %s", predictions[0].Date)
	}
}
