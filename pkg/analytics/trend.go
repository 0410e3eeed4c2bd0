package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/reformhealth/platform/pkg/ml/linear"
	"github.com/reformhealth/platform/pkg/reference"
)

// epsilon guards divisions over flat series.
const epsilon = 1e-10

// Direction cutoffs on the normalized slope. The band between them absorbs
// measurement noise; values were tuned against real lab series and must not
// drift between deployments.
const (
	directionThreshold = 0.05
)

// TrendCalculator derives the per-metric trend projection. The reference
// catalog is injected so tests and deployments can swap range tables without
// touching the calculator.
type TrendCalculator struct {
	ranges reference.Catalog
}

func NewTrendCalculator(ranges reference.Catalog) *TrendCalculator {
	return &TrendCalculator{ranges: ranges}
}

// Calculate computes the trend for one metric's observations. Fewer than two
// points is not an error, there is just no trend to speak of: the caller gets
// nil and moves on.
func (c *TrendCalculator) Calculate(patientID, metricName string, points []Observation) *Trend {
	if len(points) < 2 {
		return nil
	}

	sorted := make([]Observation, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	values := make([]float64, len(sorted))
	for i, p := range sorted {
		values[i] = p.Value
	}

	current := values[len(values)-1]
	var sum float64
	minValue, maxValue := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < minValue {
			minValue = v
		}
		if v > maxValue {
			maxValue = v
		}
	}
	average := sum / float64(len(values))

	slope := linear.FitIndexed(values).Slope
	strength := slope / (maxValue - minValue + epsilon)

	direction := TrendStable
	if strength > directionThreshold {
		direction = TrendIncreasing
	} else if strength < -directionThreshold {
		direction = TrendDecreasing
	}

	change := 0.0
	if first := values[0]; first != 0 {
		change = (current - first) / first * 100
	}

	trend := &Trend{
		ID:               uuid.New().String(),
		PatientID:        patientID,
		MetricName:       metricName,
		DataPoints:       mustJSON(sorted),
		TrendDirection:   direction,
		TrendStrength:    strength,
		CurrentValue:     current,
		AverageValue:     average,
		MinValue:         minValue,
		MaxValue:         maxValue,
		ChangePercentage: change,
		LastUpdated:      time.Now().UTC(),
	}

	if r, ok := c.ranges.Lookup(metricName); ok {
		trend.MetricUnit = r.Unit
		if r.Min != nil {
			v := *r.Min
			trend.NormalRangeMin = &v
		}
		if r.Max != nil {
			v := *r.Max
			trend.NormalRangeMax = &v
		}
	}

	return trend
}
