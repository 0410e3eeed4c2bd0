package analytics

import (
	"math"

	"github.com/reformhealth/platform/pkg/reference"
)

// AnomalyDetector flags observations that are both statistical outliers
// within their own series and outside the clinical reference band. Either
// condition alone is not reportable: a spike inside the band is noise, and a
// consistently-out-of-band series is a trend, not an anomaly.
type AnomalyDetector struct {
	ranges reference.Catalog
}

func NewAnomalyDetector(ranges reference.Catalog) *AnomalyDetector {
	return &AnomalyDetector{ranges: ranges}
}

// Detect scans every metric with at least two observations. Pure function:
// persistence of findings belongs to the insight generator.
func (d *AnomalyDetector) Detect(series MetricSeries) []Anomaly {
	var anomalies []Anomaly

	for _, metric := range series.MetricNames() {
		points := series[metric]
		if len(points) < 2 {
			continue
		}

		mean, std := meanStd(points)
		normalRange, _ := d.ranges.Lookup(metric)

		for _, p := range points {
			z := math.Abs(p.Value-mean) / (std + epsilon)
			if z <= 2 {
				continue
			}
			if !normalRange.Outside(p.Value) {
				continue
			}
			anomalies = append(anomalies, Anomaly{
				Metric:      metric,
				Value:       p.Value,
				Date:        p.Date,
				RecordID:    p.RecordID,
				ZScore:      z,
				NormalRange: normalRange,
			})
		}
	}

	return anomalies
}

// meanStd returns the mean and population standard deviation of a series.
func meanStd(points []Observation) (float64, float64) {
	n := float64(len(points))
	var sum float64
	for _, p := range points {
		sum += p.Value
	}
	mean := sum / n

	var sq float64
	for _, p := range points {
		d := p.Value - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}
