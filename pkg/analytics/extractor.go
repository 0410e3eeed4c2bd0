package analytics

import (
	"encoding/json"
	"sort"
)

// ExtractMetrics flattens the extracted values of processed records into one
// dated series per metric. Input records must be ordered by record date
// ascending; the per-metric ordering follows from it. Non-numeric entries are
// dropped without comment: upstream extraction is OCR-based and noisy, and a
// value that is not a number is simply not an observation.
func ExtractMetrics(records []SourceRecord) MetricSeries {
	series := make(MetricSeries)

	for _, rec := range records {
		for metric, raw := range rec.ExtractedValues {
			value, ok := numeric(raw)
			if !ok {
				continue
			}
			series[metric] = append(series[metric], Observation{
				Date:     rec.RecordDate,
				Value:    value,
				RecordID: rec.ID,
			})
		}
	}

	return series
}

// MetricNames returns the series' metric names in a stable order so batch
// runs are deterministic.
func (s MetricSeries) MetricNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Latest returns the most recent observation of a metric. Ties on date keep
// the later entry, matching the order records were extracted in.
func (s MetricSeries) Latest(metric string) (Observation, bool) {
	points := s[metric]
	if len(points) == 0 {
		return Observation{}, false
	}
	latest := points[0]
	for _, p := range points[1:] {
		if !p.Date.Before(latest.Date) {
			latest = p
		}
	}
	return latest, true
}

func numeric(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		// Strings stay out even when they look numeric: the records parser
		// coerces those before values reach this point.
		return 0, false
	}
}
