package analytics

import (
	"errors"
	"sort"
	"time"

	"github.com/reformhealth/platform/pkg/ml/linear"
)

// ErrInsufficientData marks series too short to fit a projection. It is a
// caller condition, not a fault: the API layer answers it with a 400, never
// a 500.
var ErrInsufficientData = errors.New("not enough data for prediction")

// forecastStepDays is the projection interval. Predictions land on every
// multiple of it up to and including the horizon.
const forecastStepDays = 30

// DefaultForecastHorizonDays is used when the caller does not state one.
const DefaultForecastHorizonDays = 90

// Forecaster projects a trend's fitted line into the future. Unlike the
// trend direction fit, which works over index positions, the projection is
// fitted over calendar days so unevenly spaced observations weigh correctly.
type Forecaster struct{}

func NewForecaster() *Forecaster {
	return &Forecaster{}
}

// Project fits value against days-since-first-observation and evaluates the
// line every 30 days after the last observation, up to the horizon. A horizon
// under 30 days yields an empty projection, which is a valid answer; fewer
// than three observations yields ErrInsufficientData.
func (f *Forecaster) Project(trend *Trend, daysAhead int) ([]Prediction, error) {
	points := trend.Points()
	if len(points) < 3 {
		return nil, ErrInsufficientData
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	first := points[0].Date
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = daysBetween(first, p.Date)
		ys[i] = p.Value
	}

	line := linear.FitLine(xs, ys)
	last := points[len(points)-1].Date

	predictions := make([]Prediction, 0, daysAhead/forecastStepDays)
	for ahead := forecastStepDays; ahead <= daysAhead; ahead += forecastStepDays {
		futureDate := last.AddDate(0, 0, ahead)
		predictions = append(predictions, Prediction{
			Date:      futureDate.Format("2006-01-02"),
			Value:     line.At(daysBetween(first, futureDate)),
			DaysAhead: ahead,
		})
	}

	return predictions, nil
}

// daysBetween counts whole days from a to b. Record dates are date-valued,
// so the hour component never matters.
func daysBetween(a, b time.Time) float64 {
	return float64(int(b.Sub(a).Hours() / 24))
}
