package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reformhealth/platform/pkg/reference"
)

// SnapshotStore materializes hot per-patient analytics to Redis: the latest
// observed value of every metric, and recently served forecasts. Reads fall
// back to empty on a miss so callers never block on the cache.
type SnapshotStore struct {
	client      *redis.Client
	ranges      reference.Catalog
	vitalsTTL   time.Duration
	forecastTTL time.Duration
}

func NewSnapshotStore(client *redis.Client, ranges reference.Catalog, vitalsTTL, forecastTTL time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client:      client,
		ranges:      ranges,
		vitalsTTL:   vitalsTTL,
		forecastTTL: forecastTTL,
	}
}

func vitalsKey(patientID string) string {
	return fmt.Sprintf("vitals:%s", patientID)
}

// forecastKey embeds the trend's last-updated stamp so a recomputed trend
// naturally invalidates every forecast served from its previous state.
func forecastKey(trend *Trend, daysAhead int) string {
	return fmt.Sprintf("forecast:%s:%d:%d", trend.ID, daysAhead, trend.LastUpdated.Unix())
}

// MaterializeVitals overwrites the patient's vitals snapshot with the most
// recent observation of each metric in the series.
func (s *SnapshotStore) MaterializeVitals(ctx context.Context, patientID string, series MetricSeries) error {
	vitals := make(map[string]LatestVital, len(series))
	for _, name := range series.MetricNames() {
		obs, ok := series.Latest(name)
		if !ok {
			continue
		}
		vital := LatestVital{Value: obs.Value, Date: obs.Date}
		if rng, ok := s.ranges.Lookup(name); ok {
			vital.Unit = rng.Unit
		}
		vitals[name] = vital
	}

	data, err := json.Marshal(vitals)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, vitalsKey(patientID), data, s.vitalsTTL).Err()
}

// LatestVitals returns the cached snapshot, or an empty map when none exists.
func (s *SnapshotStore) LatestVitals(ctx context.Context, patientID string) (map[string]LatestVital, error) {
	data, err := s.client.Get(ctx, vitalsKey(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return map[string]LatestVital{}, nil
	}
	if err != nil {
		return nil, err
	}

	var vitals map[string]LatestVital
	if err := json.Unmarshal(data, &vitals); err != nil {
		return nil, err
	}
	return vitals, nil
}

// CachedForecast returns the forecast previously served for this trend state
// and horizon. The second return reports whether the cache held an entry.
func (s *SnapshotStore) CachedForecast(ctx context.Context, trend *Trend, daysAhead int) ([]Prediction, bool, error) {
	data, err := s.client.Get(ctx, forecastKey(trend, daysAhead)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var predictions []Prediction
	if err := json.Unmarshal(data, &predictions); err != nil {
		return nil, false, err
	}
	return predictions, true, nil
}

func (s *SnapshotStore) CacheForecast(ctx context.Context, trend *Trend, daysAhead int, predictions []Prediction) error {
	data, err := json.Marshal(predictions)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, forecastKey(trend, daysAhead), data, s.forecastTTL).Err()
}
