package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "analytics.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	repo := NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func testTrend(patientID string, value float64) *Trend {
	now := time.Now().UTC()
	return &Trend{
		ID:           uuid.New().String(),
		PatientID:    patientID,
		MetricName:   MetricHbA1c,
		MetricUnit:   "%",
		DataPoints:   mustJSON([]Observation{{Date: now, Value: value, RecordID: "r1"}}),
		CurrentValue: value,
		AverageValue: value,
		MinValue:     value,
		MaxValue:     value,
		LastUpdated:  now,
	}
}

func TestUpsertTrendReplacesInPlace(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := testTrend("p1", 6.1)
	if err := repo.UpsertTrend(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	created, err := repo.GetTrendByMetric(ctx, "p1", MetricHbA1c)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}

	second := testTrend("p1", 7.4)
	if err := repo.UpsertTrend(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	trends, err := repo.ListTrends(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trends) != 1 {
		t.Fatalf("expected 1 trend after recomputation, got %d", len(trends))
	}
	if trends[0].ID != created.ID {
		t.Errorf("row identity changed: got %s, want %s", trends[0].ID, created.ID)
	}
	if !trends[0].CreatedAt.Truncate(time.Second).Equal(created.CreatedAt.Truncate(time.Second)) {
		t.Errorf("created_at changed: got %v, want %v", trends[0].CreatedAt, created.CreatedAt)
	}
	if trends[0].CurrentValue != 7.4 {
		t.Errorf("current_value = %v, want 7.4", trends[0].CurrentValue)
	}
	if second.ID != created.ID {
		t.Errorf("upsert did not adopt existing ID: got %s", second.ID)
	}
}

func TestAppendInsightAccumulates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		insight := &Insight{
			ID:        uuid.New().String(),
			PatientID: "p1",
			Type:      InsightRisk,
			Title:     "Elevated Diabetes Risk",
			Severity:  SeverityHigh,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := repo.AppendInsight(ctx, insight); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	insights, err := repo.ListInsights(ctx, "p1", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(insights) != 2 {
		t.Errorf("expected 2 insight rows after two generations, got %d", len(insights))
	}
}
