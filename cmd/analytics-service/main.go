package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/reformhealth/platform/pkg/analytics"
	"github.com/reformhealth/platform/pkg/common/config"
	"github.com/reformhealth/platform/pkg/common/database"
	"github.com/reformhealth/platform/pkg/common/kafka"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/common/models"
	"github.com/reformhealth/platform/pkg/observability/metrics"
	"github.com/reformhealth/platform/pkg/records"
	"github.com/reformhealth/platform/pkg/reference"
)

func main() {
	logger.Init("analytics-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := analytics.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate analytics tables")
	}

	// The engine reads processed records directly; the records service owns
	// their schema and lifecycle.
	source := records.NewAnalyticsSource(records.NewRepository(db))

	ranges, err := reference.Load(cfg.ReferenceRangesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("failed to load reference ranges, using built-in catalog")
	}

	snapshot := analytics.NewSnapshotStore(database.GetRedis(), ranges, cfg.SnapshotTTL, cfg.ForecastCacheTTL)

	producer := kafka.NewProducer(kafka.TopicInsightsGenerated)
	defer producer.Close()

	dlq := kafka.NewProducer(kafka.TopicDeadLetter)
	defer dlq.Close()

	svc := analytics.NewService(source, repo, ranges, snapshot, producer, dlq, cfg.ForecastHorizonDays)
	handler := analytics.NewHTTPHandler(svc, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, "8082"),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": "8082",
		}).Info("Analytics Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	// Re-analyze a patient whenever one of their records finishes extraction.
	consumer := kafka.NewConsumer(kafka.TopicRecordsProcessed, cfg.KafkaGroupID+"-analytics")
	defer consumer.Close()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
			metrics.IncEventConsumed()
			if event.Type != models.EventRecordProcessed {
				metrics.IncEventSkipped()
				return nil
			}

			patientID, _ := event.Data[models.PatientIDKey].(string)
			if patientID == "" {
				metrics.IncEventSkipped()
				return nil
			}

			metrics.IncAnalysisRun()
			insights, err := svc.GenerateInsights(ctx, patientID)
			if err != nil {
				return fmt.Errorf("re-analyzing patient %s: %w", patientID, err)
			}
			metrics.AddInsightsCreated(len(insights))

			logger.Log.WithFields(map[string]interface{}{
				"patient_id": patientID,
				"insights":   len(insights),
			}).Info("Patient re-analyzed")
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("records consumer stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Analytics Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Analytics Service stopped")
}
