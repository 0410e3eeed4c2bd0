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

	"github.com/reformhealth/platform/pkg/common/config"
	"github.com/reformhealth/platform/pkg/common/database"
	"github.com/reformhealth/platform/pkg/common/kafka"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/notification"
	"github.com/reformhealth/platform/pkg/observability/metrics"
)

// The inbox listens on every topic that carries patient-facing events.
var topics = []string{
	kafka.TopicRecordsProcessed,
	kafka.TopicRecordsShared,
	kafka.TopicClaimsUpdated,
	kafka.TopicInsightsGenerated,
}

func main() {
	logger.Init("notification-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := notification.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate notification tables")
	}

	svc := notification.NewService(repo)
	handler := notification.NewHTTPHandler(svc)

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
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, "8085"),
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
			"port": "8085",
		}).Info("Notification Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	for _, topic := range topics {
		consumer := kafka.NewConsumer(topic, cfg.KafkaGroupID+"-notifications")
		defer consumer.Close()

		go func(topic string, consumer *kafka.Consumer) {
			logger.Log.WithField("topic", topic).Info("Consuming events")
			if err := consumer.Consume(ctx, svc.HandleEvent); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).WithField("topic", topic).Error("consumer stopped")
			}
		}(topic, consumer)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Notification Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Notification Service stopped")
}
