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

	"github.com/reformhealth/platform/pkg/audit"
	"github.com/reformhealth/platform/pkg/common/config"
	"github.com/reformhealth/platform/pkg/common/database"
	"github.com/reformhealth/platform/pkg/common/kafka"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/observability/metrics"
	"github.com/reformhealth/platform/pkg/records"
)

const reprocessOlderThan = 10 * time.Minute

func main() {
	logger.Init("records-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	repo := records.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate records tables")
	}

	auditRepo := audit.NewRepository(db)
	if err := auditRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate audit tables")
	}
	auditor := audit.NewAuditor(auditRepo)

	producer := kafka.NewProducer(kafka.TopicRecordsProcessed)
	defer producer.Close()

	shareProducer := kafka.NewProducer(kafka.TopicRecordsShared)
	defer shareProducer.Close()

	dlq := kafka.NewProducer(kafka.TopicDeadLetter)
	defer dlq.Close()

	validator := records.NewValidator(nil)
	svc := records.NewService(validator, repo, producer, shareProducer, dlq, auditor, cfg.ReprocessWorkers)
	handler := records.NewHTTPHandler(svc, cfg.MaxRequestBody)

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
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, "8081"),
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
			"port": "8081",
		}).Info("Records Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.ReprocessInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := svc.ReprocessStuck(context.Background(), reprocessOlderThan, 50)
				if err != nil {
					logger.Log.WithError(err).Warn("reprocess sweep failed")
					continue
				}
				metrics.AddRecordsReprocessed(n)
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.ShareSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := svc.ExpireOverdueShares(context.Background()); err != nil {
					logger.Log.WithError(err).Warn("share expiry sweep failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Records Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Records Service stopped")
}
