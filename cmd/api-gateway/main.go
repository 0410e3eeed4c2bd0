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
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/gateway/auth"
	"github.com/reformhealth/platform/pkg/gateway/httpclient"
	"github.com/reformhealth/platform/pkg/gateway/middleware"
	"github.com/reformhealth/platform/pkg/gateway/routes"
	"github.com/reformhealth/platform/pkg/observability/metrics"
)

func main() {
	logger.Init("api-gateway")
	cfg := config.Load()

	proxy := routes.NewProxy(httpclient.New(cfg.GatewayRequestTimeout), cfg)

	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORS)
	router.Use(middleware.RateLimit(cfg.GatewayRateLimitRPS, cfg.GatewayRateLimitBurst))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	if cfg.GatewayRequireAuth {
		tokens, err := auth.NewJWTManager(cfg.SessionSecret, cfg.TokenIssuer, cfg.TokenAudience, cfg.SessionTokenTTL)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to configure session validation")
		}
		router.Use(middleware.Authenticate(tokens))
	} else {
		logger.Log.Warn("Gateway running without session authentication")
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	routes.RegisterIdentityRoutes(api, proxy)
	routes.RegisterRecordRoutes(api, proxy)
	routes.RegisterAnalyticsRoutes(api, proxy)
	routes.RegisterInsuranceRoutes(api, proxy)
	routes.RegisterNotificationRoutes(api, proxy)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("API Gateway started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down API Gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("API Gateway stopped")
}
