package routes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/reformhealth/platform/pkg/common/config"
	"github.com/reformhealth/platform/pkg/common/logger"
	"github.com/reformhealth/platform/pkg/gateway/httpclient"
)

// Proxy forwards gateway requests to the backing services. Routes are
// registered per service; every route shares the same forwarding path.
type Proxy struct {
	Client *http.Client
	Cfg    *config.Config
}

func NewProxy(client *http.Client, cfg *config.Config) *Proxy {
	if client == nil || cfg == nil {
		panic("gateway proxy requires client and config")
	}
	return &Proxy{Client: client, Cfg: cfg}
}

// passthrough forwards the request as-is (method, path, query, body, headers)
// to the service behind baseURL. The inbound body is buffered so transient
// failures can be retried with a replayed body.
func (p *Proxy) passthrough(baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corrID := r.Header.Get("X-Request-ID")
		if corrID == "" {
			corrID = uuid.New().String()
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		url := baseURL + r.URL.Path
		if r.URL.RawQuery != "" {
			url += "?" + r.URL.RawQuery
		}

		ctx, cancel := context.WithTimeout(r.Context(), p.Cfg.GatewayRequestTimeout)
		defer cancel()

		resp, err := httpclient.DoWithRetry(ctx, p.Client, 3, 200*time.Millisecond, func() (*http.Request, error) {
			outReq, err := http.NewRequestWithContext(ctx, r.Method, url, bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			for k, v := range r.Header {
				outReq.Header[k] = v
			}
			outReq.Header.Set("X-Request-ID", corrID)
			return outReq, nil
		})
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"url":        url,
				"request_id": corrID,
			}).Error("Failed to forward request")
			http.Error(w, "upstream service unavailable", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for k, v := range resp.Header {
			w.Header()[k] = v
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Log.WithError(err).Warn("Failed to stream upstream response")
		}

		logger.Log.WithFields(map[string]interface{}{
			"url":        url,
			"status":     resp.StatusCode,
			"request_id": corrID,
		}).Info("Forwarded request")
	}
}
