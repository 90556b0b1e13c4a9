// Package health reports liveness of the server and its dependencies.
package health

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/dinaypatil-web/ReadFlow/internal/provider"
	"github.com/dinaypatil-web/ReadFlow/internal/storage"
)

type Handler struct {
	adapter   storage.Adapter
	providers *provider.Providers
	startedAt time.Time
}

func NewHandler(adapter storage.Adapter, providers *provider.Providers) *Handler {
	return &Handler{
		adapter:   adapter,
		providers: providers,
		startedAt: time.Now(),
	}
}

type statusResponse struct {
	Status      string `json:"status"`
	UptimeSec   int64  `json:"uptimeSec"`
	Storage     string `json:"storage"`
	Synthesizer string `json:"synthesizer"`
	Extractor   string `json:"extractor"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := statusResponse{
		Status:      "ok",
		UptimeSec:   int64(time.Since(h.startedAt).Seconds()),
		Storage:     "ok",
		Synthesizer: h.providers.Synthesizer.Name(),
		Extractor:   h.providers.Extractor.Name(),
	}

	status := http.StatusOK
	if _, err := h.adapter.Exists(ctx, "healthcheck"); err != nil {
		log.Printf("[Health] Storage check failed: %v", err)
		resp.Status = "degraded"
		resp.Storage = err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
