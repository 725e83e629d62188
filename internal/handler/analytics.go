package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/josh-kwaku/khata/internal/analytics"
	"github.com/josh-kwaku/khata/internal/logging"
	"github.com/josh-kwaku/khata/internal/stream"
)

const (
	defaultReadyWait   = 3 * time.Second
	heartbeatInterval  = 15 * time.Second
	dashboardEventName = "dashboard"
)

type AnalyticsHandler struct {
	pipeline  *analytics.Pipeline
	readyWait time.Duration
	heartbeat time.Duration

	closing   chan struct{}
	closeOnce sync.Once
}

func NewAnalyticsHandler(pipeline *analytics.Pipeline) *AnalyticsHandler {
	return &AnalyticsHandler{
		pipeline:  pipeline,
		readyWait: defaultReadyWait,
		heartbeat: heartbeatInterval,
		closing:   make(chan struct{}),
	}
}

// Shutdown ends every open event stream. Register it with
// http.Server.RegisterOnShutdown: streams never go idle, so Shutdown would
// otherwise wait on them until its deadline.
func (h *AnalyticsHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.closing) })
}

func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	respondLive(w, r, h.pipeline.Overview, h.readyWait, toOverviewDTO)
}

func (h *AnalyticsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	respondLive(w, r, h.pipeline.Distribution, h.readyWait, toDistributionDTO)
}

func (h *AnalyticsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	respondLive(w, r, h.pipeline.Trend, h.readyWait, toTrendDTO)
}

func (h *AnalyticsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	respondLive(w, r, h.pipeline.WeeklyFlow, h.readyWait, toWeeklyDTO)
}

// Stream pushes the dashboard as Server-Sent Events: one "dashboard" event
// per recomputation, with comment heartbeats in between.
func (h *AnalyticsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	rc := http.NewResponseController(w)

	// The server's write timeout would otherwise cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Error("event stream not supported by response writer", "error", err)
		return
	}

	updates := h.pipeline.Dashboard.Subscribe(r.Context())
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.closing:
			return
		case live, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(toLiveDTO(live, toDashboardDTO))
			if err != nil {
				log.Error("failed to encode dashboard event", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", dashboardEventName, payload); err != nil {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// respondLive answers with the current value of src, waiting briefly for the
// first computation after startup.
func respondLive[A, B any](w http.ResponseWriter, r *http.Request, src stream.Source[analytics.Live[A]], wait time.Duration, convert func(A) B) {
	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()

	live, ok := <-src.Subscribe(ctx)
	if !ok {
		RespondAppError(w, ErrNotReady, nil)
		return
	}

	if live.Stale {
		w.Header().Set("Warning", `110 - "Response is Stale"`)
	}
	RespondSuccess(w, http.StatusOK, toLiveDTO(live, convert))
}
