package httpapi

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"mailhunt-engine/internal/config"
	"mailhunt-engine/internal/events"
	"mailhunt-engine/internal/pipeline"
)

type IngestHandler struct {
	CfgVal *atomic.Value // config.Config
	Status *atomic.Value // httpapi.IngestStatus
	Hub    *events.Hub
	Run    func(ctx context.Context, cfg config.Config, onProgress func(pipeline.Progress)) (pipeline.Result, error)

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (h *IngestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Status.Load().(IngestStatus))
}

func (h *IngestHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	if !h.Trigger(RequestIDFrom(r.Context())) {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// Trigger starts a run unless one is already in flight. It is shared by
// the HTTP route and the background poll.
func (h *IngestHandler) Trigger(reqID string) bool {
	h.mu.Lock()
	st := h.Status.Load().(IngestStatus)
	if st.Running {
		h.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.Status.Store(IngestStatus{
		Running:   true,
		Phase:     string(pipeline.PhaseListing),
		LastRunAt: time.Now().Format(time.RFC3339),
		LastOkAt:  st.LastOkAt,
	})
	h.mu.Unlock()

	go h.runAsync(ctx, reqID)
	return true
}

func (h *IngestHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	cancel := h.cancel
	h.mu.Unlock()

	if cancel == nil || !h.Status.Load().(IngestStatus).Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "not running"})
		return
	}
	cancel()
	writeJSON(w, map[string]any{"ok": true})
}

func (h *IngestHandler) runAsync(ctx context.Context, reqID string) {
	defer func() {
		h.mu.Lock()
		h.cancel = nil
		h.mu.Unlock()
	}()

	cfg := h.CfgVal.Load().(config.Config)
	res, err := h.Run(ctx, cfg, func(p pipeline.Progress) {
		next := h.Status.Load().(IngestStatus)
		next.Phase = string(p.Phase)
		next.Current = p.Current
		next.Total = p.Total
		next.Message = p.Message
		next.NewJobs = p.NewJobs
		h.Status.Store(next)
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeIngestProgress, 1, p))
	})

	now := time.Now().Format(time.RFC3339)
	next := h.Status.Load().(IngestStatus)
	next.Running = false
	next.LastRunAt = now
	next.LastSaved = res.Saved
	next.LastArchived = res.Archived
	next.Cancelled = res.Cancelled
	if err != nil {
		next.LastError = err.Error()
	} else {
		next.LastError = ""
		next.LastOkAt = now
	}
	h.Status.Store(next)

	if res.Saved > 0 {
		h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobsChanged, 1, map[string]any{"new": res.Saved}))
	}
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeIngestDone, 1, next))
}
