package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailhunt-engine/internal/config"
	"mailhunt-engine/internal/events"
	"mailhunt-engine/internal/pipeline"
)

func ingestDeps(run func(ctx context.Context, cfg config.Config, onProgress func(pipeline.Progress)) (pipeline.Result, error)) Deps {
	cfgVal := &atomic.Value{}
	cfgVal.Store(config.Config{})
	hub := events.NewHub()
	return Deps{
		Hub:    hub,
		CfgVal: cfgVal,
		Ingest: NewIngestHandler(cfgVal, hub, run),
	}
}

func waitNotRunning(t *testing.T, status *atomic.Value) IngestStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := status.Load().(IngestStatus)
		if !st.Running {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("ingest still running")
	return IngestStatus{}
}

func TestIngestRunUpdatesStatus(t *testing.T) {
	d := ingestDeps(func(ctx context.Context, cfg config.Config, onProgress func(pipeline.Progress)) (pipeline.Result, error) {
		onProgress(pipeline.Progress{Phase: pipeline.PhaseSaving, NewJobs: 3})
		return pipeline.Result{Found: 4, Saved: 3, Archived: 4}, nil
	})
	mux := NewMux(d)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/run", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	st := waitNotRunning(t, d.Ingest.Status)
	assert.Equal(t, 3, st.LastSaved)
	assert.Equal(t, 4, st.LastArchived)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.LastOkAt)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ingest/status", nil))
	var got IngestStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Running)
	assert.Equal(t, 3, got.NewJobs)
}

func TestIngestRunRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	d := ingestDeps(func(ctx context.Context, cfg config.Config, onProgress func(pipeline.Progress)) (pipeline.Result, error) {
		<-release
		return pipeline.Result{}, nil
	})
	mux := NewMux(d)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/run", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/run", nil))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["ok"])

	close(release)
	waitNotRunning(t, d.Ingest.Status)
}

func TestIngestCancelStopsRun(t *testing.T) {
	d := ingestDeps(func(ctx context.Context, cfg config.Config, onProgress func(pipeline.Progress)) (pipeline.Result, error) {
		<-ctx.Done()
		return pipeline.Result{Saved: 1, Cancelled: true}, nil
	})
	mux := NewMux(d)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/run", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/cancel", nil))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])

	st := waitNotRunning(t, d.Ingest.Status)
	assert.True(t, st.Cancelled)
	assert.Equal(t, 1, st.LastSaved)
}

func TestIngestCancelWhenIdle(t *testing.T) {
	d := ingestDeps(nil)
	mux := NewMux(d)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/cancel", nil))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["ok"])
}

func TestIngestRunMethodNotAllowed(t *testing.T) {
	d := ingestDeps(nil)
	mux := NewMux(d)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ingest/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
