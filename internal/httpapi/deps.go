package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"mailhunt-engine/internal/config"
	"mailhunt-engine/internal/events"
	"mailhunt-engine/internal/pipeline"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// Built by main so the background poll can share its Trigger
	Ingest *IngestHandler
}

// NewIngestHandler wires the ingest control surface. run is injected so
// tests never touch IMAP.
func NewIngestHandler(
	cfgVal *atomic.Value,
	hub *events.Hub,
	run func(ctx context.Context, cfg config.Config, onProgress func(pipeline.Progress)) (pipeline.Result, error),
) *IngestHandler {
	status := &atomic.Value{}
	status.Store(IngestStatus{})
	return &IngestHandler{
		CfgVal: cfgVal,
		Status: status,
		Hub:    hub,
		Run:    run,
	}
}
