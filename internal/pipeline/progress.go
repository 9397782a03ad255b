package pipeline

import "fmt"

// Phase names the stage an ingest run is currently in. They always occur
// in this order; archiving only runs when the request asks for it.
type Phase string

const (
	PhaseListing   Phase = "listing"
	PhaseFetching  Phase = "fetching"
	PhaseParsing   Phase = "parsing"
	PhaseSaving    Phase = "saving"
	PhaseArchiving Phase = "archiving"
	PhaseDone      Phase = "done"
)

// Progress is one report emitted during a run. Current/Total are
// phase-local counters; NewJobs is cumulative across the whole run.
type Progress struct {
	Phase   Phase  `json:"phase"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
	NewJobs int    `json:"newJobsCount"`
}

// PhaseError is a run-fatal failure tagged with the phase it happened in
// and the number of jobs already persisted, so partial progress survives
// the abort.
type PhaseError struct {
	Phase Phase
	Saved int
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v (saved %d)", e.Phase, e.Err, e.Saved)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Result is the terminal report of a run that did not fail. Cancelled
// runs are not errors; they carry whatever was saved before the stop.
type Result struct {
	Found     int  `json:"found"`
	Saved     int  `json:"saved"`
	Archived  int  `json:"archived"`
	Cancelled bool `json:"cancelled"`
}
