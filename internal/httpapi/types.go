package httpapi

// IngestStatus is the externally visible state of the ingest pipeline,
// kept in an atomic.Value so status reads never block a running ingest.
type IngestStatus struct {
	Running      bool   `json:"running"`
	Phase        string `json:"phase"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	Message      string `json:"message"`
	NewJobs      int    `json:"new_jobs"`
	LastRunAt    string `json:"last_run_at"`
	LastOkAt     string `json:"last_ok_at"`
	LastError    string `json:"last_error"`
	LastSaved    int    `json:"last_saved"`
	LastArchived int    `json:"last_archived"`
	Cancelled    bool   `json:"cancelled"`
}
