package domain

import "time"

// Source names as stored in the jobs table.
const (
	SourceLinkedIn  = "linkedin"
	SourceIndeed    = "indeed"
	SourceGlassdoor = "glassdoor"
	SourceGeneric   = "email"
)

// UnknownCompany is the sentinel used when a parser cannot determine
// the company behind a posting.
const UnknownCompany = "Unknown"

// ExtractedJob is one job posting pulled out of a single alert email.
// Title and URL are required; everything else is best-effort.
type ExtractedJob struct {
	Title    string
	Company  string
	Location string
	URL      string
	Source   string
	Type     string
	Tags     []string
}

// IngestCandidate is an ExtractedJob tied back to the email it came from.
// This is the unit handed to the store.
type IngestCandidate struct {
	ExtractedJob
	EmailID      string
	DateReceived time.Time
}
