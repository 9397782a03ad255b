package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/textutil"
)

// Parser extracts job postings from one alert email's HTML body.
// Parse never fails: malformed markup just yields fewer records.
type Parser interface {
	Name() string
	CanParse(sender string) bool
	Parse(doc *goquery.Document) []domain.ExtractedJob
}

// Registry dispatches a message to the first parser whose sender
// predicate matches, in fixed priority order, else the generic fallback.
// Exactly one parser processes a given message.
type Registry struct {
	parsers  []Parser
	fallback Parser
}

func NewRegistry() *Registry {
	return &Registry{
		parsers:  []Parser{LinkedIn{}, Indeed{}, Glassdoor{}},
		fallback: Generic{},
	}
}

// For returns the parser responsible for a sender address.
func (r *Registry) For(sender string) Parser {
	for _, p := range r.parsers {
		if p.CanParse(sender) {
			return p
		}
	}
	return r.fallback
}

// Extract runs the matching parser over the HTML body and normalizes the
// results. An unparseable body is not an error, just zero records.
func (r *Registry) Extract(fromHeader, htmlBody string) []domain.ExtractedJob {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	p := r.For(SenderAddress(fromHeader))

	out := make([]domain.ExtractedJob, 0)
	for _, j := range p.Parse(doc) {
		j.Title = textutil.CleanText(j.Title)
		j.URL = textutil.CanonicalizeURL(j.URL)
		if j.Title == "" || j.URL == "" {
			continue
		}
		j.Company = textutil.CleanText(j.Company)
		if j.Company == "" {
			j.Company = domain.UnknownCompany
		}
		j.Location = textutil.CleanText(j.Location)
		j.Source = p.Name()
		j.Type = textutil.InferJobType(j.Title)
		j.Tags = textutil.InferTags(j.Title + " " + j.Location)
		out = append(out, j)
	}
	return out
}

// SenderAddress pulls the bracketed email address out of a From header
// ("Jane Doe <jobs@example.com>" -> "jobs@example.com"), falling back to
// the raw header. Always lowercased.
func SenderAddress(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			from = from[i+1 : i+j]
		}
	}
	return strings.ToLower(strings.TrimSpace(from))
}
