package parse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/textutil"
)

const linkedInMinTitle = 3

var (
	reLinkedInJobID = regexp.MustCompile(`/jobs/view/(\d+)`)

	// Badge/metadata text that must never become a title or company.
	reLinkedInNoise = regexp.MustCompile(
		`(?i)easy apply|actively recruiting|promoted|viewed|applicants|` +
			`\d+\s+(?:connections?|alumni)|school alum`)
)

// LinkedIn job alerts render each posting as several anchors that all link
// to the same /jobs/view/<id> URL (logo, title, metadata). Scanning per
// link double-counts, so anchors are grouped by job id first and fields
// are picked per group.
type LinkedIn struct{}

func (LinkedIn) Name() string { return domain.SourceLinkedIn }

func (LinkedIn) CanParse(sender string) bool {
	return strings.Contains(sender, "linkedin.com")
}

func (LinkedIn) Parse(doc *goquery.Document) []domain.ExtractedJob {
	type jobGroup struct {
		url     string
		anchors []*goquery.Selection
	}

	order := []string{}
	groups := map[string]*jobGroup{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		m := reLinkedInJobID.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		g, ok := groups[id]
		if !ok {
			g = &jobGroup{url: href}
			groups[id] = g
			order = append(order, id)
		}
		g.anchors = append(g.anchors, a)
	})

	out := make([]domain.ExtractedJob, 0, len(order))
	for _, id := range order {
		g := groups[id]
		j := domain.ExtractedJob{URL: g.url}

		for _, a := range g.anchors {
			// Title lives in the anchor with no nested paragraphs; anchors
			// that wrap the metadata block contain <p> children.
			if j.Title == "" && a.Find("p").Length() == 0 {
				t := textutil.CleanText(a.Text())
				if len(t) >= linkedInMinTitle && !reLinkedInNoise.MatchString(t) {
					j.Title = t
				}
			}

			card := a.Closest("table")
			if card.Length() == 0 {
				card = a.Closest("tr")
			}
			if card.Length() == 0 {
				card = a.Parent()
			}

			card.Find("p").Each(func(_ int, p *goquery.Selection) {
				t := textutil.CleanText(p.Text())
				if t == "" || reLinkedInNoise.MatchString(t) {
					return
				}
				if j.Company == "" && strings.Contains(t, " · ") {
					parts := strings.SplitN(t, " · ", 2)
					j.Company = strings.TrimSpace(parts[0])
					j.Location = strings.TrimSpace(parts[1])
				}
			})
		}

		if len(j.Title) >= linkedInMinTitle {
			out = append(out, j)
		}
	}
	return out
}
