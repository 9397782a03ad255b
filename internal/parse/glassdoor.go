package parse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/textutil"
)

const glassdoorMinTitle = 3

var (
	reGlassdoorBold   = regexp.MustCompile(`font-weight:\s*(?:bold|bolder|[6-9]00)`)
	reGlassdoorRating = regexp.MustCompile(`^\d\.\d\s*★?$`)
	reGlassdoorSalary = regexp.MustCompile(`(?i)[$€£]\s?\d|per\s+(?:hour|year)|/\s*(?:hr|yr|hour|year)\b`)
)

// Glassdoor alert markup carries no semantic classes; the title paragraph
// is the one styled bold inline, and the remaining paragraphs have to be
// classified by content (rating token, salary phrase, badge) rather than
// by style.
type Glassdoor struct{}

func (Glassdoor) Name() string { return domain.SourceGlassdoor }

func (Glassdoor) CanParse(sender string) bool {
	return strings.Contains(sender, "glassdoor.com")
}

func (Glassdoor) Parse(doc *goquery.Document) []domain.ExtractedJob {
	out := make([]domain.ExtractedJob, 0)
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !isGlassdoorJobHref(href) {
			return
		}

		key := textutil.CanonicalizeURL(href)
		if _, dup := seen[key]; dup {
			return
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("td")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}

		j := parseGlassdoorCard(card)
		if len(j.Title) < glassdoorMinTitle {
			return
		}
		j.URL = href
		seen[key] = struct{}{}
		out = append(out, j)
	})
	return out
}

func isGlassdoorJobHref(href string) bool {
	h := strings.ToLower(href)
	if !strings.Contains(h, "glassdoor.com") {
		return false
	}
	return strings.Contains(h, "job-listing") ||
		strings.Contains(h, "joblisting") ||
		strings.Contains(h, "/partner/") ||
		strings.Contains(h, "jl=")
}

func parseGlassdoorCard(card *goquery.Selection) domain.ExtractedJob {
	var j domain.ExtractedJob
	var rest []string

	card.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := textutil.CleanText(p.Text())
		if t == "" {
			return
		}

		style, _ := p.Attr("style")
		if j.Title == "" && reGlassdoorBold.MatchString(strings.ToLower(style)) {
			j.Title = t
			return
		}

		// Everything that isn't the bold title is classified by content.
		if reGlassdoorRating.MatchString(t) {
			return
		}
		if reGlassdoorSalary.MatchString(t) {
			return
		}
		if strings.Contains(strings.ToLower(t), "easy apply") {
			return
		}
		rest = append(rest, t)
	})

	if len(rest) > 0 {
		j.Company = rest[0]
	}
	if len(rest) > 1 {
		j.Location = rest[1]
	}
	return j
}
