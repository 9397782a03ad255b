package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/textutil"
)

const (
	indeedMinTitle = 3
	// A card needs at least title, company, and one more block for the
	// structured walk to be trusted.
	indeedMinBlocks = 3
)

var (
	reIndeedSalary  = regexp.MustCompile(`\$\s?\d`)
	reIndeedDaysAgo = regexp.MustCompile(`(?i)\b\d+\+?\s*days?\s+ago\b|\bjust posted\b|\btoday\b`)
	reIndeedCityXX  = regexp.MustCompile(`([A-Z][a-z.'-]+(?: [A-Z][a-z.'-]+)*,\s*[A-Z]{2})\s*$`)
	reRegionCode    = regexp.MustCompile(`,\s*[A-Z]{2}\b`)
)

// Indeed digests wrap each posting in a single anchor around the whole
// card. Markup varies by campaign, so extraction is two-tier: walk the
// card's leaf text blocks when there are enough of them, otherwise fall
// back to splitting the anchor's flattened text on salary / "Easily
// apply" / relative-date markers.
type Indeed struct{}

func (Indeed) Name() string { return domain.SourceIndeed }

func (Indeed) CanParse(sender string) bool {
	return strings.Contains(sender, "indeed.com")
}

func (Indeed) Parse(doc *goquery.Document) []domain.ExtractedJob {
	out := make([]domain.ExtractedJob, 0)
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !isIndeedJobHref(href) {
			return
		}

		key := textutil.CanonicalizeURL(href)
		if _, dup := seen[key]; dup {
			return
		}

		j, ok := parseIndeedCard(a)
		if !ok {
			return
		}
		j.URL = href
		seen[key] = struct{}{}
		out = append(out, j)
	})
	return out
}

func isIndeedJobHref(href string) bool {
	h := strings.ToLower(href)
	if !strings.Contains(h, "indeed.com") {
		return false
	}
	return strings.Contains(h, "viewjob") ||
		strings.Contains(h, "/rc/clk") ||
		strings.Contains(h, "jk=") ||
		strings.Contains(h, "/pagead/")
}

func parseIndeedCard(a *goquery.Selection) (domain.ExtractedJob, bool) {
	if j, ok := indeedStructured(a); ok {
		return j, true
	}
	return indeedFlatSplit(textutil.CleanText(a.Text()))
}

// indeedStructured walks the card's child elements and keeps only the
// leaf-most text blocks: first is the title, second the company, and the
// rest are scanned for something location-shaped.
func indeedStructured(a *goquery.Selection) (domain.ExtractedJob, bool) {
	const blockSel = "p, div, span, h1, h2, h3, h4, td, li"

	var blocks []string
	a.Find(blockSel).Each(func(_ int, el *goquery.Selection) {
		if el.Find(blockSel).Length() > 0 {
			return
		}
		t := textutil.CleanText(el.Text())
		if t == "" {
			return
		}
		blocks = append(blocks, t)
	})

	if len(blocks) < indeedMinBlocks {
		return domain.ExtractedJob{}, false
	}

	j := domain.ExtractedJob{Title: blocks[0], Company: blocks[1]}
	if len(j.Title) < indeedMinTitle {
		return domain.ExtractedJob{}, false
	}
	for _, b := range blocks[2:] {
		if looksLikeLocation(b) {
			j.Location = b
			break
		}
	}
	return j, true
}

// indeedFlatSplit recovers title/company/location from the card's
// flattened text when structured extraction finds too few blocks.
func indeedFlatSplit(flat string) (domain.ExtractedJob, bool) {
	if flat == "" {
		return domain.ExtractedJob{}, false
	}

	// Drop everything from the first salary / "Easily apply" /
	// relative-date marker onward.
	cut := len(flat)
	if loc := reIndeedSalary.FindStringIndex(flat); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if i := strings.Index(strings.ToLower(flat), "easily apply"); i >= 0 && i < cut {
		cut = i
	}
	if loc := reIndeedDaysAgo.FindStringIndex(flat); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	rem := strings.TrimSpace(flat[:cut])

	j := domain.ExtractedJob{}
	if m := reIndeedCityXX.FindStringSubmatchIndex(rem); m != nil {
		j.Location = strings.TrimSpace(rem[m[2]:m[3]])
		rem = strings.TrimSpace(rem[:m[2]])
	}

	// Concatenated blocks show up as a case boundary:
	// "Software EngineerAcme Corp" splits at "rA".
	title, company := splitCaseBoundary(rem)
	if len(title) < indeedMinTitle {
		return domain.ExtractedJob{}, false
	}
	j.Title = title
	j.Company = company
	return j, true
}

func splitCaseBoundary(s string) (title, company string) {
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsLower(runes[i-1]) && unicode.IsUpper(runes[i]) {
			return strings.TrimSpace(string(runes[:i])), strings.TrimSpace(string(runes[i:]))
		}
	}
	return strings.TrimSpace(s), ""
}

// looksLikeLocation accepts "City, XX" region codes, remote/hybrid
// keywords, and short capitalized lines that carry no salary or
// relative-date markers.
func looksLikeLocation(s string) bool {
	if reRegionCode.MatchString(s) {
		return true
	}
	l := strings.ToLower(s)
	if strings.Contains(l, "remote") || strings.Contains(l, "hybrid") {
		return true
	}
	if len(s) > 40 || s == "" || strings.Contains(l, "apply") {
		return false
	}
	first := []rune(s)[0]
	if !unicode.IsUpper(first) {
		return false
	}
	if strings.ContainsAny(s, "$€£") || reIndeedDaysAgo.MatchString(s) {
		return false
	}
	return true
}
