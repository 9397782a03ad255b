package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/textutil"
)

const (
	genericMinTitle = 5
	genericMinHref  = 20
)

var genericJunkHref = []string{
	"unsubscribe", "privacy", "terms", "preferences", "mailto:",
}

var genericJunkText = map[string]struct{}{
	"click here": {}, "view": {}, "apply": {}, "view job": {},
	"learn more": {}, "see more": {}, "sign in": {}, "here": {},
}

// Generic is the fallback for senders no specific parser claims. It keeps
// any link that plausibly points at a posting and uses the anchor text as
// title; the company is unknowable.
type Generic struct{}

func (Generic) Name() string { return domain.SourceGeneric }

func (Generic) CanParse(string) bool { return true }

func (Generic) Parse(doc *goquery.Document) []domain.ExtractedJob {
	out := make([]domain.ExtractedJob, 0)
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if isGenericJunkHref(href) {
			return
		}

		title := textutil.CleanText(a.Text())
		if len(title) < genericMinTitle {
			return
		}
		if _, junk := genericJunkText[strings.ToLower(title)]; junk {
			return
		}

		key := textutil.CanonicalizeURL(href)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		out = append(out, domain.ExtractedJob{
			Title:   title,
			Company: domain.UnknownCompany,
			URL:     href,
		})
	})
	return out
}

func isGenericJunkHref(href string) bool {
	if len(href) < genericMinHref {
		return true
	}
	h := strings.ToLower(href)
	if strings.HasPrefix(h, "#") {
		return true
	}
	for _, junk := range genericJunkHref {
		if strings.Contains(h, junk) {
			return true
		}
	}
	return false
}
