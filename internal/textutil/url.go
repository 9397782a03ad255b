package textutil

import (
	"net/url"
	"strings"
)

// Tracking params dropped during canonicalization.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term",
}

// CanonicalizeURL decodes entity-escaped ampersands, strips the fixed set
// of tracking query params, and re-serializes. Malformed input comes back
// unchanged; a bad URL is still a usable dedup key.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "&amp;", "&")

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
