package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"mailhunt-engine/internal/domain"
)

func candidate(title, company, url string) domain.IngestCandidate {
	return domain.IngestCandidate{
		ExtractedJob: domain.ExtractedJob{Title: title, Company: company, URL: url},
	}
}

func TestHasMatchesEitherKey(t *testing.T) {
	c := New([]Seed{
		{Title: "Go Engineer", Company: "Acme", URL: "https://a.example/1"},
	})

	// same URL, different title
	assert.True(t, c.Has(candidate("Golang Engineer", "Acme", "https://a.example/1")))
	// same title/company, different URL (repost)
	assert.True(t, c.Has(candidate("go engineer", "ACME", "https://b.example/2")))
	// neither
	assert.False(t, c.Has(candidate("Go Engineer", "Globex", "https://b.example/3")))
}

func TestAddThenHas(t *testing.T) {
	c := New(nil)
	j := candidate("Designer", "Acme", "https://a.example/9")

	assert.False(t, c.Has(j))
	c.Add(j)
	assert.True(t, c.Has(j))
}

// A URL over the key limit must truncate identically in Has and Add, so
// two sightings of the same long URL never both persist.
func TestLongURLTruncationConsistent(t *testing.T) {
	long := "https://a.example/" + strings.Repeat("x", 2*MaxURLKeyLen)

	c := New(nil)
	c.Add(candidate("Engineer", "Acme", long))

	// identical long URL
	assert.True(t, c.Has(candidate("Other Title", "Other Co", long)))
	// differs only beyond the truncation point
	assert.True(t, c.Has(candidate("Other Title", "Other Co", long+"tail")))
}

func TestSeededFromSnapshot(t *testing.T) {
	c := New([]Seed{
		{Title: "A", Company: "B", URL: ""},
	})
	// empty URL must not make every empty-URL candidate a duplicate of it
	// via the URL key; the pair key still matches.
	assert.False(t, c.Has(candidate("X", "Y", "https://a.example/1")))
	assert.True(t, c.Has(candidate("a", "b", "https://a.example/2")))
}
