package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const glassdoorFixture = `
<table><tr><td>
  <a href="https://www.glassdoor.com/partner/jobListing.htm?pos=101&jobListingId=555">
    <p style="font-weight:700; margin:0">Frontend Developer</p>
    <p>4.2 ★</p>
    <p>Pied Piper</p>
    <p>$95K - $120K (Employer est.)</p>
    <p>Palo Alto, CA</p>
    <p>Easy Apply</p>
  </a>
</td></tr></table>`

func TestGlassdoorClassifiesByStyleAndContent(t *testing.T) {
	jobs := Glassdoor{}.Parse(docFrom(t, glassdoorFixture))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Frontend Developer", jobs[0].Title)
	assert.Equal(t, "Pied Piper", jobs[0].Company)
	assert.Equal(t, "Palo Alto, CA", jobs[0].Location)
}

func TestGlassdoorBoldKeywordStyle(t *testing.T) {
	html := `
<table><tr><td>
  <a href="https://www.glassdoor.com/job-listing/systems-engineer-hooli-JV_IC1147401.htm">
    <p style="font-weight: bold">Systems Engineer</p>
    <p>3.9</p>
    <p>Hooli</p>
  </a>
</td></tr></table>`
	jobs := Glassdoor{}.Parse(docFrom(t, html))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Systems Engineer", jobs[0].Title)
	assert.Equal(t, "Hooli", jobs[0].Company)
	assert.Empty(t, jobs[0].Location)
}

// No bold paragraph means no title, and no record.
func TestGlassdoorNoTitleNoRecord(t *testing.T) {
	html := `
<table><tr><td>
  <a href="https://www.glassdoor.com/job-listing/x-1234567.htm">
    <p>Initech</p>
    <p>Remote</p>
  </a>
</td></tr></table>`
	jobs := Glassdoor{}.Parse(docFrom(t, html))
	assert.Empty(t, jobs)
}

func TestGlassdoorCanParse(t *testing.T) {
	assert.True(t, Glassdoor{}.CanParse("noreply@glassdoor.com"))
	assert.False(t, Glassdoor{}.CanParse("jobalerts-noreply@linkedin.com"))
}
