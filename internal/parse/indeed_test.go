package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Structured tier: the card has clean leaf blocks.
func TestIndeedStructuredExtraction(t *testing.T) {
	html := `
<a href="https://www.indeed.com/rc/clk?jk=abc123def456&from=ja">
  <div>
    <h3>Backend Developer</h3>
    <div><span>Initech</span></div>
    <div><span>Austin, TX</span></div>
    <div><span>$120,000 a year</span></div>
    <div><span>Easily apply</span></div>
  </div>
</a>`
	jobs := Indeed{}.Parse(docFrom(t, html))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Developer", jobs[0].Title)
	assert.Equal(t, "Initech", jobs[0].Company)
	assert.Equal(t, "Austin, TX", jobs[0].Location)
}

// Fallback tier: campaign markup with no usable blocks, everything
// flattened into the anchor text.
func TestIndeedFlattenedFallback(t *testing.T) {
	html := `<a href="https://www.indeed.com/viewjob?jk=xyz987">Data Entry ClerkGlobex CorporationPhoenix, AZ$18 an hourEasily apply3 days ago</a>`
	jobs := Indeed{}.Parse(docFrom(t, html))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Data Entry Clerk", jobs[0].Title)
	assert.Equal(t, "Globex Corporation", jobs[0].Company)
	assert.Equal(t, "Phoenix, AZ", jobs[0].Location)
}

func TestIndeedFallbackCutsAtEasilyApply(t *testing.T) {
	html := `<a href="https://www.indeed.com/viewjob?jk=q1">Warehouse AssociateAcme LogisticsEasily apply2 days ago</a>`
	jobs := Indeed{}.Parse(docFrom(t, html))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Warehouse Associate", jobs[0].Title)
	assert.Equal(t, "Acme Logistics", jobs[0].Company)
	assert.Empty(t, jobs[0].Location)
}

func TestIndeedRemoteLocationBlock(t *testing.T) {
	html := `
<a href="https://www.indeed.com/pagead/clk?mo=r&ad=1234567890">
  <div>
    <h3>Senior QA Engineer</h3>
    <div><span>Hooli</span></div>
    <div><span>Remote</span></div>
  </div>
</a>`
	jobs := Indeed{}.Parse(docFrom(t, html))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Remote", jobs[0].Location)
}

func TestIndeedIgnoresNonJobLinks(t *testing.T) {
	html := `
<a href="https://www.indeed.com/account/settings">Settings</a>
<a href="https://example.com/viewjob?jk=1">External</a>`
	jobs := Indeed{}.Parse(docFrom(t, html))
	assert.Empty(t, jobs)
}

func TestIndeedCanParse(t *testing.T) {
	assert.True(t, Indeed{}.CanParse("alert@indeed.com"))
	assert.False(t, Indeed{}.CanParse("noreply@glassdoor.com"))
}

func TestSplitCaseBoundary(t *testing.T) {
	title, company := splitCaseBoundary("Software EngineerAcme Corp")
	assert.Equal(t, "Software Engineer", title)
	assert.Equal(t, "Acme Corp", company)

	title, company = splitCaseBoundary("Plain title only")
	assert.Equal(t, "Plain title only", title)
	assert.Empty(t, company)
}
