package textutil

import "strings"

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// CleanText unescapes the common HTML entities, collapses whitespace runs
// to a single space, and trims. Applied to every extracted text before
// comparison or storage.
func CleanText(s string) string {
	s = entityReplacer.Replace(s)
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
