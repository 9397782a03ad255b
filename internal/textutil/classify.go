package textutil

import "strings"

type keywordRule struct {
	Label string
	Any   []string
}

// Ordered: first matching category wins.
var typeRules = []keywordRule{
	{Label: "developer", Any: []string{
		"developer", "engineer", "programmer", "software", "frontend",
		"front-end", "backend", "back-end", "full stack", "full-stack",
		"devops", "sre", "web dev",
	}},
	{Label: "game-dev", Any: []string{
		"game", "unity", "unreal", "godot", "gameplay",
	}},
	{Label: "designer", Any: []string{
		"designer", "design", "ux", "ui/ux", "graphic", "figma", "illustrator",
	}},
	{Label: "it-support", Any: []string{
		"it support", "helpdesk", "help desk", "technician", "desktop support",
		"system admin", "sysadmin",
	}},
	{Label: "data-entry", Any: []string{
		"data entry", "typing", "transcription", "clerk",
	}},
}

// Tags are independent; every matching rule contributes, in table order.
var tagRules = []keywordRule{
	{Label: "remote", Any: []string{"remote", "work from home", "wfh"}},
	{Label: "hybrid", Any: []string{"hybrid"}},
	{Label: "onsite", Any: []string{"on-site", "onsite", "on site", "in office", "in-office"}},
	{Label: "senior", Any: []string{"senior", "sr.", "sr ", "lead", "principal", "staff"}},
	{Label: "junior", Any: []string{"junior", "jr.", "jr ", "entry level", "entry-level", "graduate"}},
	{Label: "contract", Any: []string{"contract", "contractor", "freelance", "temporary"}},
	{Label: "part-time", Any: []string{"part-time", "part time"}},
	{Label: "full-time", Any: []string{"full-time", "full time"}},
	{Label: "internship", Any: []string{"intern", "internship"}},
}

// InferJobType buckets a title into one of the fixed categories,
// falling back to "other".
func InferJobType(title string) string {
	t := strings.ToLower(title)
	for _, r := range typeRules {
		for _, kw := range r.Any {
			if strings.Contains(t, kw) {
				return r.Label
			}
		}
	}
	return "other"
}

// InferTags returns every tag whose keyword list hits the text.
// Result order follows the table; never nil.
func InferTags(text string) []string {
	t := strings.ToLower(text)
	tags := []string{}
	for _, r := range tagRules {
		for _, kw := range r.Any {
			if strings.Contains(t, kw) {
				tags = append(tags, r.Label)
				break
			}
		}
	}
	return tags
}
