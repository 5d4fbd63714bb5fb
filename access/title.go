package access

import "strings"

// =============================================================================
// TITLE CLASSIFICATION - Pure function over a configurable table
// =============================================================================

// TitleClass is the role a job title implies, independent of any allow-list.
type TitleClass int

const (
	TitleNone TitleClass = iota
	TitleSchoolLeader
	TitleNetworkLeader
)

// networkLeaderKeywords auto-detect leadership titles. Leadership titles
// rotate faster than the admin allow-list is maintained, so a substring
// match on the title backstops the list.
var networkLeaderKeywords = []string{"chief", "ex dir"}

// ClassifyTitle classifies a job title. Network-leadership detection is a
// case-insensitive substring match; school-leader detection is an exact
// match (after trimming and case-folding) against the configured title set.
func ClassifyTitle(title string, schoolLeaderTitles []string) TitleClass {
	normalized := strings.ToLower(strings.TrimSpace(title))
	if normalized == "" {
		return TitleNone
	}
	for _, kw := range networkLeaderKeywords {
		if strings.Contains(normalized, kw) {
			return TitleNetworkLeader
		}
	}
	for _, t := range schoolLeaderTitles {
		if normalized == strings.ToLower(strings.TrimSpace(t)) {
			return TitleSchoolLeader
		}
	}
	return TitleNone
}
