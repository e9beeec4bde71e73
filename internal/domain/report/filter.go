package report

import "strings"

// StatusAll is the list tab that shows every status
const StatusAll = "all"

// Filter narrows a report list by status tab and free-text search
type Filter struct {
	Status string
	Search string
}

// Apply returns the reports matching f in their original order. The input is not modified.
func Apply(reports []Report, f Filter) []Report {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	tab := strings.TrimSpace(f.Status)

	out := make([]Report, 0, len(reports))
	for _, r := range reports {
		if tab != "" && tab != StatusAll && string(r.Status) != tab {
			continue
		}
		if query != "" && !matches(&r, query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r *Report, query string) bool {
	if strings.Contains(strings.ToLower(r.Title), query) ||
		strings.Contains(strings.ToLower(r.Description), query) {
		return true
	}
	return r.Location != nil && strings.Contains(strings.ToLower(r.Location.Name), query)
}
