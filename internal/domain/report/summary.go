package report

// RecentLimit is how many reports the map view lists
const RecentLimit = 5

// Summary aggregates a report list for the map view
type Summary struct {
	Total         int      `json:"total"`
	Pending       int      `json:"pending"`
	Investigating int      `json:"investigating"`
	Resolved      int      `json:"resolved"`
	Dismissed     int      `json:"dismissed"`
	Recent        []Report `json:"recent"`
}

// Summarize counts reports per status. reports must be newest first.
func Summarize(reports []Report) Summary {
	s := Summary{Total: len(reports)}
	for _, r := range reports {
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusInvestigating:
			s.Investigating++
		case StatusResolved:
			s.Resolved++
		case StatusDismissed:
			s.Dismissed++
		}
	}

	n := len(reports)
	if n > RecentLimit {
		n = RecentLimit
	}
	s.Recent = make([]Report, n)
	copy(s.Recent, reports[:n])
	return s
}
