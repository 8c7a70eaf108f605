package domain

// Report holds status distributions for projects and tasks.
type Report struct {
	ProjectsByStatus map[string]int `json:"projects_by_status"`
	TasksByStatus    map[string]int `json:"tasks_by_status"`
}

// StatusCount is one slice of a distribution.
type StatusCount struct {
	Status string
	Count  int
}

// Distribution returns counts for each status in order; statuses missing
// from counts are reported as zero.
func Distribution(counts map[string]int, order []string) []StatusCount {
	out := make([]StatusCount, 0, len(order))
	for _, s := range order {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

// Total sums the counts of a distribution.
func Total(dist []StatusCount) int {
	n := 0
	for _, d := range dist {
		n += d.Count
	}
	return n
}
