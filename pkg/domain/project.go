package domain

// Project statuses as stored by the backend.
const (
	ProjectPlanned    = "planejado"
	ProjectInProgress = "em andamento"
	ProjectDone       = "concluído"
)

// ProjectStatuses is the display and cycle order for project statuses.
var ProjectStatuses = []string{ProjectPlanned, ProjectInProgress, ProjectDone}

// Project is a user-owned project with its address and tasks.
type Project struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date"` // YYYY-MM-DD
	Status      string   `json:"status"`
	Address     *Address `json:"address,omitempty"`
	Tasks       []Task   `json:"tasks"`
	UserID      int64    `json:"user_id"`
}

// OwnedBy reports whether the project belongs to the given user.
// It is a display hint only; the backend enforces ownership.
func (p Project) OwnedBy(userID int64) bool {
	return userID != 0 && p.UserID == userID
}

// DisplayStartDate renders start_date as DD/MM/YYYY. Values that are not
// YYYY-MM-DD are returned unchanged.
func (p Project) DisplayStartDate() string {
	d := p.StartDate
	if len(d) >= 10 && d[4] == '-' && d[7] == '-' {
		return d[8:10] + "/" + d[5:7] + "/" + d[0:4]
	}
	return d
}

// ValidProjectStatus returns true if s is a known project status.
func ValidProjectStatus(s string) bool {
	return contains(ProjectStatuses, s)
}

// Page is one page of the paginated project listing.
type Page struct {
	Data        []Project `json:"data"`
	CurrentPage int       `json:"current_page,omitempty"`
	LastPage    int       `json:"last_page"`
	Total       int       `json:"total,omitempty"`
}

// NextStatus returns the status after current in order, wrapping around.
// Unknown values start the cycle from the first status.
func NextStatus(order []string, current string, step int) string {
	if len(order) == 0 {
		return current
	}
	idx := -1
	for i, s := range order {
		if s == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return order[0]
	}
	n := len(order)
	return order[((idx+step)%n+n)%n]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
