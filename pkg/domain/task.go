package domain

// Task statuses as stored by the backend.
const (
	TaskPending    = "pendente"
	TaskInProgress = "em andamento"
	TaskDone       = "concluída"
)

// TaskStatuses is the display and cycle order for task statuses.
var TaskStatuses = []string{TaskPending, TaskInProgress, TaskDone}

// Task is a sub-item of a project. ID is zero until the backend persists it.
type Task struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Persisted reports whether the task has a server-assigned identity.
func (t Task) Persisted() bool {
	return t.ID > 0
}

// ValidTaskStatus returns true if s is a known task status.
func ValidTaskStatus(s string) bool {
	return contains(TaskStatuses, s)
}
