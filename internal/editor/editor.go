// Package editor edits a project's task list locally until it is submitted.
//
// Rows are addressed by index for plain edits and by a stable local key for
// confirmed removals, so an index shift between request and confirm cannot
// remove the wrong row. Removing a task the backend already knows records
// its id in the removal set sent with the update.
package editor

import (
	"errors"

	"github.com/google/uuid"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

var (
	ErrOutOfRange     = errors.New("task index out of range")
	ErrInvalidStatus  = errors.New("invalid task status")
	ErrUnknownField   = errors.New("unknown task field")
	ErrLastTask       = errors.New("a project needs at least one task")
	ErrUnknownRow     = errors.New("no task with that key")
	ErrRemovalPending = errors.New("a removal is already awaiting confirmation")
	ErrNothingPending = errors.New("no removal awaiting confirmation")
)

// Field names accepted by Update.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
)

// Row is one task plus its local key.
type Row struct {
	Key  string
	Task domain.Task
}

// Editor is an ordered task list with a removal set and a single-slot
// removal confirmation. Not safe for concurrent use.
type Editor struct {
	rows    []Row
	removed []int64
	pending string // key awaiting confirmation, "" when idle
}

// New returns an empty editor.
func New() *Editor {
	return &Editor{removed: []int64{}}
}

// NewWithTask returns an editor holding one blank task.
func NewWithTask() *Editor {
	e := New()
	e.Add()
	return e
}

// FromTasks returns an editor prefilled with tasks, in order.
func FromTasks(tasks []domain.Task) *Editor {
	e := New()
	for _, t := range tasks {
		if t.Status == "" {
			t.Status = domain.TaskPending
		}
		e.rows = append(e.rows, Row{Key: uuid.NewString(), Task: t})
	}
	return e
}

// Add appends a blank pending task and returns its row.
func (e *Editor) Add() Row {
	r := Row{Key: uuid.NewString(), Task: domain.Task{Status: domain.TaskPending}}
	e.rows = append(e.rows, r)
	return r
}

// Update sets one field of the task at index.
func (e *Editor) Update(index int, field, value string) error {
	if index < 0 || index >= len(e.rows) {
		return ErrOutOfRange
	}
	t := &e.rows[index].Task
	switch field {
	case FieldTitle:
		t.Title = value
	case FieldDescription:
		t.Description = value
	case FieldStatus:
		if !domain.ValidTaskStatus(value) {
			return ErrInvalidStatus
		}
		t.Status = value
	default:
		return ErrUnknownField
	}
	return nil
}

// Remove deletes the task at index. A persisted task's id goes into the
// removal set. The last remaining task cannot be removed.
func (e *Editor) Remove(index int) error {
	if index < 0 || index >= len(e.rows) {
		return ErrOutOfRange
	}
	if len(e.rows) == 1 {
		return ErrLastTask
	}
	r := e.rows[index]
	e.rows = append(e.rows[:index], e.rows[index+1:]...)
	if r.Task.Persisted() {
		e.removed = append(e.removed, r.Task.ID)
	}
	if e.pending == r.Key {
		e.pending = ""
	}
	return nil
}

// CanRemove reports whether a row may be removed at all.
func (e *Editor) CanRemove() bool {
	return len(e.rows) > 1
}

// RequestRemoval asks to remove the row with key. The removal happens only
// on ConfirmRemoval.
func (e *Editor) RequestRemoval(key string) error {
	if e.pending != "" {
		return ErrRemovalPending
	}
	if e.indexOf(key) < 0 {
		return ErrUnknownRow
	}
	if !e.CanRemove() {
		return ErrLastTask
	}
	e.pending = key
	return nil
}

// ConfirmRemoval removes the pending row and returns to idle.
func (e *Editor) ConfirmRemoval() error {
	if e.pending == "" {
		return ErrNothingPending
	}
	key := e.pending
	e.pending = ""
	idx := e.indexOf(key)
	if idx < 0 {
		return ErrUnknownRow
	}
	return e.Remove(idx)
}

// CancelRemoval returns to idle without changing anything.
func (e *Editor) CancelRemoval() error {
	if e.pending == "" {
		return ErrNothingPending
	}
	e.pending = ""
	return nil
}

// Pending returns the key awaiting confirmation and whether there is one.
func (e *Editor) Pending() (string, bool) {
	return e.pending, e.pending != ""
}

// PendingRow returns the row awaiting confirmation.
func (e *Editor) PendingRow() (Row, bool) {
	idx := e.indexOf(e.pending)
	if e.pending == "" || idx < 0 {
		return Row{}, false
	}
	return e.rows[idx], true
}

// Len is the number of tasks.
func (e *Editor) Len() int { return len(e.rows) }

// Row returns the row at index.
func (e *Editor) Row(index int) (Row, error) {
	if index < 0 || index >= len(e.rows) {
		return Row{}, ErrOutOfRange
	}
	return e.rows[index], nil
}

// Rows returns a copy of all rows.
func (e *Editor) Rows() []Row {
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// Tasks returns the tasks in order, as sent to the backend.
func (e *Editor) Tasks() []domain.Task {
	out := make([]domain.Task, len(e.rows))
	for i, r := range e.rows {
		out[i] = r.Task
	}
	return out
}

// Removed returns the ids of removed persisted tasks, never nil.
func (e *Editor) Removed() []int64 {
	out := make([]int64, len(e.removed))
	copy(out, e.removed)
	return out
}

// IndexOf returns the index of the row with key, or -1.
func (e *Editor) IndexOf(key string) int {
	return e.indexOf(key)
}

func (e *Editor) indexOf(key string) int {
	if key == "" {
		return -1
	}
	for i, r := range e.rows {
		if r.Key == key {
			return i
		}
	}
	return -1
}
