package editor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/projectdesk/pkg/domain"
)

func persisted() *Editor {
	return FromTasks([]domain.Task{
		{ID: 1, Title: "one", Status: domain.TaskPending},
		{ID: 2, Title: "two", Status: domain.TaskDone},
	})
}

func TestAddDefaults(t *testing.T) {
	e := New()
	r := e.Add()
	assert.NotEmpty(t, r.Key)
	assert.Equal(t, domain.Task{Status: domain.TaskPending}, r.Task)
	assert.Equal(t, 1, e.Len())

	r2 := e.Add()
	assert.NotEqual(t, r.Key, r2.Key, "keys are unique")
}

func TestNewWithTask(t *testing.T) {
	e := NewWithTask()
	require.Equal(t, 1, e.Len())
	assert.Equal(t, domain.TaskPending, e.Tasks()[0].Status)
	assert.Equal(t, []int64{}, e.Removed())
}

func TestUpdate(t *testing.T) {
	e := persisted()
	require.NoError(t, e.Update(1, FieldTitle, "deux"))
	require.NoError(t, e.Update(1, FieldDescription, "second"))
	require.NoError(t, e.Update(0, FieldStatus, domain.TaskInProgress))

	tasks := e.Tasks()
	assert.Equal(t, domain.Task{ID: 2, Title: "deux", Description: "second", Status: domain.TaskDone}, tasks[1])
	assert.Equal(t, domain.TaskInProgress, tasks[0].Status)
	assert.Equal(t, "one", tasks[0].Title, "other fields are preserved")
}

func TestUpdateErrors(t *testing.T) {
	e := persisted()
	assert.ErrorIs(t, e.Update(2, FieldTitle, "x"), ErrOutOfRange)
	assert.ErrorIs(t, e.Update(-1, FieldTitle, "x"), ErrOutOfRange)
	assert.ErrorIs(t, e.Update(0, FieldStatus, "planejado"), ErrInvalidStatus)
	assert.ErrorIs(t, e.Update(0, "owner", "x"), ErrUnknownField)
	assert.Equal(t, domain.TaskPending, e.Tasks()[0].Status)
}

func TestRemovePersistedRecordsID(t *testing.T) {
	e := persisted()
	require.NoError(t, e.Remove(0))
	assert.Equal(t, []int64{1}, e.Removed())
	assert.Equal(t, int64(2), e.Tasks()[0].ID)
}

func TestRemoveUnpersistedLeavesRemovalSetEmpty(t *testing.T) {
	e := New()
	e.Add()
	second := e.Add()
	require.NoError(t, e.Update(1, FieldTitle, "second"))

	require.NoError(t, e.Remove(0))
	require.Equal(t, 1, e.Len())
	row, err := e.Row(0)
	require.NoError(t, err)
	assert.Equal(t, second.Key, row.Key)
	assert.Equal(t, "second", row.Task.Title)
	assert.Equal(t, []int64{}, e.Removed())
}

func TestRemoveLastTaskRefused(t *testing.T) {
	e := FromTasks([]domain.Task{{ID: 9, Status: domain.TaskPending}})
	assert.ErrorIs(t, e.Remove(0), ErrLastTask)
	assert.Equal(t, 1, e.Len())
	assert.Empty(t, e.Removed())
	assert.False(t, e.CanRemove())
}

func TestRemoveOutOfRange(t *testing.T) {
	e := persisted()
	assert.ErrorIs(t, e.Remove(5), ErrOutOfRange)
}

func TestConfirmedRemovalScenario(t *testing.T) {
	e := persisted()
	key := e.Rows()[1].Key

	require.NoError(t, e.RequestRemoval(key))
	pending, ok := e.Pending()
	assert.True(t, ok)
	assert.Equal(t, key, pending)
	assert.Equal(t, 2, e.Len(), "no effect before confirmation")

	require.NoError(t, e.ConfirmRemoval())
	_, ok = e.Pending()
	assert.False(t, ok)
	assert.Equal(t, []domain.Task{{ID: 1, Title: "one", Status: domain.TaskPending}}, e.Tasks())
	assert.Equal(t, []int64{2}, e.Removed())
}

func TestCancelRemoval(t *testing.T) {
	e := persisted()
	require.NoError(t, e.RequestRemoval(e.Rows()[0].Key))
	require.NoError(t, e.CancelRemoval())
	assert.Equal(t, 2, e.Len())
	assert.Empty(t, e.Removed())
}

func TestConfirmationStateErrors(t *testing.T) {
	e := persisted()
	assert.ErrorIs(t, e.ConfirmRemoval(), ErrNothingPending)
	assert.ErrorIs(t, e.CancelRemoval(), ErrNothingPending)
	assert.ErrorIs(t, e.RequestRemoval("nope"), ErrUnknownRow)

	require.NoError(t, e.RequestRemoval(e.Rows()[0].Key))
	assert.ErrorIs(t, e.RequestRemoval(e.Rows()[1].Key), ErrRemovalPending)
}

func TestRequestRemovalOfLastTaskRefused(t *testing.T) {
	e := NewWithTask()
	assert.ErrorIs(t, e.RequestRemoval(e.Rows()[0].Key), ErrLastTask)
	_, ok := e.Pending()
	assert.False(t, ok)
}

func TestKeyedRemovalSurvivesIndexShift(t *testing.T) {
	e := persisted()
	target := e.Rows()[1].Key
	require.NoError(t, e.RequestRemoval(target))

	// Another row disappears while the confirmation is open.
	e.Add()
	require.NoError(t, e.Remove(0))

	require.NoError(t, e.ConfirmRemoval())
	assert.Equal(t, []int64{1, 2}, e.Removed())
	assert.Equal(t, -1, e.IndexOf(target))
}

func TestRemovingPendingRowClearsConfirmation(t *testing.T) {
	e := persisted()
	require.NoError(t, e.RequestRemoval(e.Rows()[0].Key))
	require.NoError(t, e.Remove(0))
	_, ok := e.Pending()
	assert.False(t, ok)
	assert.ErrorIs(t, e.ConfirmRemoval(), ErrNothingPending)
}

func TestRowsAndRemovedAreCopies(t *testing.T) {
	e := persisted()
	rows := e.Rows()
	rows[0].Task.Title = "mutated"
	assert.Equal(t, "one", e.Tasks()[0].Title)

	require.NoError(t, e.Remove(0))
	removed := e.Removed()
	removed[0] = 99
	assert.Equal(t, []int64{1}, e.Removed())
}

// Random add/update/remove sequences keep the removal set equal to the ids
// of removed persisted tasks, disjoint from the ids still present.
func TestRemovalSetInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		var initial []domain.Task
		for i := 0; i < rng.Intn(5)+1; i++ {
			initial = append(initial, domain.Task{ID: int64(i + 1), Status: domain.TaskPending})
		}
		e := FromTasks(initial)
		var wantRemoved []int64

		for step := 0; step < 30; step++ {
			switch rng.Intn(4) {
			case 0:
				e.Add()
			case 1:
				if e.Len() > 0 {
					_ = e.Update(rng.Intn(e.Len()), FieldTitle, "t")
				}
			case 2:
				idx := rng.Intn(e.Len() + 1)
				before, _ := e.Row(idx)
				if err := e.Remove(idx); err == nil && before.Task.Persisted() {
					wantRemoved = append(wantRemoved, before.Task.ID)
				}
			case 3:
				rows := e.Rows()
				r := rows[rng.Intn(len(rows))]
				if e.RequestRemoval(r.Key) == nil {
					if rng.Intn(2) == 0 {
						require.NoError(t, e.ConfirmRemoval())
						if r.Task.Persisted() {
							wantRemoved = append(wantRemoved, r.Task.ID)
						}
					} else {
						require.NoError(t, e.CancelRemoval())
					}
				}
			}

			if wantRemoved == nil {
				assert.Empty(t, e.Removed())
			} else {
				require.Equal(t, wantRemoved, e.Removed())
			}
			present := map[int64]bool{}
			for _, task := range e.Tasks() {
				if task.Persisted() {
					present[task.ID] = true
				}
			}
			for _, id := range e.Removed() {
				require.False(t, present[id], "removed id %d still present", id)
			}
			require.GreaterOrEqual(t, e.Len(), 1)
		}
	}
}
