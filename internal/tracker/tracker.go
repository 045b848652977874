// Package tracker builds a change log between notebook snapshots. The log
// is fed back to the model as context so it knows what happened to the
// document since its last reply, including manual edits by the user.
package tracker

import (
	"fmt"

	"github.com/cellscribe/cellscribe/internal/stream"
)

type Tracker struct {
	prev []stream.CellSnapshot
}

func New() *Tracker {
	return &Tracker{}
}

// Update compares the current snapshot with the previous one and returns a
// human-readable description of each change. The first call establishes the
// baseline and reports nothing.
func (t *Tracker) Update(curr []stream.CellSnapshot) []string {
	defer func() { t.prev = curr }()
	if t.prev == nil {
		return nil
	}

	prevByID := make(map[string]stream.CellSnapshot, len(t.prev))
	for _, c := range t.prev {
		prevByID[c.ID] = c
	}
	currByID := make(map[string]stream.CellSnapshot, len(curr))
	for _, c := range curr {
		currByID[c.ID] = c
	}

	var changes []string
	for _, c := range curr {
		old, existed := prevByID[c.ID]
		if !existed {
			changes = append(changes, fmt.Sprintf("created %s cell %s", c.Type, c.ID))
			continue
		}
		if old.Content != c.Content {
			changes = append(changes, fmt.Sprintf("edited cell %s", c.ID))
		}
	}
	for _, c := range t.prev {
		if _, exists := currByID[c.ID]; !exists {
			changes = append(changes, fmt.Sprintf("deleted cell %s", c.ID))
		}
	}
	return changes
}
