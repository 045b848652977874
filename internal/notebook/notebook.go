package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/oklog/ulid/v2"
	"pkt.systems/pslog"

	"github.com/cellscribe/cellscribe/internal/stream"
)

// PendingKind is the review decoration carried by a cell.
type PendingKind int

const (
	PendingNone PendingKind = iota
	PendingCreated
	PendingEdited
	PendingDeleted
)

// Cell is one unit of notebook content. Pending and Diff exist purely to
// drive the review UI and are never persisted.
type Cell struct {
	ID      string
	Type    stream.CellType
	Content string
	Pending PendingKind
	Diff    []stream.DiffSpan
}

// Notebook is an ordered in-memory cell document implementing
// stream.CellMutator. All mutation goes through it; the parser core only
// references cells by the opaque ids it hands out.
type Notebook struct {
	mu    sync.RWMutex
	cells []*Cell
	path  string
	log   pslog.Logger
}

func New(path string, logger pslog.Logger) *Notebook {
	return &Notebook{path: path, log: logger}
}

// Path is the notebook file this document is bound to; it doubles as the
// target identity for the turn lock.
func (n *Notebook) Path() string {
	return n.path
}

// Load reads the notebook file if it exists; a missing file yields an empty
// notebook so a first run starts from scratch.
func (n *Notebook) Load() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	data, err := os.ReadFile(n.path)
	if os.IsNotExist(err) {
		n.cells = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read notebook: %w", err)
	}

	var file notebookFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse notebook: %w", err)
	}

	n.cells = make([]*Cell, 0, len(file.Cells))
	for _, c := range file.Cells {
		n.cells = append(n.cells, &Cell{ID: c.ID, Type: c.Type, Content: c.Content})
	}
	return nil
}

// Save writes the current cells back to disk, review decoration stripped.
// The snapshot is what-you-see-is-what-you-get: content still awaiting
// accept/reject is persisted as it currently reads, and cells marked
// pending-removal are kept (the actual removal only happens on accept).
// Callers wanting a reviewed-only file resolve the ledger before saving.
func (n *Notebook) Save() error {
	n.mu.RLock()
	file := notebookFile{Cells: make([]fileCell, 0, len(n.cells))}
	for _, c := range n.cells {
		file.Cells = append(file.Cells, fileCell{ID: c.ID, Type: c.Type, Content: c.Content})
	}
	n.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(n.path, data, 0644)
}

type notebookFile struct {
	Cells []fileCell `json:"cells"`
}

type fileCell struct {
	ID      string          `json:"id"`
	Type    stream.CellType `json:"type"`
	Content string          `json:"content"`
}

// InsertCell creates a new cell at the resolved position and returns its
// freshly minted id. Anchor ids that resolve to no cell are an error; the
// caller drops the operation.
func (n *Notebook) InsertCell(content string, typ stream.CellType, pos stream.PositionRef) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	index, err := n.resolveIndex(pos)
	if err != nil {
		return "", err
	}

	cell := &Cell{
		ID:      "cell-" + ulid.Make().String(),
		Type:    typ,
		Content: content,
		Pending: PendingCreated,
	}
	n.cells = append(n.cells, nil)
	copy(n.cells[index+1:], n.cells[index:])
	n.cells[index] = cell
	n.log.Debug("cell inserted", "cell", cell.ID, "type", string(typ), "index", index)
	return cell.ID, nil
}

func (n *Notebook) resolveIndex(pos stream.PositionRef) (int, error) {
	switch pos.Kind {
	case stream.PositionTop:
		return 0, nil
	case stream.PositionBottom:
		return len(n.cells), nil
	case stream.PositionAfter:
		i := n.indexOf(pos.Anchor)
		if i < 0 {
			return 0, fmt.Errorf("anchor cell %q not found", pos.Anchor)
		}
		return i + 1, nil
	case stream.PositionBefore:
		i := n.indexOf(pos.Anchor)
		if i < 0 {
			return 0, fmt.Errorf("anchor cell %q not found", pos.Anchor)
		}
		return i, nil
	}
	return len(n.cells), nil
}

func (n *Notebook) indexOf(cellID string) int {
	for i, c := range n.cells {
		if c.ID == cellID {
			return i
		}
	}
	return -1
}

// UpdateCell replaces a cell's content. A cell without review decoration
// picks up the pending-edit mark; cells created this turn keep theirs.
func (n *Notebook) UpdateCell(cellID, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexOf(cellID)
	if i < 0 {
		return fmt.Errorf("cell %q not found", cellID)
	}
	cell := n.cells[i]
	cell.Content = content
	if cell.Pending == PendingNone {
		cell.Pending = PendingEdited
	}
	return nil
}

// DeleteCell is soft: it marks the cell pending-removal so the user can
// still reject. The actual removal happens via RemoveCell on accept.
func (n *Notebook) DeleteCell(cellID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexOf(cellID)
	if i < 0 {
		return fmt.Errorf("cell %q not found", cellID)
	}
	n.cells[i].Pending = PendingDeleted
	return nil
}

// DiffCell computes and stores the line diff used for highlight rendering.
// Non-text cell types would be skipped; both current types are text.
func (n *Notebook) DiffCell(cellID, original, updated string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexOf(cellID)
	if i < 0 {
		return fmt.Errorf("cell %q not found", cellID)
	}
	n.cells[i].Diff = stream.LineDiff(original, updated)
	return nil
}

// RemoveCell removes a cell outright.
func (n *Notebook) RemoveCell(cellID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexOf(cellID)
	if i < 0 {
		return fmt.Errorf("cell %q not found", cellID)
	}
	n.cells = append(n.cells[:i], n.cells[i+1:]...)
	n.log.Debug("cell removed", "cell", cellID)
	return nil
}

// ClearDecoration resets a cell's review state.
func (n *Notebook) ClearDecoration(cellID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	i := n.indexOf(cellID)
	if i < 0 {
		return fmt.Errorf("cell %q not found", cellID)
	}
	n.cells[i].Pending = PendingNone
	n.cells[i].Diff = nil
	return nil
}

// RequestFullContent snapshots the whole document for the parser core.
func (n *Notebook) RequestFullContent() []stream.CellSnapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]stream.CellSnapshot, len(n.cells))
	for i, c := range n.cells {
		out[i] = stream.CellSnapshot{ID: c.ID, Type: c.Type, Content: c.Content, Index: i}
	}
	return out
}

// Cells returns a copy of the cells, decoration included, for rendering.
func (n *Notebook) Cells() []Cell {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]Cell, len(n.cells))
	for i, c := range n.cells {
		out[i] = *c
	}
	return out
}
