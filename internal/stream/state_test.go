package stream

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"pkt.systems/pslog"
)

func testLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{
		Mode:    pslog.ModeStructured,
		NoColor: true,
	})
}

// memDoc is an ordered in-memory document standing in for the real
// notebook. It records mutation order so tests can assert on dispatch.
type memCell struct {
	id        string
	typ       CellType
	content   string
	deleted   bool
	decorated bool
	diffed    bool
}

type memDoc struct {
	cells  []*memCell
	nextID int
	calls  []string
}

func newMemDoc(cells ...*memCell) *memDoc {
	return &memDoc{cells: cells}
}

func (d *memDoc) find(cellID string) *memCell {
	for _, c := range d.cells {
		if c.id == cellID {
			return c
		}
	}
	return nil
}

func (d *memDoc) InsertCell(content string, typ CellType, pos PositionRef) (string, error) {
	index := len(d.cells)
	switch pos.Kind {
	case PositionTop:
		index = 0
	case PositionBottom:
		index = len(d.cells)
	case PositionAfter, PositionBefore:
		found := -1
		for i, c := range d.cells {
			if c.id == pos.Anchor {
				found = i
				break
			}
		}
		if found < 0 {
			return "", fmt.Errorf("anchor %q not found", pos.Anchor)
		}
		if pos.Kind == PositionAfter {
			index = found + 1
		} else {
			index = found
		}
	}

	d.nextID++
	cell := &memCell{id: fmt.Sprintf("new-%d", d.nextID), typ: typ, content: content, decorated: true}
	d.cells = append(d.cells, nil)
	copy(d.cells[index+1:], d.cells[index:])
	d.cells[index] = cell
	d.calls = append(d.calls, "insert "+cell.id)
	return cell.id, nil
}

func (d *memDoc) UpdateCell(cellID, content string) error {
	c := d.find(cellID)
	if c == nil {
		return fmt.Errorf("cell %q not found", cellID)
	}
	c.content = content
	c.decorated = true
	d.calls = append(d.calls, "update "+cellID)
	return nil
}

func (d *memDoc) DeleteCell(cellID string) error {
	c := d.find(cellID)
	if c == nil {
		return fmt.Errorf("cell %q not found", cellID)
	}
	c.deleted = true
	d.calls = append(d.calls, "delete "+cellID)
	return nil
}

func (d *memDoc) DiffCell(cellID, original, updated string) error {
	c := d.find(cellID)
	if c == nil {
		return fmt.Errorf("cell %q not found", cellID)
	}
	c.diffed = true
	return nil
}

func (d *memDoc) RemoveCell(cellID string) error {
	for i, c := range d.cells {
		if c.id == cellID {
			d.cells = append(d.cells[:i], d.cells[i+1:]...)
			d.calls = append(d.calls, "remove "+cellID)
			return nil
		}
	}
	return fmt.Errorf("cell %q not found", cellID)
}

func (d *memDoc) ClearDecoration(cellID string) error {
	c := d.find(cellID)
	if c == nil {
		return fmt.Errorf("cell %q not found", cellID)
	}
	c.decorated = false
	c.deleted = false
	d.calls = append(d.calls, "clear "+cellID)
	return nil
}

func (d *memDoc) RequestFullContent() []CellSnapshot {
	out := make([]CellSnapshot, len(d.cells))
	for i, c := range d.cells {
		out[i] = CellSnapshot{ID: c.id, Type: c.typ, Content: c.content, Index: i}
	}
	return out
}

func (d *memDoc) order() []string {
	ids := make([]string, len(d.cells))
	for i, c := range d.cells {
		ids[i] = c.id
	}
	return ids
}

// feed drives the machine with text split into fixed-size chunks, the way
// a token stream arrives, and closes the turn.
func feed(m *Machine, text string, chunkSize int) {
	for i := 0; i < len(text); i += chunkSize {
		end := i + chunkSize
		if end > len(text) {
			end = len(text)
		}
		m.Advance(text[i:end], false)
	}
	m.Advance("", true)
}

func newTestMachine(doc *memDoc) *Machine {
	m := NewMachine(doc, testLogger())
	m.Reset(doc.RequestFullContent())
	return m
}

func TestProseStreamsOutsideCommandRegion(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	var deltas []string
	m.SetHooks(Hooks{OnProse: func(d string) { deltas = append(deltas, d) }})

	m.Advance("Hello ", false)
	m.Advance("world", false)
	m.Advance("", true)

	assert.Equal(t, m.TextContent(), "Hello world")
	assert.Equal(t, m.FullResponse(), "Hello world")
	assert.Equal(t, deltas, []string{"Hello ", "world"})
	assert.Equal(t, len(doc.cells), 0)
}

func TestCreateAppliesIncrementally(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	m.Advance("@START_CODE\n@CREATE[type=code, position=bottom]\n", false)
	assert.Equal(t, len(doc.cells), 1)
	assert.Equal(t, doc.cells[0].content, "")

	m.Advance("print(1)\n", false)
	assert.Equal(t, doc.cells[0].content, "print(1)")

	m.Advance("print(2)\n@END\n@END_CODE\n", false)
	m.Advance("", true)

	assert.Equal(t, doc.cells[0].content, "print(1)\nprint(2)")
	assert.Equal(t, doc.cells[0].typ, CellCode)

	pending := m.Pending()
	assert.Equal(t, len(pending), 1)
	op := pending[doc.cells[0].id]
	assert.Equal(t, op.Type, OpCreate)
	assert.Equal(t, op.Pending, true)
}

func TestMarkersSplitAcrossChunks(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	text := "Adding a cell.\n@START_CODE\n@CREATE[type=markdown, position=top]\n# Title\n@END\n@END_CODE\nDone.\n"
	for _, size := range []int{1, 3, 7} {
		doc.cells = nil
		m.Reset(nil)
		feed(m, text, size)

		if len(doc.cells) != 1 {
			t.Fatalf("chunk size %d: expected 1 cell, got %d", size, len(doc.cells))
		}
		assert.Equal(t, doc.cells[0].content, "# Title")
		assert.Equal(t, doc.cells[0].typ, CellMarkdown)
		m.AcceptAll()
	}
}

func TestCommandMarkupExcludedFromProse(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	feed(m, "Before.\n@START_CODE\n@CREATE[type=code, position=bottom]\nx = 1\n@END\n@END_CODE\n", 1)

	assert.Equal(t, m.TextContent(), "Before.\n@START_CODE\n")
	// FullResponse keeps everything for model history
	if len(m.FullResponse()) <= len(m.TextContent()) {
		t.Fatalf("full response should include the command region")
	}
}

func TestProseResumesAfterCommandRegion(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	var deltas []string
	m.SetHooks(Hooks{OnProse: func(d string) { deltas = append(deltas, d) }})

	feed(m, "Intro\n@START_CODE\n@CREATE[type=code, position=bottom]\nx\n@END\n@END_CODE\nOutro\n", 1)

	// The region closes at @END_CODE; trailing prose streams again
	assert.Equal(t, m.TextContent(), "Intro\n@START_CODE\nOutro\n")
	assert.Equal(t, strings.Join(deltas, ""), m.TextContent())
	assert.Equal(t, len(doc.cells), 1)
}

func TestContentLineMentioningEndTokenDoesNotFinalize(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	feed(m, "@START_CODE\n@CREATE[type=markdown, position=bottom]\nsee @ENDPOINT docs\nmore\n@END\n@END_CODE\n", 1000)

	assert.Equal(t, doc.cells[0].content, "see @ENDPOINT docs\nmore")
	assert.Equal(t, len(m.Pending()), 1)
}

func TestDuplicateIncrementDropped(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	m.Advance("Hello\n", false)
	m.Advance("Hello\n", false)
	m.Advance("", true)

	assert.Equal(t, m.FullResponse(), "Hello\n")
	assert.Equal(t, m.TextContent(), "Hello\n")
}

func TestEditAccumulatesReplacementContent(t *testing.T) {
	doc := newMemDoc(&memCell{id: "c1", typ: CellCode, content: "a\nb"})
	m := newTestMachine(doc)

	feed(m, "@START_CODE\n@EDIT[c1]\nx\ny\n@END\n@END_CODE\n", 5)

	assert.Equal(t, doc.cells[0].content, "x\ny")
	assert.Equal(t, doc.cells[0].diffed, true)

	op := m.Pending()["c1"]
	assert.Equal(t, op.Type, OpEdit)
	assert.Equal(t, op.OriginalContent, "a\nb")
}

func TestDeleteAppliesImmediately(t *testing.T) {
	doc := newMemDoc(&memCell{id: "c1", typ: CellCode, content: "x"})
	m := newTestMachine(doc)

	m.Advance("@START_CODE\n@DELETE[c1]\n", false)

	assert.Equal(t, doc.cells[0].deleted, true)
	op := m.Pending()["c1"]
	assert.Equal(t, op.Type, OpDelete)
}

func TestEditOfUnknownCellIsDropped(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	feed(m, "@START_CODE\n@EDIT[ghost]\nnew text\n@END\n@END_CODE\n", 1000)

	assert.Equal(t, len(doc.cells), 0)
	assert.Equal(t, len(m.Pending()), 0)
}

func TestDeleteOfUnknownCellIsDropped(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	feed(m, "@START_CODE\n@DELETE[ghost]\n@END_CODE\n", 1000)

	// The operation still lands in the ledger; resolution is a no-op there
	assert.Equal(t, len(m.Pending()), 1)
	m.AcceptAll()
	assert.Equal(t, len(m.Pending()), 0)
}

func TestSequentialAfterAnchorsChain(t *testing.T) {
	doc := newMemDoc(
		&memCell{id: "c1", typ: CellCode, content: "one"},
		&memCell{id: "c2", typ: CellCode, content: "two"},
	)
	m := newTestMachine(doc)

	text := "@START_CODE\n" +
		"@CREATE[type=code, position=after:c1]\nfirst\n@END\n" +
		"@CREATE[type=code, position=after:c1]\nsecond\n@END\n" +
		"@END_CODE\n"
	feed(m, text, 1000)

	// Repeated after:c1 inserts land in authoring order, not reversed
	assert.Equal(t, doc.order(), []string{"c1", "new-1", "new-2", "c2"})
	assert.Equal(t, doc.cells[1].content, "first")
	assert.Equal(t, doc.cells[2].content, "second")
}

func TestCreateWithMissingAnchorIsDropped(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	feed(m, "@START_CODE\n@CREATE[type=code, position=after:ghost]\nx\n@END\n@END_CODE\n", 1000)

	assert.Equal(t, len(doc.cells), 0)
	assert.Equal(t, len(m.Pending()), 0)
}

func TestTrailingPartialLineDiscarded(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	m.Advance("@START_CODE\n@CREATE[type=code, position=bottom]\nkept\n", false)
	m.Advance("lost without newline", true)

	assert.Equal(t, doc.cells[0].content, "kept")
}

func TestCRLFLinesRecognized(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	feed(m, "@START_CODE\r\n@CREATE[type=code, position=bottom]\r\nx = 1\r\n@END\r\n@END_CODE\r\n", 1000)

	assert.Equal(t, len(doc.cells), 1)
	assert.Equal(t, doc.cells[0].content, "x = 1")
}

func TestResetPreservesUnresolvedLedger(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	feed(m, "@START_CODE\n@CREATE[type=code, position=bottom]\nx\n@END\n@END_CODE\n", 1000)
	assert.Equal(t, len(m.Pending()), 1)

	m.Reset(doc.RequestFullContent())
	assert.Equal(t, len(m.Pending()), 1)
	assert.Equal(t, m.FullResponse(), "")
}

func TestPendingHookFiresOnChange(t *testing.T) {
	doc := newMemDoc()
	m := newTestMachine(doc)

	var snapshots []int
	m.SetHooks(Hooks{OnPending: func(ops map[string]PendingOp) {
		snapshots = append(snapshots, len(ops))
	}})

	feed(m, "@START_CODE\n@CREATE[type=code, position=bottom]\nx\n@END\n@END_CODE\n", 1000)

	if len(snapshots) == 0 {
		t.Fatal("expected pending notifications")
	}
	assert.Equal(t, snapshots[len(snapshots)-1], 1)
}
