package stream

import (
	"strings"
	"sync"

	"pkt.systems/pslog"
)

// StreamingState is the per-turn mutable record of the parser. A fresh
// instance is installed by Reset at the start of every turn; reusing a
// stale one across turns is a caller bug.
type StreamingState struct {
	// Buffer holds the trailing, not-yet-newline-terminated tail of the
	// raw stream.
	Buffer string
	// FullResponse is the entire raw text seen so far, append-only within
	// a turn. Used by the idempotence guard and for model history.
	FullResponse string
	// TextContent is the prose subset of FullResponse (outside the command
	// region), rendered live in the transcript.
	TextContent string
	// IsCodeBlock is true between @START_CODE and the matching @END_CODE.
	// The name means "inside the command-operations region", not a literal
	// code-language block.
	IsCodeBlock bool

	current      []*Operation // open operations, insertion order
	currentIndex map[string]*Operation
	applied      map[string]*PendingOp
	appliedOrder []string
	original     []CellSnapshot
}

func newStreamingState(snapshot []CellSnapshot) StreamingState {
	return StreamingState{
		currentIndex: make(map[string]*Operation),
		applied:      make(map[string]*PendingOp),
		original:     snapshot,
	}
}

// originalContentFor returns the turn-start content of a cell, or "" when
// the cell is unknown (it may have been created earlier in this same turn).
func (s *StreamingState) originalContentFor(cellID string) string {
	for _, cell := range s.original {
		if cell.ID == cellID {
			return cell.Content
		}
	}
	return ""
}

// Hooks are the machine's outbound notifications. Both are optional and are
// invoked on the goroutine driving Advance.
type Hooks struct {
	// OnProse receives each prose increment (text outside the command
	// region) as soon as it arrives, before any full line is available.
	OnProse func(delta string)
	// OnPending receives a copy of the applied-operation ledger whenever it
	// changes and once more when the turn finishes.
	OnPending func(ops map[string]PendingOp)
}

// Machine is the streaming command parser and its incremental-application
// state machine. It consumes (increment, final) pairs from the provider,
// recognizes command markup line by line, and applies operations through
// the mutator as they stream in.
type Machine struct {
	mu      sync.Mutex
	mutator CellMutator
	log     pslog.Logger
	hooks   Hooks
	state   StreamingState
}

func NewMachine(mutator CellMutator, logger pslog.Logger) *Machine {
	return &Machine{
		mutator: mutator,
		log:     logger,
		state:   newStreamingState(nil),
	}
}

func (m *Machine) SetHooks(hooks Hooks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = hooks
}

// Reset discards all per-turn state and installs the turn-start document
// snapshot. It must be called before the first Advance of a turn. Pending
// operations from an earlier turn that were never resolved stay in the
// ledger; callers resolve them before prompting if they want a clean slate.
func (m *Machine) Reset(snapshot []CellSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	applied := m.state.applied
	order := m.state.appliedOrder
	m.state = newStreamingState(snapshot)
	if len(applied) > 0 {
		m.state.applied = applied
		m.state.appliedOrder = order
	}
}

// Advance feeds one decoded increment into the state machine. Increments
// must arrive in order; final marks the end of the turn (content may be
// empty on the final call).
func (m *Machine) Advance(increment string, final bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Duplicate-delivery guard: the host UI layer has at-least-once
	// semantics, so an increment the response already ends with is dropped.
	duplicate := increment == "" ||
		(m.state.FullResponse != "" && strings.HasSuffix(m.state.FullResponse, increment))

	if !duplicate {
		m.state.Buffer += increment
		m.state.FullResponse += increment

		lines, rest := splitCompleteLines(m.state.Buffer)
		m.state.Buffer = rest

		if !m.state.IsCodeBlock {
			// Prose streams character by character; do not wait for a
			// full line.
			m.state.TextContent += increment
			if m.hooks.OnProse != nil {
				m.hooks.OnProse(increment)
			}
		}

		for _, line := range lines {
			m.processLine(line)
		}
	}

	if final {
		// A trailing partial line at turn end is discarded, not processed.
		if m.state.Buffer != "" {
			m.log.Debug("discarding trailing partial line", "buffer", m.state.Buffer)
			m.state.Buffer = ""
		}
		m.notifyPending()
	}
}

// splitCompleteLines splits off every newline-terminated line of buf,
// tolerating CRLF, and returns the unterminated remainder.
func splitCompleteLines(buf string) ([]string, string) {
	var lines []string
	for {
		i := strings.IndexByte(buf, '\n')
		if i < 0 {
			return lines, buf
		}
		line := strings.TrimSuffix(buf[:i], "\r")
		lines = append(lines, line)
		buf = buf[i+1:]
	}
}

// processLine advances the state machine by one recognized line.
func (m *Machine) processLine(line string) {
	tok := Recognize(line)
	switch tok.Kind {
	case TokenStartCode:
		m.state.IsCodeBlock = true
	case TokenEndCode:
		m.state.IsCodeBlock = false
	case TokenCreate:
		m.openCreate(tok)
	case TokenEdit:
		m.openEdit(tok)
	case TokenDelete:
		m.applyDelete(tok)
	case TokenEnd:
		m.finalizeOpen()
	case TokenContent:
		m.appendContent(line)
	}
}

// openCreate dispatches the insert immediately with empty content so the
// real cell id exists as early as possible, then tracks the operation as
// open until @END.
func (m *Machine) openCreate(tok Token) {
	raw := tok.Position
	effective := m.state.chainAfterAnchor(raw)
	pos, ok := ParsePosition(effective)
	if !ok {
		m.log.Warn("unresolvable create position", "position", raw)
		return
	}

	cellID, err := m.mutator.InsertCell("", tok.CellType, pos)
	if err != nil || cellID == "" {
		m.log.Warn("create dispatch failed, dropping operation",
			"position", effective, "err", err)
		return
	}

	op := &Operation{
		Type:        OpCreate,
		CellType:    tok.CellType,
		CellID:      cellID,
		Position:    pos,
		RawPosition: raw,
	}
	m.state.current = append(m.state.current, op)
	m.state.currentIndex[cellID] = op
	m.log.Debug("create opened", "cell", cellID, "position", effective)
}

// openEdit dispatches a provisional empty update to establish the pending
// decoration, then accumulates content until @END. A repeated @EDIT for a
// cell that is already open just keeps the existing entry accumulating.
func (m *Machine) openEdit(tok Token) {
	if _, open := m.state.currentIndex[tok.CellID]; open {
		return
	}

	if err := m.mutator.UpdateCell(tok.CellID, ""); err != nil {
		m.log.Warn("edit dispatch failed, dropping operation", "cell", tok.CellID, "err", err)
		return
	}
	op := &Operation{
		Type:            OpEdit,
		CellID:          tok.CellID,
		OriginalContent: m.state.originalContentFor(tok.CellID),
	}
	m.state.current = append(m.state.current, op)
	m.state.currentIndex[tok.CellID] = op
	m.log.Debug("edit opened", "cell", tok.CellID)
}

// applyDelete applies immediately: deletes are self-contained, have no body
// and no matching @END, so they go straight into the applied ledger. The
// mutator absorbs lookups of nonexistent cells.
func (m *Machine) applyDelete(tok Token) {
	op := Operation{
		Type:            OpDelete,
		CellID:          tok.CellID,
		OriginalContent: m.state.originalContentFor(tok.CellID),
	}
	if err := m.mutator.DeleteCell(tok.CellID); err != nil {
		m.log.Warn("delete dispatch failed", "cell", tok.CellID, "err", err)
	}
	m.recordApplied(&PendingOp{Operation: op, Pending: true})
	m.notifyPending()
}

// finalizeOpen closes every currently open operation at once; the grammar
// allows several creates/edits to share a single @END.
func (m *Machine) finalizeOpen() {
	if len(m.state.current) == 0 {
		return
	}
	for _, op := range m.state.current {
		op.Content = strings.Join(op.ContentLines, "\n")
		m.recordApplied(&PendingOp{Operation: *op, Pending: true})
		if err := m.mutator.DiffCell(op.CellID, op.OriginalContent, op.Content); err != nil {
			m.log.Warn("diff dispatch failed", "cell", op.CellID, "err", err)
		}
		m.log.Debug("operation finalized", "type", string(op.Type), "cell", op.CellID)
	}
	m.state.current = nil
	m.state.currentIndex = make(map[string]*Operation)
	m.notifyPending()
}

// appendContent fans a plain content line out to every open operation and
// re-dispatches an incremental update so the live document reflects partial
// content as it streams.
func (m *Machine) appendContent(line string) {
	for _, op := range m.state.current {
		op.AppendLine(line)
		if err := m.mutator.UpdateCell(op.CellID, op.Content); err != nil {
			m.log.Warn("incremental update failed", "cell", op.CellID, "err", err)
		}
	}
}

func (m *Machine) recordApplied(op *PendingOp) {
	if _, exists := m.state.applied[op.CellID]; !exists {
		m.state.appliedOrder = append(m.state.appliedOrder, op.CellID)
	}
	m.state.applied[op.CellID] = op
}

func (m *Machine) notifyPending() {
	if m.hooks.OnPending != nil {
		m.hooks.OnPending(m.pendingLocked())
	}
}

func (m *Machine) pendingLocked() map[string]PendingOp {
	out := make(map[string]PendingOp, len(m.state.applied))
	for id, op := range m.state.applied {
		out[id] = *op
	}
	return out
}

// Pending returns a copy of the applied-operation ledger.
func (m *Machine) Pending() map[string]PendingOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingLocked()
}

// TextContent returns the prose accumulated so far this turn.
func (m *Machine) TextContent() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.TextContent
}

// FullResponse returns the entire raw response accumulated so far this turn.
func (m *Machine) FullResponse() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.FullResponse
}
