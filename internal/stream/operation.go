package stream

import "strings"

// CellType is the kind of notebook cell an operation targets.
type CellType string

const (
	CellMarkdown CellType = "markdown"
	CellCode     CellType = "code"
)

// OpType discriminates the operation union.
type OpType string

const (
	OpCreate OpType = "create"
	OpEdit   OpType = "edit"
	OpDelete OpType = "delete"
	OpDiff   OpType = "diff"
)

// PositionKind is the shape of a position directive.
type PositionKind int

const (
	PositionTop PositionKind = iota
	PositionBottom
	PositionAfter
	PositionBefore
)

// PositionRef is a parsed placement directive for a create operation.
// Anchor is only set for after:/before: shapes.
type PositionRef struct {
	Kind   PositionKind
	Anchor string
}

// ParsePosition parses a raw position literal (top, bottom, after:<id>,
// before:<id>). The bool result is false for anything else.
func ParsePosition(raw string) (PositionRef, bool) {
	switch {
	case raw == "top":
		return PositionRef{Kind: PositionTop}, true
	case raw == "bottom":
		return PositionRef{Kind: PositionBottom}, true
	case strings.HasPrefix(raw, "after:"):
		anchor := strings.TrimPrefix(raw, "after:")
		if anchor == "" {
			return PositionRef{}, false
		}
		return PositionRef{Kind: PositionAfter, Anchor: anchor}, true
	case strings.HasPrefix(raw, "before:"):
		anchor := strings.TrimPrefix(raw, "before:")
		if anchor == "" {
			return PositionRef{}, false
		}
		return PositionRef{Kind: PositionBefore, Anchor: anchor}, true
	}
	return PositionRef{}, false
}

func (p PositionRef) String() string {
	switch p.Kind {
	case PositionTop:
		return "top"
	case PositionBottom:
		return "bottom"
	case PositionAfter:
		return "after:" + p.Anchor
	case PositionBefore:
		return "before:" + p.Anchor
	}
	return "bottom"
}

// Operation is one parsed command from the markup stream.
//
// CellID is assigned as soon as it is known: for creates that is the id
// returned by the mutator at open time, for edits and deletes it is the
// id named in the marker.
type Operation struct {
	Type         OpType
	CellType     CellType
	CellID       string
	Position     PositionRef
	RawPosition  string // requested position literal, pre-rewrite
	ContentLines []string
	Content      string
	// OriginalContent is the cell content captured from the turn-start
	// snapshot, used for diffing and for undo on reject.
	OriginalContent string
}

// AppendLine accumulates one content line and refreshes the joined content.
func (op *Operation) AppendLine(line string) {
	op.ContentLines = append(op.ContentLines, line)
	op.Content = strings.Join(op.ContentLines, "\n")
}

// PendingOp is an applied-but-unconfirmed operation awaiting user review.
type PendingOp struct {
	Operation
	Pending bool
}

// CellSnapshot is a read-only view of one notebook cell, taken when a turn
// starts. The document itself is owned by the mutation collaborator.
type CellSnapshot struct {
	ID      string
	Type    CellType
	Content string
	Index   int
}

// CellMutator is the capability set the state machine uses to manipulate
// the live document. Implementations must absorb their own lookup failures
// and return errors rather than panic; the machine logs and keeps going.
//
// DeleteCell is soft: it marks the cell pending-removal for review. The
// actual removal happens through RemoveCell when a delete is accepted (or
// a create rejected). ClearDecoration resets pending/diff marks.
type CellMutator interface {
	InsertCell(content string, typ CellType, pos PositionRef) (string, error)
	UpdateCell(cellID, content string) error
	DeleteCell(cellID string) error
	DiffCell(cellID, original, updated string) error
	RemoveCell(cellID string) error
	ClearDecoration(cellID string) error
	RequestFullContent() []CellSnapshot
}
