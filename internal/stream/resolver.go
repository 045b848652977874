package stream

import "strings"

// chainAfterAnchor implements the sequential-anchor rewrite: when several
// creates in one stream request the same literal "after:X" position, each
// later one is re-anchored after the cell produced by the previous one, so
// the inserts end up in authoring order instead of stacking in reverse
// directly after X. Only finalized creates in the applied ledger are
// considered; the scan key is the exact requested position literal.
//
// before: references to not-yet-created cells are deliberately not chained;
// they fail the document lookup downstream.
func (s *StreamingState) chainAfterAnchor(raw string) string {
	if !strings.HasPrefix(raw, "after:") {
		return raw
	}
	last := ""
	for _, id := range s.appliedOrder {
		op, ok := s.applied[id]
		if !ok {
			continue
		}
		if op.Type == OpCreate && op.RawPosition == raw {
			last = op.CellID
		}
	}
	if last == "" {
		return raw
	}
	return "after:" + last
}
