package stream

// Ledger resolution. Every operation in the applied map has already been
// speculatively applied to the document; accepting keeps the applied result
// and clears decoration, rejecting undoes it. Both are silent no-ops for a
// cell id no longer in the ledger, and both remove the entry once resolved.

// AcceptOne confirms a single pending operation. For a delete this performs
// the actual removal; for a create or edit the applied content stays and
// only the pending/diff decoration is cleared.
func (m *Machine) AcceptOne(cellID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveLocked(cellID, true)
	m.notifyPending()
}

// RejectOne undoes a single pending operation: a create is removed from the
// document, an edit has its original content restored, a delete has its
// pending-removal decoration cleared (the cell was never actually removed).
func (m *Machine) RejectOne(cellID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveLocked(cellID, false)
	m.notifyPending()
}

// AcceptAll resolves every pending entry as accepted.
func (m *Machine) AcceptAll() {
	m.resolveAll(true)
}

// RejectAll resolves every pending entry as rejected.
func (m *Machine) RejectAll() {
	m.resolveAll(false)
}

func (m *Machine) resolveAll(accept bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order := make([]string, len(m.state.appliedOrder))
	copy(order, m.state.appliedOrder)
	for _, cellID := range order {
		m.resolveLocked(cellID, accept)
	}
	m.notifyPending()
}

func (m *Machine) resolveLocked(cellID string, accept bool) {
	op, ok := m.state.applied[cellID]
	if !ok || !op.Pending {
		return
	}

	var err error
	if accept {
		switch op.Type {
		case OpDelete:
			err = m.mutator.RemoveCell(cellID)
		default:
			err = m.mutator.ClearDecoration(cellID)
		}
	} else {
		switch op.Type {
		case OpCreate:
			err = m.mutator.RemoveCell(cellID)
		case OpEdit:
			if err = m.mutator.UpdateCell(cellID, op.OriginalContent); err == nil {
				err = m.mutator.ClearDecoration(cellID)
			}
		case OpDelete:
			err = m.mutator.ClearDecoration(cellID)
		}
	}
	if err != nil {
		m.log.Warn("ledger resolution failed",
			"cell", cellID, "type", string(op.Type), "accept", accept, "err", err)
	}

	delete(m.state.applied, cellID)
	for i, id := range m.state.appliedOrder {
		if id == cellID {
			m.state.appliedOrder = append(m.state.appliedOrder[:i], m.state.appliedOrder[i+1:]...)
			break
		}
	}
}
