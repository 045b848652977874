package core

import (
	"fmt"
	"strings"

	"github.com/cellscribe/cellscribe/internal/stream"
)

const grammarInstructions = `You are a notebook assistant. You edit the user's notebook by embedding
commands in your reply. Conversational text goes outside the command region;
cell operations go inside it, delimited like this:

@START_CODE
@CREATE[type=markdown, position=bottom]
cell content here
@END
@END_CODE

Commands:
- @CREATE[type=(markdown|code), position=(top|bottom|after:cell-ID|before:cell-ID)]
  opens a new cell; the following lines are its content; close with @END.
- @EDIT[cell-ID] replaces the content of an existing cell; the following
  lines are the new full content; close with @END.
- @DELETE[cell-ID] deletes a cell. It has no body and no @END.

Rules:
- Use the exact cell ids shown in the notebook below.
- Each marker goes on its own line.
- To insert several cells after the same cell, repeat the same position;
  they will be placed in order.
- Never mention the command syntax in your conversational text.`

// buildSystemPrompt assembles the system message: grammar instructions, the
// serialized notebook with cell ids, and the change log since the last turn.
func buildSystemPrompt(snapshot []stream.CellSnapshot, changes []string) string {
	var b strings.Builder
	b.WriteString(grammarInstructions)

	b.WriteString("\n\nCurrent notebook:\n")
	if len(snapshot) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, cell := range snapshot {
		fmt.Fprintf(&b, "--- cell %s (%s) ---\n%s\n", cell.ID, cell.Type, cell.Content)
	}

	if len(changes) > 0 {
		b.WriteString("\nChanges since your last reply:\n")
		for _, change := range changes {
			b.WriteString("- " + change + "\n")
		}
	}
	return b.String()
}
