package components

import (
	"fmt"
	"strings"

	"github.com/cellscribe/cellscribe/internal/notebook"
	"github.com/cellscribe/cellscribe/internal/stream"
	"github.com/cellscribe/cellscribe/internal/utils"
	"github.com/cellscribe/cellscribe/ui/styles"
)

// RenderNotebook renders the cell list with review decoration: pending
// markers on the header line and line-level diff highlighting for edits.
func RenderNotebook(cells []notebook.Cell) string {
	if len(cells) == 0 {
		return styles.SystemStyle().Render("(empty notebook)") + "\n"
	}

	var b strings.Builder
	headerStyle := styles.CellHeaderStyle()
	cellStyle := styles.CellStyle()

	for i, cell := range cells {
		header := fmt.Sprintf("[%d] %s %s", i, cell.Type, cell.ID)
		switch cell.Pending {
		case notebook.PendingCreated:
			header = styles.PendingCreatedStyle().Render("+ new ") + headerStyle.Render(header)
		case notebook.PendingEdited:
			header = styles.PendingEditedStyle().Render("~ edit ") + headerStyle.Render(header)
		case notebook.PendingDeleted:
			header = styles.PendingDeletedStyle().Render("- delete ") + headerStyle.Render(header)
		default:
			header = headerStyle.Render(header)
		}
		b.WriteString(header + "\n")
		b.WriteString(cellStyle.Render(renderCellBody(cell)) + "\n\n")
	}

	return b.String()
}

func renderCellBody(cell notebook.Cell) string {
	if cell.Pending == notebook.PendingEdited && len(cell.Diff) > 0 {
		return renderDiff(cell.Diff)
	}
	if cell.Type == stream.CellMarkdown {
		return utils.RenderMarkdown(cell.Content)
	}
	return cell.Content
}

func renderDiff(spans []stream.DiffSpan) string {
	var b strings.Builder
	for _, span := range spans {
		text := strings.TrimSuffix(span.Value, "\n")
		switch {
		case span.Added:
			b.WriteString(styles.DiffAddedStyle().Render(text) + "\n")
		case span.Removed:
			b.WriteString(styles.DiffRemovedStyle().Render(text) + "\n")
		default:
			b.WriteString(text + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
