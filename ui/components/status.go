package components

import (
	"fmt"
	"strings"

	"github.com/cellscribe/cellscribe/ui/styles"
)

func RenderStatus(status string, loading bool, loadingDots int, pendingCount int, width int) string {
	statusStyle := styles.StatusStyle(width)

	statusContent := status
	if loading {
		statusContent += strings.Repeat(".", loadingDots)
	}
	if pendingCount > 0 {
		statusContent += fmt.Sprintf("  [%d pending]", pendingCount)
	}

	return statusStyle.Render(statusContent)
}
