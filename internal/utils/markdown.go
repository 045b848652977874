package utils

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Markdown styles
func CodeBlockStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Padding(0, 1)
}

func BoldStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true)
}

func ItalicStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Italic(true)
}

func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true)
}

func ListStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		MarginLeft(2)
}

var (
	orderedItemRe = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	inlineCodeRe  = regexp.MustCompile("`[^`]*`")
	boldRe        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe      = regexp.MustCompile(`_([^_]+)_`)
)

// RenderMarkdown applies lightweight markdown styling for terminal output.
// It is line-based: headings, list items and fenced code blocks keep their
// own lines, everything else gets inline formatting.
func RenderMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result strings.Builder

	inCodeBlock := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			result.WriteString(CodeBlockStyle().Render(line) + "\n")
			continue
		}

		if title, found := strings.CutPrefix(line, "### "); found {
			result.WriteString(TitleStyle().Render(renderInline(title)) + "\n")
			continue
		}
		if title, found := strings.CutPrefix(line, "## "); found {
			result.WriteString(TitleStyle().Render(renderInline(title)) + "\n")
			continue
		}
		if title, found := strings.CutPrefix(line, "# "); found {
			result.WriteString(TitleStyle().Render(renderInline(title)) + "\n")
			continue
		}

		if item, found := strings.CutPrefix(line, "- "); found {
			result.WriteString(ListStyle().Render("• "+renderInline(item)) + "\n")
			continue
		}
		if item, found := strings.CutPrefix(line, "* "); found {
			result.WriteString(ListStyle().Render("• "+renderInline(item)) + "\n")
			continue
		}
		if m := orderedItemRe.FindStringSubmatch(line); len(m) == 3 {
			result.WriteString(ListStyle().Render(m[1]+". "+renderInline(m[2])) + "\n")
			continue
		}

		result.WriteString(renderInline(line) + "\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}

// renderInline styles inline code, bold and italic. Code is handled first
// so its content is not re-processed as formatting.
func renderInline(line string) string {
	line = inlineCodeRe.ReplaceAllStringFunc(line, func(match string) string {
		return CodeBlockStyle().Render(strings.Trim(match, "`"))
	})
	line = boldRe.ReplaceAllStringFunc(line, func(match string) string {
		return BoldStyle().Render(strings.Trim(match, "*"))
	})
	line = italicRe.ReplaceAllStringFunc(line, func(match string) string {
		return ItalicStyle().Render(strings.Trim(match, "_"))
	})
	return line
}
