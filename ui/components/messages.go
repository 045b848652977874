package components

import (
	"strings"

	"github.com/cellscribe/cellscribe/internal/models"
	"github.com/cellscribe/cellscribe/internal/utils"
	"github.com/cellscribe/cellscribe/ui/styles"
)

func RenderMessages(messages []models.Message, streamText string) string {
	var b strings.Builder

	systemStyle := styles.SystemStyle()
	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	programStyle := styles.ProgramStyle()

	for _, msg := range messages {
		switch msg.Type {
		case models.System:
			b.WriteString(systemStyle.Render(msg.Content) + "\n\n")
		case models.User:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n\n")
		case models.Assistant:
			b.WriteString(assistantStyle.Render("Assistant: "+utils.RenderMarkdown(msg.Content)) + "\n\n")
		case models.Program:
			b.WriteString(programStyle.Render(msg.Content) + "\n\n")
		}
	}

	// In-flight prose renders below the transcript until the turn finishes
	if streamText != "" {
		b.WriteString(assistantStyle.Render("Assistant: "+streamText) + "\n\n")
	}

	return b.String()
}
