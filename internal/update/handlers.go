package update

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cellscribe/cellscribe/internal/eventbus"
	"github.com/cellscribe/cellscribe/internal/models"
)

// HandleKeyMsgWithEventBus handles keyboard input using the event bus
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus, serviceReady bool) tea.Cmd {
	switch keyMsg.String() {
	case "ctrl+c":
		return tea.Quit
	case "enter":
		if strings.TrimSpace(appModel.Input) != "" && serviceReady {
			if err := eb.SendToCore(eventbus.SendPromptEvent{Prompt: appModel.Input}); err != nil {
				appModel.Status = "Error sending prompt: " + err.Error()
				return nil
			}
			appModel.Input = ""
			return nil
		} else if strings.TrimSpace(appModel.Input) != "" {
			appModel.Input = ""
			appModel.Status = "No provider configured"
		}
	case "ctrl+y":
		if err := eb.SendToCore(eventbus.ResolveAllEvent{Accept: true}); err != nil {
			appModel.Status = "Error: " + err.Error()
		}
	case "ctrl+n":
		if err := eb.SendToCore(eventbus.ResolveAllEvent{Accept: false}); err != nil {
			appModel.Status = "Error: " + err.Error()
		}
	case "ctrl+s":
		if err := eb.SendToCore(eventbus.SaveNotebookEvent{}); err != nil {
			appModel.Status = "Error: " + err.Error()
		} else {
			appModel.Status = "Notebook saved"
		}
	case "backspace":
		if len(appModel.Input) > 0 {
			appModel.Input = appModel.Input[:len(appModel.Input)-1]
		}
	default:
		if len(keyMsg.String()) == 1 {
			appModel.Input += keyMsg.String()
		}
	}
	return nil
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Messages = append(appModel.Messages, event.Messages...)
		appModel.Loading = event.IsProcessing

		if event.Error != nil {
			appModel.Status = "Error: " + event.Error.Error()
		} else if event.IsProcessing {
			appModel.Status = "Thinking"
		} else if appModel.PendingCount > 0 {
			appModel.Status = "Pending changes: Ctrl+Y accept all, Ctrl+N reject all"
		} else {
			appModel.Status = "Ready"
		}

	case eventbus.StreamDeltaEvent:
		appModel.StreamText += event.Text

	case eventbus.NotebookUpdateEvent:
		appModel.Cells = event.Cells

	case eventbus.PendingOpsEvent:
		appModel.PendingCount = len(event.Ops)

	case eventbus.TurnFinishedEvent:
		// The finished prose has landed in the transcript by now
		appModel.StreamText = ""
		if appModel.PendingCount > 0 {
			appModel.Status = "Pending changes: Ctrl+Y accept all, Ctrl+N reject all"
		}
	}

	return nil
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	// Only handle UI animations - loading dots
	if appModel.Loading {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	return TickCmd()
}
