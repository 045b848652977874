package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/cellscribe/cellscribe/internal/models"
	"github.com/cellscribe/cellscribe/internal/stream"
)

func TestTurnLifecycleSplitsRawAndProse(t *testing.T) {
	ts := NewTurnState()

	ts.StartProcessingWithPrompt("add a cell")
	assert.Equal(t, ts.IsProcessing(), true)

	raw := "Sure.\n@START_CODE\n@CREATE[type=code, position=bottom]\nx\n@END\n@END_CODE\n"
	ts.FinishProcessingWithAssistant(raw, "Sure.\n")
	assert.Equal(t, ts.IsProcessing(), false)

	history := ts.GetChatHistory()
	assert.Equal(t, len(history), 2)
	assert.Equal(t, history[0].Role, openai.ChatMessageRoleUser)
	assert.Equal(t, history[1].Role, openai.ChatMessageRoleAssistant)
	// The model history keeps the command markup verbatim
	assert.Equal(t, history[1].Content, raw)

	transcript := ts.GetMessages()
	assert.Equal(t, len(transcript), 2)
	assert.Equal(t, transcript[1].Type, models.Assistant)
	assert.Equal(t, transcript[1].Content, "Sure.\n")
}

func TestFinishWithErrorRecordsSystemMessage(t *testing.T) {
	ts := NewTurnState()
	ts.StartProcessingWithPrompt("hi")

	cause := errors.New("boom")
	ts.FinishProcessingWithError(cause, "Something went wrong.")

	assert.Equal(t, ts.IsProcessing(), false)
	assert.Equal(t, ts.GetLastError(), cause)

	transcript := ts.GetMessages()
	last := transcript[len(transcript)-1]
	assert.Equal(t, last.Type, models.System)
	assert.Equal(t, last.Content, "Something went wrong.")

	// Errors stay out of the model history
	assert.Equal(t, len(ts.GetChatHistory()), 1)
}

func TestEmptyProseAddsNoTranscriptEntry(t *testing.T) {
	ts := NewTurnState()
	ts.StartProcessingWithPrompt("hi")
	ts.FinishProcessingWithAssistant("@START_CODE\n@END_CODE\n", "")

	transcript := ts.GetMessages()
	for _, msg := range transcript {
		if msg.Type == models.Assistant {
			t.Fatal("did not expect an assistant transcript entry")
		}
	}
}

func TestSystemPromptListsCellsAndChanges(t *testing.T) {
	snapshot := testSnapshot()
	prompt := buildSystemPrompt(snapshot, []string{"deleted cell c9"})

	for _, want := range []string{"@CREATE", "@EDIT", "@DELETE", "cell c1", "cell c2", "deleted cell c9"} {
		if !contains(prompt, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
}

func TestSystemPromptEmptyNotebook(t *testing.T) {
	prompt := buildSystemPrompt(nil, nil)
	if !contains(prompt, "(empty)") {
		t.Fatal("expected empty-notebook marker")
	}
}

func contains(s, sub string) bool {
	return len(sub) == 0 || strings.Contains(s, sub)
}

func testSnapshot() []stream.CellSnapshot {
	return []stream.CellSnapshot{
		{ID: "c1", Type: stream.CellMarkdown, Content: "# Intro", Index: 0},
		{ID: "c2", Type: stream.CellCode, Content: "print(1)", Index: 1},
	}
}
