package core

import (
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/cellscribe/cellscribe/internal/models"
)

// TurnState manages conversation state for the event-driven architecture.
// The model history keeps the raw responses (command markup included) so
// the model can refer back to its own operations; the transcript keeps only
// what the user should read.
type TurnState struct {
	mu           sync.RWMutex
	chatHistory  []openai.ChatCompletionMessage
	transcript   []models.Message
	isProcessing bool
	lastError    error
}

func NewTurnState() *TurnState {
	return &TurnState{
		chatHistory: make([]openai.ChatCompletionMessage, 0),
		transcript:  make([]models.Message, 0),
	}
}

func (ts *TurnState) GetChatHistory() []openai.ChatCompletionMessage {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	result := make([]openai.ChatCompletionMessage, len(ts.chatHistory))
	copy(result, ts.chatHistory)
	return result
}

func (ts *TurnState) GetMessages() []models.Message {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	result := make([]models.Message, len(ts.transcript))
	copy(result, ts.transcript)
	return result
}

func (ts *TurnState) IsProcessing() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.isProcessing
}

func (ts *TurnState) GetLastError() error {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.lastError
}

// AddProgramMessage adds a program message (welcome, status, hints).
func (ts *TurnState) AddProgramMessage(content string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.transcript = append(ts.transcript, models.Message{Content: content, Type: models.Program})
}

// Atomic operations for event ordering

func (ts *TurnState) StartProcessingWithPrompt(prompt string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.isProcessing = true
	ts.lastError = nil
	ts.chatHistory = append(ts.chatHistory, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
	ts.transcript = append(ts.transcript, models.Message{Content: prompt, Type: models.User})
}

// FinishProcessingWithAssistant records a completed turn: the raw response
// goes to the model history, the prose to the transcript.
func (ts *TurnState) FinishProcessingWithAssistant(raw, prose string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.isProcessing = false
	ts.lastError = nil
	ts.chatHistory = append(ts.chatHistory, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: raw,
	})
	if prose != "" {
		ts.transcript = append(ts.transcript, models.Message{Content: prose, Type: models.Assistant})
	}
}

// FinishProcessingWithError ends a turn with a user-visible error message
// appended to the transcript.
func (ts *TurnState) FinishProcessingWithError(err error, userMessage string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.isProcessing = false
	ts.lastError = err
	if userMessage != "" {
		ts.transcript = append(ts.transcript, models.Message{Content: userMessage, Type: models.System})
	}
}
