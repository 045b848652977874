package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"pkt.systems/pslog"

	"github.com/cellscribe/cellscribe/internal/config"
	"github.com/cellscribe/cellscribe/internal/eventbus"
	"github.com/cellscribe/cellscribe/internal/notebook"
	"github.com/cellscribe/cellscribe/internal/provider"
	"github.com/cellscribe/cellscribe/internal/stream"
	"github.com/cellscribe/cellscribe/internal/tracker"
)

// notebookPushInterval throttles live notebook snapshots while cell content
// streams in token by token.
const notebookPushInterval = 100 * time.Millisecond

// TurnService orchestrates AI turns against one notebook: it owns the
// provider client, the streaming state machine, the change tracker and the
// target lock, and talks to the UI exclusively through the event bus.
type TurnService struct {
	client        *provider.Client
	config        *config.Config
	state         *TurnState
	eventBus      *eventbus.EventBus
	notebook      *notebook.Notebook
	machine       *stream.Machine
	tracker       *tracker.Tracker
	lock          *TargetLock
	log           pslog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	sendMu        sync.Mutex // Guards the push bookkeeping below
	lastSentCount int        // Track how many transcript messages we've sent to UI
	lastCellsPush time.Time  // Throttle live notebook pushes
}

// NewTurnService creates a TurnService regardless of config validity so
// there is always a service to manage state.
func NewTurnService(cfg *config.Config, eb *eventbus.EventBus, nb *notebook.Notebook, logger pslog.Logger) *TurnService {
	ctx, cancel := context.WithCancel(context.Background())

	ts := &TurnService{
		client:   provider.New(cfg, logger),
		config:   cfg,
		state:    NewTurnState(),
		eventBus: eb,
		notebook: nb,
		machine:  stream.NewMachine(nb, logger),
		tracker:  tracker.New(),
		lock:     &TargetLock{},
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	ts.machine.SetHooks(stream.Hooks{
		OnProse:   ts.pushProse,
		OnPending: ts.pushPending,
	})

	ts.addWelcomeMessages(cfg)
	return ts
}

// Start runs the core event loop in a goroutine.
func (ts *TurnService) Start() {
	ts.pushStateToUI()
	ts.pushNotebook(true)
	go ts.eventLoop()
}

// Stop cancels the event loop and writes the notebook out one last time.
func (ts *TurnService) Stop() {
	ts.cancel()
	if err := ts.notebook.Save(); err != nil {
		ts.log.Error("failed to save notebook on shutdown", "err", err)
	}
}

func (ts *TurnService) IsReady() bool {
	return ts.client.Ready()
}

func (ts *TurnService) eventLoop() {
	for {
		select {
		case <-ts.ctx.Done():
			return
		case event, ok := <-ts.eventBus.UIToCore():
			if !ok {
				return
			}
			ts.handleUIEvent(event)
		}
	}
}

func (ts *TurnService) handleUIEvent(event eventbus.UIEvent) {
	switch e := event.(type) {
	case eventbus.SendPromptEvent:
		ts.processPrompt(e.Prompt)
	case eventbus.ResolveOpEvent:
		if e.Accept {
			ts.machine.AcceptOne(e.CellID)
		} else {
			ts.machine.RejectOne(e.CellID)
		}
		ts.pushNotebook(true)
	case eventbus.ResolveAllEvent:
		if e.Accept {
			ts.machine.AcceptAll()
		} else {
			ts.machine.RejectAll()
		}
		ts.pushNotebook(true)
		ts.saveNotebook()
	case eventbus.SaveNotebookEvent:
		ts.saveNotebook()
	}
}

// processPrompt starts a new turn. The target lock is claimed here and
// released when the turn goroutine finishes, success or not.
func (ts *TurnService) processPrompt(prompt string) {
	if !ts.client.Ready() {
		ts.state.FinishProcessingWithError(fmt.Errorf("provider not configured"),
			"No API key configured. Run: cellscribe profile add <name>")
		ts.pushStateToUI()
		return
	}

	if err := ts.lock.Acquire(ts.notebook.Path()); err != nil {
		serr := &provider.StreamError{Kind: provider.KindGenerationInProgress, Message: err.Error()}
		ts.state.FinishProcessingWithError(serr, serr.UserMessage())
		ts.pushStateToUI()
		return
	}

	ts.state.StartProcessingWithPrompt(prompt)
	ts.pushStateToUI()

	go ts.runTurn()
}

// runTurn executes one full turn: snapshot, stream, finalize. It owns the
// lock for its whole lifetime.
func (ts *TurnService) runTurn() {
	defer ts.lock.Release()

	snapshot := ts.notebook.RequestFullContent()
	changes := ts.tracker.Update(snapshot)
	ts.machine.Reset(snapshot)

	messages := append(
		[]openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleSystem,
			Content: buildSystemPrompt(snapshot, changes),
		}},
		ts.state.GetChatHistory()...,
	)

	ts.log.Info("turn started", "cells", len(snapshot), "model", ts.config.GetModel())

	serr := ts.client.StreamChat(ts.ctx, messages, func(ch provider.Chunk) {
		ts.machine.Advance(ch.Content, ch.Done)
		ts.pushNotebook(ch.Done)
	})

	if serr != nil {
		ts.log.Error("turn failed", "kind", string(serr.Kind), "err", serr)
		ts.state.FinishProcessingWithError(serr, serr.UserMessage())
	} else {
		ts.state.FinishProcessingWithAssistant(ts.machine.FullResponse(), ts.machine.TextContent())
		ts.log.Info("turn finished", "pending", len(ts.machine.Pending()))
	}

	ts.pushStateToUI()
	ts.pushNotebook(true)
	ts.sendToUI(eventbus.TurnFinishedEvent{})
}

func (ts *TurnService) pushProse(delta string) {
	ts.sendToUI(eventbus.StreamDeltaEvent{Text: delta})
}

func (ts *TurnService) pushPending(ops map[string]stream.PendingOp) {
	ts.sendToUI(eventbus.PendingOpsEvent{Ops: ops})
}

// pushNotebook sends the current notebook view, throttled unless forced.
func (ts *TurnService) pushNotebook(force bool) {
	ts.sendMu.Lock()
	if !force && time.Since(ts.lastCellsPush) < notebookPushInterval {
		ts.sendMu.Unlock()
		return
	}
	ts.lastCellsPush = time.Now()
	ts.sendMu.Unlock()
	ts.sendToUI(eventbus.NotebookUpdateEvent{Cells: ts.notebook.Cells()})
}

func (ts *TurnService) pushStateToUI() {
	allMessages := ts.state.GetMessages()

	// Only send new messages to reduce resource usage
	ts.sendMu.Lock()
	newMessages := allMessages[ts.lastSentCount:]
	ts.lastSentCount = len(allMessages)
	ts.sendMu.Unlock()

	ts.sendToUI(eventbus.StateUpdateEvent{
		Messages:     newMessages,
		IsProcessing: ts.state.IsProcessing(),
		Error:        ts.state.GetLastError(),
	})
}

func (ts *TurnService) sendToUI(event eventbus.CoreEvent) {
	if err := ts.eventBus.SendToUI(event); err != nil {
		ts.log.Warn("failed to send event to UI", "err", err)
	}
}

func (ts *TurnService) saveNotebook() {
	if err := ts.notebook.Save(); err != nil {
		ts.log.Error("failed to save notebook", "err", err)
		ts.state.AddProgramMessage("Failed to save notebook: " + err.Error())
		ts.pushStateToUI()
	}
}

func (ts *TurnService) addWelcomeMessages(cfg *config.Config) {
	ts.state.AddProgramMessage("-- CELLSCRIBE --")

	if cfg.IsValid() {
		ts.state.AddProgramMessage(fmt.Sprintf("Active Profile: %s [OK]", cfg.ActiveProfile))
		ts.state.AddProgramMessage("Describe a change and press Enter")
	} else {
		ts.state.AddProgramMessage(fmt.Sprintf("Active Profile: %s [NOT CONFIGURED]", cfg.ActiveProfile))
		ts.state.AddProgramMessage("Configure your profile to start:")
		ts.state.AddProgramMessage("• Run: cellscribe profile add <name>")
		ts.state.AddProgramMessage("• Or edit: ~/.cellscribe/config.json")
	}

	ts.state.AddProgramMessage("Controls: Ctrl+Y accept all · Ctrl+N reject all · Ctrl+S save · Ctrl+C quit")
	ts.state.AddProgramMessage("")
}
