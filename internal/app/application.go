package app

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"pkt.systems/pslog"

	"github.com/cellscribe/cellscribe/internal/config"
	"github.com/cellscribe/cellscribe/internal/core"
	"github.com/cellscribe/cellscribe/internal/dispatcher"
	"github.com/cellscribe/cellscribe/internal/eventbus"
	"github.com/cellscribe/cellscribe/internal/models"
	"github.com/cellscribe/cellscribe/internal/notebook"
)

// Application manages the complete application lifecycle: config, logging,
// the notebook document, the turn service and the TUI.
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *core.TurnService
	notebook   *notebook.Notebook
	model      *AppModel
	logFile    *os.File
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
}

func NewApplication(notebookPath string) (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile := newLogger()

	nb := notebook.New(notebookPath, logger.With("component", "notebook"))
	if err := nb.Load(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}

	eb := eventbus.NewEventBus()
	disp := dispatcher.NewEventDispatcher(eb)
	service := core.NewTurnService(cfg, eb, nb, logger.With("component", "core"))

	model := &AppModel{
		appModel:   createInitialAppModel(service),
		dispatcher: disp,
	}

	return &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: disp,
		service:    service,
		notebook:   nb,
		model:      model,
		logFile:    logFile,
	}, nil
}

// newLogger writes structured logs to a file next to the config; the TUI
// owns the terminal so stderr is not an option while it runs.
func newLogger() (pslog.Logger, *os.File) {
	path, err := config.LogPath()
	if err == nil {
		if f, ferr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); ferr == nil {
			return pslog.NewWithOptions(f, pslog.Options{
				Mode:     pslog.ModeStructured,
				NoColor:  true,
				MinLevel: pslog.InfoLevel,
			}), f
		}
	}
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured}), nil
}

func (app *Application) Start() error {
	app.service.Start()

	p := tea.NewProgram(app.model)
	_, err := p.Run()

	return err
}

func (app *Application) Stop() {
	app.service.Stop()
	app.dispatcher.Stop()
	app.eventBus.Close()
	if app.logFile != nil {
		app.logFile.Close()
	}
}

func createInitialAppModel(service *core.TurnService) models.AppModel {
	// No initial messages in UI - they come from core as single source of truth
	return models.AppModel{
		Messages:     make([]models.Message, 0),
		Status:       "Ready",
		Loading:      false,
		ServiceReady: service.IsReady(),
	}
}
