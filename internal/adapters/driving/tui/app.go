package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/studymate/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Options configures optional App behaviour.
type Options struct {
	// IndexPath is where the index is saved after the corpus changes.
	// Empty leaves persistence to the caller.
	IndexPath string
}

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports   *Ports
	options Options
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	help    help.Model

	menuView       *menu.View
	searchView     *search.View
	askView        *search.View
	documentsView  *documents.View
	docContentView *doccontent.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	err    error
	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts Options) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:   ports,
		options: opts,
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		help:    help.New(),
		menuView: menu.NewView(s, menu.Options{
			Ask:       ports.Answer != nil,
			Documents: ports.Corpus != nil,
		}),
		searchView:  search.NewView(search.KindSearch, s, km, ports.Retrieval, nil),
		currentView: messages.ViewMenu,
	}
	if ports.Answer != nil {
		a.askView = search.NewView(search.KindAsk, s, km, ports.Retrieval, ports.Answer)
	}
	if ports.Corpus != nil {
		a.documentsView = documents.NewView(s, ports.Corpus)
		a.docContentView = doccontent.NewView(s, ports.Corpus)
	}
	a.menuView.SetStats(ports.Retrieval.Stats())
	return a, nil
}

// WithContext sets the context used for queries.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	if a.askView != nil {
		a.askView.WithContext(ctx)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("StudyMate"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.AnswerCompleted:
		if a.askView != nil {
			a.askView, cmd = a.askView.Update(msg)
		}
		a.err = msg.Err
		return a, cmd

	case messages.DocumentSelected:
		if a.docContentView == nil {
			return a, nil
		}
		a.currentView = messages.ViewDocContent
		doc := msg.Document
		return a, a.docContentView.SetDocument(&doc)

	case messages.DocumentContentLoaded:
		if a.docContentView != nil {
			a.docContentView, cmd = a.docContentView.Update(msg)
		}
		return a, cmd

	case messages.DocumentsLoaded:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd

	case messages.SourceRemoved:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		if msg.Err != nil {
			a.err = msg.Err
			return a, cmd
		}
		a.menuView.SetStats(a.ports.Retrieval.Stats())
		return a, tea.Batch(cmd, a.saveIndex())

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewAsk:
		if a.askView != nil {
			a.askView, cmd = a.askView.Update(msg)
		}
	case messages.ViewDocuments:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
	case messages.ViewDocContent:
		if a.docContentView != nil {
			a.docContentView, cmd = a.docContentView.Update(msg)
		}
	case messages.ViewHelp:
	}
	return cmd
}

// switchTo activates a view and returns its start-up command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewSearch:
		a.currentView = view
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewAsk:
		if a.askView == nil {
			return nil
		}
		a.currentView = view
		a.askView.Reset()
		return a.askView.Init()
	case messages.ViewDocuments:
		if a.documentsView == nil {
			return nil
		}
		a.currentView = view
		return a.documentsView.Load()
	case messages.ViewDocContent:
		if a.docContentView == nil {
			return nil
		}
		a.currentView = view
	case messages.ViewMenu:
		a.menuView.SetStats(a.ports.Retrieval.Stats())
		a.currentView = view
	case messages.ViewHelp:
		a.currentView = view
	}
	return nil
}

// saveIndex persists the live snapshot after the corpus changed.
func (a *App) saveIndex() tea.Cmd {
	path := a.options.IndexPath
	if path == "" {
		return nil
	}
	retrieval := a.ports.Retrieval
	ctx := a.ctx
	return func() tea.Msg {
		if err := retrieval.SaveIndex(ctx, path); err != nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("saving index: %w", err)}
		}
		return nil
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewAsk:
		if a.askView != nil {
			return a.askView.View()
		}
	case messages.ViewDocuments:
		if a.documentsView != nil {
			return a.documentsView.View()
		}
	case messages.ViewDocContent:
		if a.docContentView != nil {
			return a.docContentView.View()
		}
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + "\n\n" +
		a.help.FullHelpView(a.keymap.FullHelp()) + "\n\n" +
		a.styles.Muted.Render("Search ranks passages from your documents. Ask answers a question from them.") + "\n" +
		a.styles.Muted.Render("Tab cycles the search mode between auto, lexical, vector and hybrid.") + "\n\n" +
		a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Results returns the results shown by the search view.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	if a.askView != nil {
		a.askView.SetDimensions(width, height)
	}
	if a.documentsView != nil {
		a.documentsView.SetDimensions(width, height)
	}
	if a.docContentView != nil {
		a.docContentView.SetDimensions(width, height)
	}
}
