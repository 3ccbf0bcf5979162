package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"minarai/internal/agent"
)

// TurnRunner drives one tutoring turn and streams its events. The returned
// channel is closed when the turn finishes.
type TurnRunner interface {
	RunTurnStream(ctx context.Context, userInput string) <-chan agent.Event
}

// ModelLister fetches installed model names for the /models popup.
type ModelLister func(ctx context.Context) ([]string, error)

// ModelSwitcher applies a model selection made in the popup.
type ModelSwitcher func(name string)

// Params configures the chat program.
type Params struct {
	Runner      TurnRunner
	Renderer    MarkdownRenderer
	ListModels  ModelLister
	SwitchModel ModelSwitcher
	// MetricsSummary, when set, backs the /metrics command.
	MetricsSummary func() string

	ModelName string
	ModeName  string
}

type chatRole int

const (
	roleUser chatRole = iota
	roleTutor
)

type chatMessage struct {
	role    chatRole
	content string
}

// Model implements tea.Model for the interactive chat screen.
type Model struct {
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer MarkdownRenderer

	runner      TurnRunner
	listModels  ModelLister
	switchModel ModelSwitcher
	metrics     func() string

	messages []chatMessage

	busy         bool
	statusPhase  string
	statusDetail string

	events     <-chan agent.Event
	cancelTurn context.CancelFunc

	showModelList  bool
	modelList      []string
	modelListIndex int

	modelName string
	modeName  string

	width  int
	height int
	ready  bool
}

// NewModel builds the initial chat model.
func NewModel(p Params) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a coding question..."
	ti.CharLimit = 2000
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusThinkingStyle

	renderer := p.Renderer
	if renderer == nil {
		renderer = PlainRenderer{}
	}

	return Model{
		input:       ti,
		viewport:    vp,
		spinner:     sp,
		renderer:    renderer,
		runner:      p.Runner,
		listModels:  p.ListModels,
		switchModel: p.SwitchModel,
		metrics:     p.MetricsSummary,
		modelName:   p.ModelName,
		modeName:    p.ModeName,
		statusPhase: "ready",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Run starts the interactive chat program and blocks until the user quits.
func Run(p Params) error {
	prog := tea.NewProgram(NewModel(p), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
