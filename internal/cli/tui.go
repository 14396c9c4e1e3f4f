package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SystemListModel - Interactive system selection
// =============================================================================

// SystemListModel is the bubbletea model for interactive system selection.
type SystemListModel struct {
	Systems  []catalog.Entity
	Cursor   int
	Selected *catalog.Entity
	Height   int
	Offset   int
}

// NewSystemListModel creates a new system list model.
func NewSystemListModel(systems []catalog.Entity) SystemListModel {
	return SystemListModel{Systems: systems, Height: 15}
}

func (m SystemListModel) Init() tea.Cmd {
	return nil
}

func (m SystemListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Systems)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Systems) == 0 {
				return m, tea.Quit
			}
			sys := m.Systems[m.Cursor]
			m.Selected = &sys
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m SystemListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select System"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Systems) == 0 {
		b.WriteString(listDimStyle.Render("  no systems in the catalog"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Systems))
	for i := m.Offset; i < end; i++ {
		e := m.Systems[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-32s %s", cursor, catalog.DisplayID(e.Ref()), listDimStyle.Render(e.DisplayName()))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Systems))))
	return b.String()
}

// =============================================================================
// ViewModel - Interactive system summary
// =============================================================================

// viewState is the lifecycle of a ViewModel.
type viewState int

const (
	viewLoading viewState = iota
	viewFailed
	viewReady
)

// graphLoader fetches the graph for the viewer. refresh skips cached
// catalog responses.
type graphLoader func(refresh bool) (graph.Graph, error)

type graphLoadedMsg struct{ graph graph.Graph }

type graphFailedMsg struct{ err error }

type spinnerTickMsg struct{}

// ViewModel shows one system: a spinner while loading, the error when the
// fetch fails, and the node and edge lists once the graph is ready.
type ViewModel struct {
	System string
	Graph  graph.Graph
	Err    error

	state  viewState
	load   graphLoader
	frame  int
	offset int
	height int
}

// NewViewModel creates a viewer that loads its graph with load.
func NewViewModel(system string, load graphLoader) ViewModel {
	return ViewModel{System: system, load: load, height: 20}
}

func (m ViewModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(false), tick())
}

func (m ViewModel) fetch(refresh bool) tea.Cmd {
	load := m.load
	return func() tea.Msg {
		g, err := load(refresh)
		if err != nil {
			return graphFailedMsg{err: err}
		}
		return graphLoadedMsg{graph: g}
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return spinnerTickMsg{} })
}

func (m ViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case graphLoadedMsg:
		m.state, m.Graph, m.Err = viewReady, msg.graph, nil
		m.offset = 0
	case graphFailedMsg:
		m.state, m.Err = viewFailed, msg.err
	case spinnerTickMsg:
		if m.state == viewLoading {
			m.frame++
			return m, tick()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.state != viewLoading {
				m.state = viewLoading
				return m, tea.Batch(m.fetch(true), tick())
			}
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < len(m.lines())-m.height {
				m.offset++
			}
		}
	}
	return m, nil
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m ViewModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.System))
	b.WriteString("\n\n")

	switch m.state {
	case viewLoading:
		frame := spinnerFrames[m.frame%len(spinnerFrames)]
		b.WriteString(styleIconSpinner.Render(frame) + " " + StyleDim.Render("Fetching from the catalog..."))
		b.WriteString("\n")
	case viewFailed:
		b.WriteString(styleIconError.Render(iconError) + " " + StyleError.Render(errors.UserMessage(m.Err)))
		b.WriteString("\n")
		if code := errors.GetCode(m.Err); code != "" {
			b.WriteString(StyleDim.Render("  " + string(code)))
			b.WriteString("\n")
		}
		b.WriteString("\n" + listDimStyle.Render("r retry  q quit"))
	case viewReady:
		lines := m.lines()
		end := min(m.offset+m.height, len(lines))
		for _, l := range lines[m.offset:end] {
			b.WriteString(l)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(statsLine(m.Graph.NodeCount(), m.Graph.EdgeCount()))
		b.WriteString("\n" + listDimStyle.Render("↑/↓ scroll  r refresh  q quit"))
	}
	return b.String()
}

// lines renders every outgoing edge grouped under its source node.
func (m ViewModel) lines() []string {
	var out []string
	for _, n := range m.Graph.Nodes {
		kind := lipgloss.NewStyle().Foreground(kindColor(n.Kind())).Render(n.Kind())
		out = append(out, kind+" "+StyleValue.Render(n.ID))
		for _, e := range m.Graph.EdgesFrom(n.ID) {
			out = append(out, "  "+StyleDim.Render(string(e.Label)+" "+iconArrow)+" "+e.To)
		}
	}
	return out
}
