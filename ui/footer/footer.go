package footer

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const keyHelp = "arrows pan  +/- zoom  r reset  c clear  g log  q quit"

// Model holds the footer's state
type Model struct {
	width      int
	mapName    string
	zoom       float64
	lastBeacon string
	logging    bool
}

// New creates a footer showing the name of the loaded map file.
func New(mapPath string) Model {
	name := filepath.Base(mapPath)
	if mapPath == "" {
		name = "none"
	}
	return Model{width: 80, mapName: name, zoom: 1.0}
}

func (m Model) Init() tea.Cmd { return nil }

func (m *Model) SetZoom(zoom float64) { m.zoom = zoom }

// SetLastBeacon records the short form of the latest beacon heard.
func (m *Model) SetLastBeacon(label string) { m.lastBeacon = label }

func (m *Model) SetLogging(on bool) { m.logging = on }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
	}
	return m, nil
}

// Text is the unstyled footer line.
func (m Model) Text() string {
	last := m.lastBeacon
	if last == "" {
		last = "-"
	}
	logState := "off"
	if m.logging {
		logState = "on"
	}
	return fmt.Sprintf("Map: %s  Zoom: %.1fx  Last: %s  Log: %s  |  %s",
		m.mapName, m.zoom, last, logState, keyHelp)
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("250")).
		Width(m.width)
	return style.Render(m.Text())
}
