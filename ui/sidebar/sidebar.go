package sidebar

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"beaconmap/beacon"
)

// RecentCap bounds the beacon list regardless of screen height.
const RecentCap = 50

type entry struct {
	id     uint64
	label  string
	mode   beacon.TransmissionMode
	bursts int
}

// Model holds the sidebar's state
type Model struct {
	width   int
	height  int
	beacons []entry // most recent first, one entry per beacon
}

// New creates a new sidebar model
func New() Model {
	return Model{
		width:  24,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// AddBeacon moves a beacon to the top of the list with its burst count.
func (m *Model) AddBeacon(rec beacon.Record, bursts int) {
	e := entry{
		id:     rec.ID,
		label:  fmt.Sprintf("%s %s", rec.HexID()[9:], rec.Type),
		mode:   rec.Mode,
		bursts: bursts,
	}
	for i, old := range m.beacons {
		if old.id == rec.ID {
			m.beacons = append(m.beacons[:i], m.beacons[i+1:]...)
			break
		}
	}
	m.beacons = append([]entry{e}, m.beacons...)
	if len(m.beacons) > RecentCap {
		m.beacons = m.beacons[:RecentCap]
	}
}

// Clear empties the list.
func (m *Model) Clear() {
	m.beacons = nil
}

func (m Model) Len() int {
	return len(m.beacons)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).   // -2 for border
		Height(m.height - 2). // -2 for border
		Padding(0, 1)

	inner := max(m.width-4, 0)
	header := lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Width(inner).
		Render("Beacons")

	var b strings.Builder
	b.WriteString(header)

	// the header takes one of the inner lines
	rows := min(max(m.height-3, 0), len(m.beacons))
	for i := 0; i < rows; i++ {
		e := m.beacons[i]
		line := fmt.Sprintf("%s x%d", e.label, e.bursts)
		if len(line) > inner {
			line = line[:inner]
		}
		if e.mode == beacon.ModeEmergency {
			line = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(line)
		}
		b.WriteRune('\n')
		b.WriteString(line)
	}

	return style.Render(b.String())
}
