package header

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"beaconmap/beacon"
)

// Model holds the header's state: the station, the channel and the
// receive counters since start or the last clear.
type Model struct {
	width     int
	station   string
	frequency float64

	beacons   int
	ok        int
	corrected int
	errored   int
	logging   bool
}

// New creates a new header model
func New(station string, frequencyMHz float64) Model {
	return Model{
		width:     80, // Default width, will be updated
		station:   station,
		frequency: frequencyMHz,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case beacon.Record:
		m.beacons++
		switch msg.Status {
		case beacon.StatusValid:
			m.ok++
		case beacon.StatusCorrected:
			m.corrected++
		default:
			m.errored++
		}
	}
	return m, nil
}

// SetLogging shows whether the logbook is recording.
func (m *Model) SetLogging(on bool) {
	m.logging = on
}

// Reset zeroes the counters.
func (m *Model) Reset() {
	m.beacons, m.ok, m.corrected, m.errored = 0, 0, 0, 0
}

// Stats returns beacons, OK, corrected and errored counts.
func (m Model) Stats() (int, int, int, int) {
	return m.beacons, m.ok, m.corrected, m.errored
}

func (m Model) View() string {
	rec := ""
	if m.logging {
		rec = "  [LOG]"
	}
	title := fmt.Sprintf("BeaconMap %s  %.3f MHz  Beacons:%d OK:%d CORR:%d ERR:%d%s",
		m.station, m.frequency, m.beacons, m.ok, m.corrected, m.errored, rec)

	style := lipgloss.NewStyle().
		Bold(true).
		Background(lipgloss.Color("63")).
		Foreground(lipgloss.Color("255")).
		Width(m.width).
		Align(lipgloss.Center)

	return style.Render(title)
}
