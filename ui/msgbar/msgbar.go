package msgbar

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"beaconmap/beacon"
)

const (
	barHeight = 7 // Total height of the component (including border)
)

var (
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blue   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func modeStyle(m beacon.TransmissionMode) lipgloss.Style {
	switch m {
	case beacon.ModeEmergency:
		return red
	case beacon.ModeTest:
		return blue
	default:
		return white
	}
}

func statusStyle(s beacon.PacketStatus) lipgloss.Style {
	switch s {
	case beacon.StatusValid:
		return green
	case beacon.StatusCorrected:
		return yellow
	default:
		return red
	}
}

// Text is the uncoloured console line for a record:
// time, mode, summary, emergency and the corrected bit count.
func Text(rec beacon.Record) string {
	line := fmt.Sprintf("%s %-9s %s %s",
		rec.Timestamp.Format("15:04:05"), rec.Mode, rec.Summary(), rec.Emergency)
	if rec.Status == beacon.StatusCorrected {
		line += fmt.Sprintf(" (%de)", rec.ErrorCount)
	}
	return line
}

// Line is Text with the mode and status coloured.
func Line(rec beacon.Record) string {
	status := rec.Status.String()
	summary := rec.Summary()
	summary = strings.TrimSuffix(summary, status) + statusStyle(rec.Status).Render(status)

	line := fmt.Sprintf("%s %s %s %s",
		rec.Timestamp.Format("15:04:05"),
		modeStyle(rec.Mode).Render(fmt.Sprintf("%-9s", rec.Mode)),
		summary, rec.Emergency)
	if rec.Status == beacon.StatusCorrected {
		line += fmt.Sprintf(" (%de)", rec.ErrorCount)
	}
	return line
}

// Model holds the message bar's state
type Model struct {
	width    int
	height   int
	messages []string // newest first
}

// New creates a new message bar model
func New() Model {
	return Model{
		width:  80,
		height: barHeight,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = barHeight

	case beacon.Record:
		m.messages = append([]string{Line(msg)}, m.messages...)
		if limit := barHeight - 2; len(m.messages) > limit {
			m.messages = m.messages[:limit]
		}
	}
	return m, nil
}

// Clear drops every line.
func (m *Model) Clear() {
	m.messages = nil
}

func (m Model) Len() int {
	return len(m.messages)
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).   // -2 for border
		Height(m.height - 2). // -2 for border
		Padding(0, 1)

	contentWidth := max(m.width-4, 0) // -border, -padding
	lines := min(max(m.height-2, 0), len(m.messages))

	var b strings.Builder
	// oldest at the top so the bar reads like a console
	for i := lines - 1; i >= 0; i-- {
		b.WriteString(lipgloss.NewStyle().MaxWidth(contentWidth).Render(m.messages[i]))
		if i > 0 {
			b.WriteRune('\n')
		}
	}
	return style.Render(b.String())
}
