package mapview

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonas-p/go-shp"

	"beaconmap/beacon"
	"beaconmap/config"
)

// Constants for Panning and Zooming
const (
	panFactor  = 0.1
	zoomFactor = 1.2
)

// worldBounds is used when no outline could be loaded.
var worldBounds = shp.Box{MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}

// Marker is one beacon plotted on the map.
type Marker struct {
	ID       uint64
	Label    string
	Lon, Lat float64
	Mode     beacon.TransmissionMode
}

// Model holds the map's state
type Model struct {
	width  int
	height int

	mapPolygons    []*shp.Polygon
	originalBounds shp.Box
	viewBounds     shp.Box

	stationLon    float64
	stationLat    float64
	stationExists bool

	markers []Marker
}

// loadMapData reads every polygon of a shapefile and their joint bounds.
func loadMapData(path string) ([]*shp.Polygon, shp.Box, error) {
	shapeFile, err := shp.Open(path)
	if err != nil {
		return nil, shp.Box{}, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shapeFile.Close()

	var polygons []*shp.Polygon
	bounds := shp.Box{MinX: 1e9, MinY: 1e9, MaxX: -1e9, MaxY: -1e9}

	for shapeFile.Next() {
		_, shape := shapeFile.Shape()
		polygon, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		polygons = append(polygons, polygon)
		bounds.Extend(polygon.BBox())
	}

	if len(polygons) == 0 {
		return nil, shp.Box{}, fmt.Errorf("no polygons found in %s", path)
	}
	return polygons, bounds, nil
}

// New creates a map model. When the shapefile cannot be read the map
// still works over the whole globe without outlines, and the load error
// is returned alongside the usable model.
func New(conf config.Config) (Model, error) {
	m := Model{
		width:          80,
		height:         23,
		originalBounds: worldBounds,
		viewBounds:     worldBounds,
	}

	polygons, bounds, loadErr := loadMapData(conf.Map.Shapefile)
	if loadErr == nil {
		m.mapPolygons = polygons
		m.originalBounds = bounds
		m.viewBounds = bounds
	}

	if grid := conf.Station.GridSquare; grid != "" {
		lon, lat, err := GridSquareToLatLon(grid)
		if err != nil {
			log.Printf("Warning: Could not parse station gridsquare '%s': %v", grid, err)
		} else {
			m.stationLon, m.stationLat, m.stationExists = lon, lat, true
		}
	}

	if m.stationExists && conf.Map.DefaultZoom > 1.0 {
		m.setCenterAndZoom(m.stationLon, m.stationLat, conf.Map.DefaultZoom)
	}
	return m, loadErr
}

func (m Model) Init() tea.Cmd { return nil }

func (m *Model) setCenterAndZoom(lon, lat, zoomLevel float64) {
	w := (m.originalBounds.MaxX - m.originalBounds.MinX) / zoomLevel
	h := (m.originalBounds.MaxY - m.originalBounds.MinY) / zoomLevel
	m.viewBounds = shp.Box{MinX: lon - w/2, MaxX: lon + w/2, MinY: lat - h/2, MaxY: lat + h/2}
}

func (m *Model) zoomByFactor(factor float64) {
	cx := (m.viewBounds.MinX + m.viewBounds.MaxX) / 2
	cy := (m.viewBounds.MinY + m.viewBounds.MaxY) / 2
	w := (m.viewBounds.MaxX - m.viewBounds.MinX) * factor
	h := (m.viewBounds.MaxY - m.viewBounds.MinY) * factor
	if w > m.originalBounds.MaxX-m.originalBounds.MinX || h > m.originalBounds.MaxY-m.originalBounds.MinY {
		m.viewBounds = m.originalBounds
		return
	}
	m.viewBounds = shp.Box{MinX: cx - w/2, MaxX: cx + w/2, MinY: cy - h/2, MaxY: cy + h/2}
}

func (m *Model) pan(dx, dy float64) {
	panX := (m.viewBounds.MaxX - m.viewBounds.MinX) * dx
	panY := (m.viewBounds.MaxY - m.viewBounds.MinY) * dy
	m.viewBounds.MinX += panX
	m.viewBounds.MaxX += panX
	m.viewBounds.MinY += panY
	m.viewBounds.MaxY += panY
}

func (m Model) GetZoomLevel() float64 {
	if m.viewBounds.MaxX == m.viewBounds.MinX {
		return 1.0
	}
	return (m.originalBounds.MaxX - m.originalBounds.MinX) / (m.viewBounds.MaxX - m.viewBounds.MinX)
}

// Markers returns the plotted beacons.
func (m Model) Markers() []Marker {
	return m.markers
}

// Clear removes every marker.
func (m *Model) Clear() {
	m.markers = nil
}

// place adds or moves the marker for a record that carries a position.
func (m *Model) place(rec beacon.Record) {
	pos, ok := rec.BestPosition()
	if !ok {
		return
	}
	mk := Marker{
		ID:    rec.ID,
		Label: fmt.Sprintf("%s %s", rec.HexID()[9:], rec.Type),
		Lon:   pos.Lon,
		Lat:   pos.Lat,
		Mode:  rec.Mode,
	}
	for i := range m.markers {
		if m.markers[i].ID == rec.ID {
			m.markers[i] = mk
			return
		}
	}
	m.markers = append(m.markers, mk)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case beacon.Record:
		m.place(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "k", "up":
			m.pan(0, panFactor)
		case "l", "down":
			m.pan(0, -panFactor)
		case "j", "left":
			m.pan(-panFactor, 0)
		case ";", "right":
			m.pan(panFactor, 0)
		case "K", "+":
			m.zoomByFactor(1 / zoomFactor)
		case "L", "-":
			m.zoomByFactor(zoomFactor)
		case "r":
			m.viewBounds = m.originalBounds
		}
	}
	return m, nil
}

// project converts lon/lat to cell coordinates of a w x h viewport.
func (m Model) project(lon, lat float64, w, h int) (int, int) {
	spanX := max(m.viewBounds.MaxX-m.viewBounds.MinX, 1e-6)
	spanY := max(m.viewBounds.MaxY-m.viewBounds.MinY, 1e-6)
	x := (lon - m.viewBounds.MinX) / spanX
	y := (m.viewBounds.MaxY - lat) / spanY // screen rows grow downwards
	return int(x * float64(w)), int(y * float64(h))
}

func (m Model) renderMapViewport(w, h int) string {
	w, h = max(w, 1), max(h, 1)

	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", w))
	}
	inside := func(x, y int) bool { return x >= 0 && x < w && y >= 0 && y < h }

	for _, polygon := range m.mapPolygons {
		bb := polygon.BBox()
		if bb.MaxX < m.viewBounds.MinX || bb.MinX > m.viewBounds.MaxX ||
			bb.MaxY < m.viewBounds.MinY || bb.MinY > m.viewBounds.MaxY {
			continue
		}
		for _, p := range polygon.Points {
			if x, y := m.project(p.X, p.Y, w, h); inside(x, y) {
				grid[y][x] = '.'
			}
		}
	}

	if m.stationExists {
		if x, y := m.project(m.stationLon, m.stationLat, w, h); inside(x, y) {
			grid[y][x] = 'H'
		}
	}

	for _, mk := range m.markers {
		x, y := m.project(mk.Lon, mk.Lat, w, h)
		if !inside(x, y) {
			continue
		}
		grid[y][x] = markerRune(mk.Mode)

		// label under the marker where the row is free
		if y+1 >= h {
			continue
		}
		label := []rune(mk.Label)
		start := x - len(label)/2
		for i, r := range label {
			if px := start + i; px >= 0 && px < w && grid[y+1][px] == ' ' {
				grid[y+1][px] = r
			}
		}
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(string(row))
		b.WriteRune('\n')
	}
	return b.String()
}

func markerRune(mode beacon.TransmissionMode) rune {
	switch mode {
	case beacon.ModeEmergency:
		return '!'
	case beacon.ModeTest:
		return 't'
	default:
		return '?'
	}
}

// View function
func (m Model) View() string {
	mapStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).
		Height(m.height - 2)

	return mapStyle.Render(m.renderMapViewport(m.width-2, m.height-2))
}
