package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"beaconmap/beacon"
	"beaconmap/config"
	"beaconmap/device/bitline"
	"beaconmap/device/kiss"
	"beaconmap/device/mock"
	"beaconmap/engine"
	"beaconmap/epirb"
	"beaconmap/logbook"
	"beaconmap/metrics"
	"beaconmap/publish"
	"beaconmap/tracker"
	"beaconmap/ui/footer"
	"beaconmap/ui/header"
	mapview "beaconmap/ui/map"
	"beaconmap/ui/msgbar"
	"beaconmap/ui/sidebar"
)

const defaultConfigPath = "config.toml"

// Source defines the interface for burst feeds: a TNC, a bit line server
// or the built-in transmitter. Start closes out when the feed ends.
type Source interface {
	Start(out chan<- beacon.Record)
	Close()
}

var errSourceClosed = errors.New("beacon source closed")

// --- Constants for Layout ---
const (
	sidebarWidth = 24
	msgbarHeight = 7
)

// model holds the application's state
type model struct {
	width  int
	height int

	headerModel  header.Model
	mapModel     mapview.Model
	msgbarModel  msgbar.Model
	footerModel  footer.Model
	sidebarModel sidebar.Model

	tracker *tracker.Tracker
	logbook *logbook.Writer

	records <-chan beacon.Record

	err error
}

// initialModel creates the starting model
func initialModel(conf config.Config, app *app) model {
	mapName := conf.Map.Shapefile
	mapMod, err := mapview.New(conf)
	if err != nil {
		log.Printf("Warning: %v, drawing without outlines", err)
		mapName = ""
	}

	headerMod := header.New(conf.Station.Name, conf.Interface.Frequency)
	footerMod := footer.New(mapName)

	logging := app.logbook.Enabled()
	headerMod.SetLogging(logging)
	footerMod.SetLogging(logging)
	footerMod.SetZoom(mapMod.GetZoomLevel())

	return model{
		width:        80,
		height:       60,
		headerModel:  headerMod,
		mapModel:     mapMod,
		msgbarModel:  msgbar.New(),
		footerModel:  footerMod,
		sidebarModel: sidebar.New(),
		tracker:      app.tracker,
		logbook:      app.logbook,
		records:      app.records,
	}
}

// listenForRecords is a tea.Cmd that waits for the next record. The hub
// closes the channel only after the source's last record.
func (m model) listenForRecords() tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-m.records
		if !ok {
			return errSourceClosed
		}
		return rec
	}
}

func (m model) Init() tea.Cmd {
	return m.listenForRecords()
}

func shortLabel(rec beacon.Record) string {
	return rec.HexID()[9:] + " " + rec.Type.String()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
		return m, nil
	}

	var (
		headerCmd  tea.Cmd
		mapCmd     tea.Cmd
		msgbarCmd  tea.Cmd
		footerCmd  tea.Cmd
		sidebarCmd tea.Cmd
		cmds       []tea.Cmd
	)

	switch msg := msg.(type) {
	case beacon.Record:
		seen := m.tracker.Observe(msg)

		m.headerModel, headerCmd = m.headerModel.Update(msg)
		m.mapModel, mapCmd = m.mapModel.Update(msg)
		m.msgbarModel, msgbarCmd = m.msgbarModel.Update(msg)
		m.sidebarModel.AddBeacon(msg, seen.Bursts)
		m.footerModel.SetLastBeacon(shortLabel(msg))

		cmds = append(cmds, headerCmd, mapCmd, msgbarCmd, m.listenForRecords())

	case error:
		m.err = msg
		log.Printf("Error received in Update: %v", msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 1
		footerHeight := 1
		mainHeight := max(m.height-headerHeight-msgbarHeight-footerHeight, 1)
		mapWidth := m.width - sidebarWidth

		m.headerModel, headerCmd = m.headerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: headerHeight})
		m.sidebarModel, sidebarCmd = m.sidebarModel.Update(tea.WindowSizeMsg{Width: sidebarWidth, Height: mainHeight})
		m.mapModel, mapCmd = m.mapModel.Update(tea.WindowSizeMsg{Width: mapWidth, Height: mainHeight})
		m.msgbarModel, msgbarCmd = m.msgbarModel.Update(tea.WindowSizeMsg{Width: m.width, Height: msgbarHeight})
		m.footerModel, footerCmd = m.footerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: footerHeight})

		cmds = append(cmds, headerCmd, sidebarCmd, mapCmd, msgbarCmd, footerCmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "c":
			m.mapModel.Clear()
			m.msgbarModel.Clear()
			m.sidebarModel.Clear()
			m.headerModel.Reset()
			m.tracker.Flush()
		case "g":
			on := m.logbook.Toggle()
			m.headerModel.SetLogging(on)
			m.footerModel.SetLogging(on)
		default:
			m.mapModel, mapCmd = m.mapModel.Update(msg)
			cmds = append(cmds, mapCmd)
			m.footerModel.SetZoom(m.mapModel.GetZoomLevel())
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Border(lipgloss.DoubleBorder(), true).
			BorderForeground(lipgloss.Color("9")).
			Padding(1).
			Align(lipgloss.Center, lipgloss.Center)
		return errorStyle.Render(
			"Error:\n\n" + m.err.Error() +
				"\n\nPress any key to quit.",
		)
	}

	middleStack := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebarModel.View(),
		m.mapModel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerModel.View(),
		middleStack,
		m.msgbarModel.View(),
		m.footerModel.View(),
	)
}

// app is the running pipeline: a source pumped into the hub, with the
// logbook, publishers and metrics hanging off hub subscriptions.
type app struct {
	source  Source
	hub     *engine.Hub
	tracker *tracker.Tracker
	logbook *logbook.Writer
	mqtt    *publish.MQTTPublisher

	records <-chan beacon.Record
}

func connectSource(conf config.Config, rx *epirb.Receiver) (Source, error) {
	switch strings.ToLower(conf.Interface.Type) {
	case "kiss":
		return kiss.Connect(conf.Interface, rx)
	case "bitline":
		return bitline.Connect(conf, rx)
	case "mock":
		return mock.New(rx, 0, time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown interface type in config: %s", conf.Interface.Type)
	}
}

// startApp connects the source and every consumer the config enables.
// Only a source failure is fatal.
func startApp(ctx context.Context, conf config.Config) (*app, error) {
	m := metrics.New()
	rx := epirb.NewReceiver(
		epirb.WithPairTimeout(conf.Decoder.PairTimeout),
		epirb.WithUncorrectable(conf.Decoder.KeepUncorrectable),
		epirb.WithObserver(m),
	)

	src, err := connectSource(conf, rx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to interface: %w", err)
	}

	a := &app{
		source:  src,
		hub:     engine.NewHub(),
		tracker: tracker.New(conf.Tracker.TTL.Duration),
	}
	go a.hub.Run(ctx)

	a.logbook, err = logbook.Open(conf.Logbook.Path, conf.Logbook.Enabled)
	if err != nil {
		log.Printf("Logbook: %v, logging disabled", err)
		a.logbook = logbook.NewWriter(io.Discard)
	}
	go a.logbook.Consume(ctx, a.hub.Subscribe())

	if conf.MQTT.Enabled {
		a.mqtt, err = publish.NewMQTTPublisher(conf.MQTT, conf.Station.Name)
		if err != nil {
			log.Printf("MQTT: %v", err)
		} else {
			go a.mqtt.Consume(ctx, a.hub.Subscribe())
		}
	}

	if conf.Metrics.Enabled {
		extra := map[string]http.Handler{}
		if conf.Metrics.LiveFeed {
			feed := publish.NewLiveFeed(conf.Station.Name)
			extra["/ws"] = feed
			go feed.Consume(ctx, a.hub.Subscribe())
		}
		go func() {
			if err := m.Serve(ctx, conf.Metrics.Addr, extra); err != nil {
				log.Printf("Metrics: %v", err)
			}
		}()
	}

	a.records = a.hub.Subscribe()

	out := make(chan beacon.Record)
	go a.source.Start(out)
	go a.hub.Pump(ctx, out)
	return a, nil
}

func (a *app) Close() {
	a.source.Close()
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if err := a.logbook.Close(); err != nil {
		log.Printf("Logbook: %v", err)
	}
}

func loadConfig(path string) (config.Config, error) {
	conf, err := config.LoadConfig(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, fs.ErrNotExist) {
		log.Printf("No %s found, using defaults", path)
		return config.Default(), nil
	}
	return conf, err
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the TOML configuration")
	headless := flag.Bool("headless", false, "print records to stdout instead of drawing the map")
	logPath := flag.String("log", "beaconmap.log", "log file used while the map is shown")
	flag.Parse()

	if !*headless {
		f, err := tea.LogToFile(*logPath, "beaconmap")
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
	}

	conf, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *configPath, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := startApp(ctx, conf)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	if *headless {
		runHeadless(ctx, a)
		return
	}

	p := tea.NewProgram(initialModel(conf, a), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Printf("Alas, there's been an error: %v", err)
	}
}
