package publish

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"beaconmap/beacon"
)

// LiveFeed streams records to websocket clients as they are decoded.
// Clients only listen; anything they send is discarded.
type LiveFeed struct {
	clients   map[*websocket.Conn]*sync.Mutex // each connection has its own write mutex
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
	station   string
}

func NewLiveFeed(station string) *LiveFeed {
	return &LiveFeed{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		station: station,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Clients returns the number of connected listeners.
func (f *LiveFeed) Clients() int {
	f.clientsMu.RLock()
	defer f.clientsMu.RUnlock()
	return len(f.clients)
}

func (f *LiveFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Live feed: Failed to upgrade connection: %v", err)
		return
	}

	f.clientsMu.Lock()
	f.clients[conn] = &sync.Mutex{}
	f.clientsMu.Unlock()
	log.Printf("Live feed: Client connected from %s", r.RemoteAddr)

	defer f.drop(conn)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go f.ping(conn, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Live feed: Read error: %v", err)
			}
			return
		}
	}
}

func (f *LiveFeed) ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			f.clientsMu.RLock()
			writeMu, ok := f.clients[conn]
			f.clientsMu.RUnlock()
			if !ok {
				return
			}
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (f *LiveFeed) drop(conn *websocket.Conn) {
	f.clientsMu.Lock()
	if _, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		conn.Close()
	}
	f.clientsMu.Unlock()
}

// Broadcast sends one record to every client. Clients whose write fails
// are disconnected.
func (f *LiveFeed) Broadcast(rec beacon.Record) {
	msg, err := json.Marshal(NewPayload(rec, f.station))
	if err != nil {
		log.Printf("Live feed: Failed to marshal record: %v", err)
		return
	}

	// copy the client list so slow writes do not hold the lock
	f.clientsMu.RLock()
	conns := make([]*websocket.Conn, 0, len(f.clients))
	mus := make([]*sync.Mutex, 0, len(f.clients))
	for conn, mu := range f.clients {
		conns = append(conns, conn)
		mus = append(mus, mu)
	}
	f.clientsMu.RUnlock()

	for i, conn := range conns {
		mus[i].Lock()
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		err := conn.WriteMessage(websocket.TextMessage, msg)
		mus[i].Unlock()
		if err != nil {
			log.Printf("Live feed: Failed to send to client: %v", err)
			f.drop(conn)
		}
	}
}

// Consume broadcasts records from in until it closes or ctx is done.
func (f *LiveFeed) Consume(ctx context.Context, in <-chan beacon.Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-in:
			if !ok {
				return
			}
			f.Broadcast(rec)
		}
	}
}
