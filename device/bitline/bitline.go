// Package bitline reads demodulated bursts from a line oriented TCP feed.
//
// Each line is one burst, either as a string of '0'/'1' characters or as
// hex digits (four bits per digit, MSB first). Lines starting with '#' are
// server comments.
package bitline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"beaconmap/beacon"
	"beaconmap/config"
	"beaconmap/epirb"
)

const (
	appName    = "BeaconMap"
	appVersion = "0.1"

	// Bit strings are told apart from hex by length; the shortest burst
	// worth decoding is far longer than any hex line.
	minBitLine = 100
)

var ErrBadLine = errors.New("bitline: line is neither bits nor hex")

// Client represents an active connection to a bit feed
type Client struct {
	conn   io.ReadWriteCloser
	reader *bufio.Reader
	rx     *epirb.Receiver
}

// NewClient wraps an open connection.
func NewClient(conn io.ReadWriteCloser, rx *epirb.Receiver) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn), rx: rx}
}

// Connect dials the feed and announces the station.
func Connect(conf config.Config, rx *epirb.Receiver) (*Client, error) {
	addr := conf.Interface.Device
	if addr == "" {
		return nil, fmt.Errorf("no device address (ip:port) provided for bitline")
	}

	log.Printf("Attempting bitline connection to %s", addr)
	conn, err := net.DialTimeout("tcp", addr, 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bit feed %s: %w", addr, err)
	}
	log.Printf("Connected to bit feed: %s", conn.RemoteAddr())

	c := NewClient(conn, rx)
	if err := c.hello(conf.Station); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) hello(st config.StationConfig) error {
	line := fmt.Sprintf("# %s %s station %s", appName, appVersion, st.Name)
	if st.GridSquare != "" {
		line += " grid " + st.GridSquare
	}
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		return fmt.Errorf("failed to send greeting: %w", err)
	}
	return nil
}

// ParseLine turns one feed line into hard bits.
func ParseLine(line string) ([]byte, error) {
	line = strings.TrimSpace(line)
	if len(line) >= minBitLine && strings.Trim(line, "01") == "" {
		bits := make([]byte, len(line))
		for i := range line {
			bits[i] = line[i] - '0'
		}
		return bits, nil
	}

	line = strings.TrimPrefix(strings.ToLower(line), "0x")
	if line == "" {
		return nil, ErrBadLine
	}
	bits := make([]byte, 0, len(line)*4)
	for _, r := range line {
		var v byte
		switch {
		case r >= '0' && r <= '9':
			v = byte(r - '0')
		case r >= 'a' && r <= 'f':
			v = byte(r-'a') + 10
		default:
			return nil, fmt.Errorf("%w: unexpected %q", ErrBadLine, r)
		}
		for shift := 3; shift >= 0; shift-- {
			bits = append(bits, (v>>shift)&1)
		}
	}
	return bits, nil
}

// Start begins the read loop. out is closed when the feed ends.
func (c *Client) Start(out chan<- beacon.Record) {
	log.Println("Starting bitline reader...")
	defer close(out)

	for {
		lineBytes, err := c.reader.ReadBytes('\n')
		if len(lineBytes) > 0 {
			c.handle(string(lineBytes), out)
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("Error reading bit feed: %v", err)
			} else {
				log.Println("Bit feed closed.")
			}
			if rec, ok := c.rx.Flush(); ok {
				out <- rec
			}
			return
		}
	}
}

func (c *Client) handle(line string, out chan<- beacon.Record) {
	line = strings.TrimSpace(line)
	if len(line) == 0 || line[0] == '#' {
		return
	}
	bits, err := ParseLine(line)
	if err != nil {
		log.Printf("bitline: %v", err)
		return
	}
	if rec, ok := c.rx.Feed(bits); ok {
		out <- rec
	}
}

// Close disconnects the client
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
