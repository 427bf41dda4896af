package kiss

import (
	"fmt"
	"io"
	"log"
	"strings"

	"beaconmap/beacon"
	"beaconmap/config"
	"beaconmap/epirb"
)

// Client reads soft-symbol bursts from a KISS modem. Each data frame
// carries one burst, one soft symbol per byte.
type Client struct {
	conn      io.ReadWriteCloser // The underlying connection (TCP, Serial, etc.)
	rx        *epirb.Receiver
	threshold byte
}

// NewClient wraps an already open connection.
func NewClient(conn io.ReadWriteCloser, rx *epirb.Receiver, threshold byte) *Client {
	return &Client{conn: conn, rx: rx, threshold: threshold}
}

// Connect opens the modem named by the interface config. A device with a
// colon is dialled over TCP, anything else is a serial port.
func Connect(conf config.InterfaceConfig, rx *epirb.Receiver) (*Client, error) {
	if !strings.EqualFold(conf.Type, "kiss") {
		return nil, fmt.Errorf("interface type %q is not kiss", conf.Type)
	}

	var (
		conn io.ReadWriteCloser
		err  error
	)
	if strings.Contains(conf.Device, ":") {
		log.Printf("Attempting KISS TCP connection to: %s", conf.Device)
		conn, err = connectTCP(conf.Device)
	} else {
		log.Printf("Attempting KISS Serial connection to: %s", conf.Device)
		conn, err = connectSerial(conf.Device, conf.Baud)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to KISS modem at %s", conf.Device)
	return NewClient(conn, rx, conf.Threshold), nil
}

// Start runs the read loop until the connection fails, sending every
// completed beacon record down out. out is closed on return.
// This function should be run as a goroutine.
func (c *Client) Start(out chan<- beacon.Record) {
	defer close(out)
	decoder := NewDecoder(c.conn)

	for {
		frame, err := decoder.ReadFrame()
		if err != nil {
			if err != io.EOF {
				log.Printf("KISS: read failed: %v", err)
			}
			if rec, ok := c.rx.Flush(); ok {
				out <- rec
			}
			return
		}

		// Only data frames on port 0 carry bursts
		if len(frame) < 2 || frame[0] != CmdData {
			continue
		}

		if rec, ok := c.rx.FeedSoft(frame[1:], c.threshold); ok {
			out <- rec
		}
	}
}

// Close disconnects the client
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
