package kiss

import (
	"fmt"
	"net"
	"time"
)

// connectTCP dials a KISS modem at the given address (e.g., "192.168.1.30:8001")
func connectTCP(address string) (net.Conn, error) {
	d := net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	conn, err := d.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to KISS modem at %s: %w", address, err)
	}
	return conn, nil
}
