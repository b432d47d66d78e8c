package printer

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultNetworkPort is the raw printing port of most LAN receipt printers
const DefaultNetworkPort = 9100

// NetworkConnection represents a network printer connection
type NetworkConnection struct {
	conn net.Conn
	mu   sync.Mutex
}

// ConnectNetwork connects to a network printer
func ConnectNetwork(host string, port int) (*NetworkConnection, error) {
	if port == 0 {
		port = DefaultNetworkPort
	}
	address := net.JoinHostPort(host, fmt.Sprint(port))

	conn, err := net.DialTimeout("tcp", address, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}

	return &NetworkConnection{
		conn: conn,
	}, nil
}

// Write sends data to the network printer
func (c *NetworkConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.Write(data)
}

// Close closes the network connection
func (c *NetworkConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
