package printer

import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"
)

// PrinterConnection is a unified interface for all printer types
type PrinterConnection interface {
	Write(data []byte) (int, error)
	Close() error
}

// bluetoothPause spaces out chunks so SPP adapters can drain their buffer
const bluetoothPause = 20 * time.Millisecond

// ConnectionPool manages connections to printers
type ConnectionPool struct {
	connections map[string]PrinterConnection
	pauses      map[string]time.Duration
	mu          sync.RWMutex
}

// NewConnectionPool creates a new connection pool
func NewConnectionPool() *ConnectionPool {
	return &ConnectionPool{
		connections: make(map[string]PrinterConnection),
		pauses:      make(map[string]time.Duration),
	}
}

// Connect establishes a connection to a printer
func (p *ConnectionPool) Connect(printer *Printer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.connections[printer.ID]; exists {
		return nil
	}

	var conn PrinterConnection
	var err error
	var pause time.Duration

	switch printer.Type {
	case "usb":
		conn, err = ConnectUSB(printer.VID, printer.PID)
		// macOS often exposes USB printers only as serial devices
		if err != nil && runtime.GOOS == "darwin" {
			for _, port := range scanMacOSPorts() {
				serialConn, serialErr := ConnectSerial(port, 9600)
				if serialErr == nil {
					conn = serialConn
					err = nil
					break
				}
			}
		}
	case "serial":
		conn, err = ConnectSerial(printer.Device, 9600)
	case "bluetooth":
		conn, err = ConnectSerial(printer.Device, 115200)
		pause = bluetoothPause
	case "network":
		conn, err = ConnectNetwork(printer.Host, printer.Port)
	default:
		return fmt.Errorf("unsupported printer type: %s", printer.Type)
	}

	if err != nil {
		return err
	}

	p.connections[printer.ID] = conn
	p.pauses[printer.ID] = pause
	return nil
}

// Attach registers an already-open connection under printerID
func (p *ConnectionPool) Attach(printerID string, conn PrinterConnection) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.connections[printerID] = conn
	p.pauses[printerID] = 0
}

// Send writes raw ESC/POS bytes to a printer in ChunkSize pieces
func (p *ConnectionPool) Send(printerID string, data []byte) error {
	p.mu.RLock()
	conn, exists := p.connections[printerID]
	pause := p.pauses[printerID]
	p.mu.RUnlock()

	if !exists {
		return fmt.Errorf("printer not connected: %s", printerID)
	}

	if err := writeChunked(conn, data, ChunkSize, pause); err != nil {
		// A failed write usually means the device went away; reconnect next time
		p.Disconnect(printerID)
		return err
	}
	return nil
}

// PrintImage sends an image as a raster print job
func (p *ConnectionPool) PrintImage(printerID string, img image.Image) error {
	return p.Send(printerID, EncodeImageToESCPOS(img))
}

// Disconnect closes a printer connection
func (p *ConnectionPool) Disconnect(printerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, exists := p.connections[printerID]
	if !exists {
		return nil
	}

	err := conn.Close()
	delete(p.connections, printerID)
	delete(p.pauses, printerID)

	return err
}

// DisconnectAll closes all connections
func (p *ConnectionPool) DisconnectAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, conn := range p.connections {
		conn.Close()
		delete(p.connections, id)
		delete(p.pauses, id)
	}
}

// IsConnected checks if a printer is connected
func (p *ConnectionPool) IsConnected(printerID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, exists := p.connections[printerID]
	return exists
}
