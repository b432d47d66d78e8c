// Package printer handles printer detection, connection, and communication
package printer

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/thereceipt/kantin-receipt/internal/registry"
)

// ErrPrinterNotFound is returned when no printer matches an ID or role
var ErrPrinterNotFound = errors.New("printer not found")

// Manager handles printer detection and management
type Manager struct {
	registry *registry.Registry
	printers map[string]*Printer
	mu       sync.RWMutex

	// Event callbacks
	onPrinterAdded   func(*Printer)
	onPrinterRemoved func(string)
}

// Printer represents a detected or manually added printer
type Printer struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"` // usb, serial, bluetooth, network
	Description string        `json:"description"`
	Device      string        `json:"device,omitempty"`
	VID         uint16        `json:"vid,omitempty"`
	PID         uint16        `json:"pid,omitempty"`
	Host        string        `json:"host,omitempty"`
	Port        int           `json:"port,omitempty"`
	Name        string        `json:"name,omitempty"`
	Role        registry.Role `json:"role,omitempty"`
	Columns     int           `json:"columns,omitempty"`
	Raster      bool          `json:"raster,omitempty"`
}

// DisplayName prefers the user-set name over the detected description
func (p *Printer) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Description != "" {
		return p.Description
	}
	return p.ID
}

// NewManager creates a new printer manager
func NewManager(registryPath string) (*Manager, error) {
	reg, err := registry.New(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	m := &Manager{
		registry: reg,
		printers: make(map[string]*Printer),
	}
	m.restoreNetworkPrinters()

	return m, nil
}

// Registry exposes the persistent printer registry
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// DetectPrinters scans for local printers. Network printers added by hand
// are kept because they cannot be discovered.
func (m *Manager) DetectPrinters() ([]*Printer, error) {
	var printers []*Printer

	usbPrinters, err := m.detectUSB()
	if err != nil {
		log.Printf("⚠️  USB detection failed: %v", err)
	} else {
		printers = append(printers, usbPrinters...)
	}

	serialPrinters, err := m.detectSerial()
	if err != nil {
		log.Printf("⚠️  Serial detection failed: %v", err)
	} else {
		printers = append(printers, serialPrinters...)
	}

	m.mu.Lock()
	current := make(map[string]*Printer, len(printers))
	for _, p := range printers {
		current[p.ID] = p
	}
	for id, p := range m.printers {
		if p.Type == "network" {
			current[id] = p
			printers = append(printers, p)
		}
	}
	m.printers = current
	m.mu.Unlock()

	sortPrinters(printers)
	return printers, nil
}

// GetPrinter returns a printer by ID
func (m *Manager) GetPrinter(id string) *Printer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.printers[id]
}

// GetAllPrinters returns all known printers ordered by display name
func (m *Manager) GetAllPrinters() []*Printer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Printer, 0, len(m.printers))
	for _, p := range m.printers {
		result = append(result, p)
	}
	sortPrinters(result)
	return result
}

// SetPrinterName sets a custom name for a printer
func (m *Manager) SetPrinterName(id string, name string) bool {
	success := m.registry.SetPrinterName(id, name)

	if success {
		m.mu.Lock()
		if printer, exists := m.printers[id]; exists {
			printer.Name = name
		}
		m.mu.Unlock()
	}

	return success
}

// SetPrinterSettings stores role, paper width and raster mode for a printer
func (m *Manager) SetPrinterSettings(id string, s registry.Settings) error {
	if err := m.registry.SetSettings(id, s); err != nil {
		return err
	}

	m.mu.Lock()
	if printer, exists := m.printers[id]; exists {
		printer.Role = s.Role
		printer.Columns = s.Columns
		printer.Raster = s.Raster
	}
	m.mu.Unlock()

	return nil
}

// AddNetworkPrinter manually adds a network printer
func (m *Manager) AddNetworkPrinter(host string, port int, description string) string {
	if port == 0 {
		port = DefaultNetworkPort
	}
	if description == "" {
		description = fmt.Sprintf("Network: %s:%d", host, port)
	}

	printer := m.newPrinter(registry.PrinterInfo{
		Type:        "network",
		Host:        host,
		Port:        port,
		Description: description,
	})

	m.mu.Lock()
	m.printers[printer.ID] = printer
	m.mu.Unlock()

	if m.onPrinterAdded != nil {
		m.onPrinterAdded(printer)
	}

	return printer.ID
}

// ResolvePrinter picks the printer for a document when the caller named none:
// the first available printer with the role, else the only available printer.
func (m *Manager) ResolvePrinter(role registry.Role) (*Printer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.registry.FindByRole(role) {
		if p, ok := m.printers[id]; ok {
			return p, nil
		}
	}

	if len(m.printers) == 1 {
		for _, p := range m.printers {
			return p, nil
		}
	}

	if role == registry.RoleNone {
		return nil, fmt.Errorf("%w: no default printer", ErrPrinterNotFound)
	}
	return nil, fmt.Errorf("%w: no %s printer available", ErrPrinterNotFound, role)
}

// OnPrinterAdded sets a callback for when a printer is added
func (m *Manager) OnPrinterAdded(callback func(*Printer)) {
	m.onPrinterAdded = callback
}

// OnPrinterRemoved sets a callback for when a printer is removed
func (m *Manager) OnPrinterRemoved(callback func(string)) {
	m.onPrinterRemoved = callback
}

// newPrinter registers info and fills in the stored name and settings
func (m *Manager) newPrinter(info registry.PrinterInfo) *Printer {
	id := m.registry.GetPrinterID(info)
	settings := m.registry.GetSettings(id)

	return &Printer{
		ID:          id,
		Type:        info.Type,
		Description: info.Description,
		Device:      info.Device,
		VID:         info.VID,
		PID:         info.PID,
		Host:        info.Host,
		Port:        info.Port,
		Name:        m.registry.GetPrinterName(id),
		Role:        settings.Role,
		Columns:     settings.Columns,
		Raster:      settings.Raster,
	}
}

func (m *Manager) restoreNetworkPrinters() {
	for _, entry := range m.registry.GetAll() {
		if entry.Type != "network" {
			continue
		}
		m.printers[entry.ID] = &Printer{
			ID:          entry.ID,
			Type:        entry.Type,
			Description: entry.Description,
			Host:        entry.Host,
			Port:        entry.Port,
			Name:        entry.Name,
			Role:        entry.Role,
			Columns:     entry.Columns,
			Raster:      entry.Raster,
		}
	}
}

func sortPrinters(printers []*Printer) {
	sort.Slice(printers, func(i, j int) bool {
		a, b := printers[i].DisplayName(), printers[j].DisplayName()
		if a != b {
			return a < b
		}
		return printers[i].ID < printers[j].ID
	})
}
