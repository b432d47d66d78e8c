// Package registry persists printer identities, names and print roles
package registry

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Role decides which documents a printer receives when no printer is named
type Role string

const (
	RoleNone    Role = ""
	RoleCashier Role = "cashier"
	RoleKitchen Role = "kitchen"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleNone, RoleCashier, RoleKitchen:
		return Role(s), nil
	}
	return RoleNone, fmt.Errorf("invalid role %q (must be cashier or kitchen)", s)
}

// Registry manages printer identities and user settings
type Registry struct {
	filePath string
	data     map[string]*PrinterEntry
	mu       sync.RWMutex
}

// PrinterEntry stores persistent information about a printer
type PrinterEntry struct {
	ID          string `json:"id"`
	IdentityKey string `json:"identity_key"`
	Type        string `json:"type"` // usb, serial, bluetooth, network
	VID         uint16 `json:"vid,omitempty"`
	PID         uint16 `json:"pid,omitempty"`
	Device      string `json:"device,omitempty"`
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port,omitempty"`
	Description string `json:"description"`
	Name        string `json:"name,omitempty"`
	Role        Role   `json:"role,omitempty"`
	Columns     int    `json:"columns,omitempty"` // 24 or 32, 0 = server default
	Raster      bool   `json:"raster,omitempty"`  // print as image instead of text
}

// Settings are the user-editable print options of a printer
type Settings struct {
	Role    Role `json:"role"`
	Columns int  `json:"columns"`
	Raster  bool `json:"raster"`
}

// PrinterInfo represents basic printer information for detection
type PrinterInfo struct {
	Type        string
	Description string
	Device      string
	VID         uint16
	PID         uint16
	Host        string
	Port        int
}

// New creates a new Registry
func New(filePath string) (*Registry, error) {
	r := &Registry{
		filePath: filePath,
		data:     make(map[string]*PrinterEntry),
	}

	if err := r.load(); err != nil {
		// Missing file is created on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
	}

	return r, nil
}

// GetPrinterID gets or creates a persistent ID for a printer
func (r *Registry) GetPrinterID(info PrinterInfo) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	identityKey := generateIdentityKey(info)

	if entry, exists := r.data[identityKey]; exists {
		return entry.ID
	}

	printerID := uuid.New().String()

	r.data[identityKey] = &PrinterEntry{
		ID:          printerID,
		IdentityKey: identityKey,
		Type:        info.Type,
		VID:         info.VID,
		PID:         info.PID,
		Device:      info.Device,
		Host:        info.Host,
		Port:        info.Port,
		Description: info.Description,
	}

	r.persist()

	return printerID
}

// GetPrinterName gets the custom name for a printer, or empty string if not set
func (r *Registry) GetPrinterName(printerID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry := r.find(printerID); entry != nil {
		return entry.Name
	}
	return ""
}

// SetPrinterName sets a custom name for a printer
func (r *Registry) SetPrinterName(printerID string, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.find(printerID)
	if entry == nil {
		return false
	}
	entry.Name = name
	r.persist()
	return true
}

// GetSettings returns the print settings of a printer
func (r *Registry) GetSettings(printerID string) Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry := r.find(printerID); entry != nil {
		return Settings{Role: entry.Role, Columns: entry.Columns, Raster: entry.Raster}
	}
	return Settings{}
}

// SetSettings stores role, paper width and raster mode for a printer
func (r *Registry) SetSettings(printerID string, s Settings) error {
	if _, err := ParseRole(string(s.Role)); err != nil {
		return err
	}
	if s.Columns != 0 && s.Columns != 24 && s.Columns != 32 {
		return fmt.Errorf("invalid columns %d (must be 24 or 32)", s.Columns)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.find(printerID)
	if entry == nil {
		return fmt.Errorf("printer not registered: %s", printerID)
	}
	entry.Role = s.Role
	entry.Columns = s.Columns
	entry.Raster = s.Raster
	r.persist()
	return nil
}

// FindByRole returns the IDs of printers assigned to role, ordered by name
func (r *Registry) FindByRole(role Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*PrinterEntry
	for _, entry := range r.data {
		if entry.Role == role {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ID < entries[j].ID
	})

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	return ids
}

// GetPrinterInfo gets all stored information for a printer
func (r *Registry) GetPrinterInfo(printerID string) *PrinterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry := r.find(printerID); entry != nil {
		entryCopy := *entry
		return &entryCopy
	}
	return nil
}

// RemovePrinter removes a printer from the registry
func (r *Registry) RemovePrinter(printerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.data {
		if entry.ID == printerID {
			delete(r.data, key)
			r.persist()
			return true
		}
	}
	return false
}

// GetAll returns all registered printers
func (r *Registry) GetAll() map[string]*PrinterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*PrinterEntry, len(r.data))
	for k, v := range r.data {
		entryCopy := *v
		result[k] = &entryCopy
	}
	return result
}

func (r *Registry) find(printerID string) *PrinterEntry {
	for _, entry := range r.data {
		if entry.ID == printerID {
			return entry
		}
	}
	return nil
}

// persist saves under the caller's lock; failures are retried on the next change
func (r *Registry) persist() {
	if err := r.save(); err != nil {
		log.Printf("⚠️  failed to save printer registry: %v", err)
	}
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &r.data)
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.filePath, data, 0644)
}

// generateIdentityKey creates a unique key for a printer based on its characteristics
func generateIdentityKey(info PrinterInfo) string {
	switch info.Type {
	case "usb":
		if info.VID != 0 && info.PID != 0 {
			return fmt.Sprintf("usb:%04X:%04X", info.VID, info.PID)
		}
	case "serial", "bluetooth":
		if info.Device != "" {
			return fmt.Sprintf("%s:%s", info.Type, info.Device)
		}
	case "network":
		if info.Host != "" {
			return fmt.Sprintf("network:%s:%d", info.Host, info.Port)
		}
	}

	hash := md5.Sum([]byte(info.Description))
	return fmt.Sprintf("hash:%x", hash)
}
