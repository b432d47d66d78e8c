package registry

import (
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "printers.json")
	reg, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	return reg, path
}

func TestGetPrinterID_StableForSameDevice(t *testing.T) {
	reg, _ := newTestRegistry(t)

	tests := []PrinterInfo{
		{Type: "usb", VID: 0x0416, PID: 0x5011, Description: "POS-58"},
		{Type: "serial", Device: "/dev/ttyUSB0", Description: "Serial: ttyUSB0"},
		{Type: "bluetooth", Device: "/dev/rfcomm0", Description: "Bluetooth: rfcomm0"},
		{Type: "network", Host: "192.168.1.50", Port: 9100, Description: "Network Printer"},
	}

	for _, info := range tests {
		t.Run(info.Type, func(t *testing.T) {
			id1 := reg.GetPrinterID(info)
			if id1 == "" {
				t.Fatal("Expected non-empty printer ID")
			}
			id2 := reg.GetPrinterID(info)
			if id1 != id2 {
				t.Errorf("Expected same ID for same printer: %s != %s", id1, id2)
			}
		})
	}
}

func TestGetPrinterID_SerialAndBluetoothDiffer(t *testing.T) {
	reg, _ := newTestRegistry(t)

	serial := reg.GetPrinterID(PrinterInfo{Type: "serial", Device: "/dev/rfcomm0"})
	bt := reg.GetPrinterID(PrinterInfo{Type: "bluetooth", Device: "/dev/rfcomm0"})
	if serial == bt {
		t.Error("Expected separate identities for serial and bluetooth entries")
	}
}

func TestSetAndGetPrinterName(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.GetPrinterID(PrinterInfo{Type: "usb", VID: 0x04B8, PID: 0x0E15, Description: "Epson TM-T20"})

	if !reg.SetPrinterName(id, "Kasir Depan") {
		t.Error("Expected successful name set")
	}
	if name := reg.GetPrinterName(id); name != "Kasir Depan" {
		t.Errorf("Expected 'Kasir Depan', got '%s'", name)
	}
	if reg.SetPrinterName("missing", "x") {
		t.Error("Expected failure for unknown printer")
	}
}

func TestSettings(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := reg.GetPrinterID(PrinterInfo{Type: "network", Host: "10.0.0.9", Port: 9100})

	if err := reg.SetSettings(id, Settings{Role: RoleKitchen, Columns: 24}); err != nil {
		t.Fatalf("Failed to set settings: %v", err)
	}

	s := reg.GetSettings(id)
	if s.Role != RoleKitchen || s.Columns != 24 || s.Raster {
		t.Errorf("Unexpected settings: %+v", s)
	}

	if err := reg.SetSettings(id, Settings{Columns: 40}); err == nil {
		t.Error("Expected error for invalid columns")
	}
	if err := reg.SetSettings(id, Settings{Role: "bar"}); err == nil {
		t.Error("Expected error for invalid role")
	}
	if err := reg.SetSettings("missing", Settings{}); err == nil {
		t.Error("Expected error for unknown printer")
	}
}

func TestFindByRole(t *testing.T) {
	reg, _ := newTestRegistry(t)

	kitchenB := reg.GetPrinterID(PrinterInfo{Type: "network", Host: "10.0.0.2", Port: 9100})
	kitchenA := reg.GetPrinterID(PrinterInfo{Type: "network", Host: "10.0.0.3", Port: 9100})
	cashier := reg.GetPrinterID(PrinterInfo{Type: "usb", VID: 1, PID: 2})

	reg.SetPrinterName(kitchenB, "Dapur B")
	reg.SetPrinterName(kitchenA, "Dapur A")
	reg.SetSettings(kitchenB, Settings{Role: RoleKitchen})
	reg.SetSettings(kitchenA, Settings{Role: RoleKitchen})
	reg.SetSettings(cashier, Settings{Role: RoleCashier})

	ids := reg.FindByRole(RoleKitchen)
	if len(ids) != 2 {
		t.Fatalf("Expected 2 kitchen printers, got %d", len(ids))
	}
	if ids[0] != kitchenA || ids[1] != kitchenB {
		t.Errorf("Expected kitchen printers ordered by name, got %v", ids)
	}

	if got := reg.FindByRole(RoleCashier); len(got) != 1 || got[0] != cashier {
		t.Errorf("Expected cashier printer, got %v", got)
	}
}

func TestGetPrinterInfo(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.GetPrinterID(PrinterInfo{Type: "usb", VID: 0x04B8, PID: 0x0E15, Description: "Test Printer"})
	reg.SetPrinterName(id, "Front Counter")

	entry := reg.GetPrinterInfo(id)
	if entry == nil {
		t.Fatal("Expected printer info, got nil")
	}
	if entry.Type != "usb" {
		t.Errorf("Expected type 'usb', got '%s'", entry.Type)
	}
	if entry.VID != 0x04B8 {
		t.Errorf("Expected VID 0x04B8, got 0x%04X", entry.VID)
	}
	if entry.Name != "Front Counter" {
		t.Errorf("Expected name 'Front Counter', got '%s'", entry.Name)
	}
}

func TestRemovePrinter(t *testing.T) {
	reg, _ := newTestRegistry(t)

	id := reg.GetPrinterID(PrinterInfo{Type: "usb", VID: 0x1234, PID: 0x5678})

	if !reg.RemovePrinter(id) {
		t.Error("Expected successful removal")
	}
	if reg.GetPrinterInfo(id) != nil {
		t.Error("Expected nil after removal")
	}
}

func TestPersistence(t *testing.T) {
	reg1, path := newTestRegistry(t)
	info := PrinterInfo{Type: "usb", VID: 0xAAAA, PID: 0xBBBB, Description: "Persistent Printer"}

	id1 := reg1.GetPrinterID(info)
	reg1.SetPrinterName(id1, "Persistent Name")
	reg1.SetSettings(id1, Settings{Role: RoleCashier, Columns: 32, Raster: true})

	reg2, err := New(path)
	if err != nil {
		t.Fatalf("Failed to reload registry: %v", err)
	}

	id2 := reg2.GetPrinterID(info)
	if id1 != id2 {
		t.Errorf("Expected same ID after reload: %s != %s", id1, id2)
	}
	if name := reg2.GetPrinterName(id2); name != "Persistent Name" {
		t.Errorf("Expected 'Persistent Name', got '%s'", name)
	}
	if s := reg2.GetSettings(id2); s.Role != RoleCashier || s.Columns != 32 || !s.Raster {
		t.Errorf("Expected settings to persist, got %+v", s)
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"", "cashier", "kitchen"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("Expected %q to be valid: %v", s, err)
		}
	}
	if _, err := ParseRole("bar"); err == nil {
		t.Error("Expected error for unknown role")
	}
}
