package printer

import (
	"fmt"

	"github.com/google/gousb"
	"github.com/thereceipt/kantin-receipt/internal/registry"
)

// detectUSB detects USB printers using libusb
func (m *Manager) detectUSB() ([]*Printer, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var printers []*Printer

	// Many receipt printers report class 0 on the device and 7 on the interface
	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return isPrinterClass(desc)
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	for _, dev := range devices {
		desc := dev.Desc

		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()

		description := fmt.Sprintf("USB: %04X:%04X", desc.Vendor, desc.Product)
		if manufacturer != "" || product != "" {
			description = fmt.Sprintf("USB: %s %s (%04X:%04X)",
				manufacturer, product, desc.Vendor, desc.Product)
		}

		printers = append(printers, m.newPrinter(registry.PrinterInfo{
			Type:        "usb",
			VID:         uint16(desc.Vendor),
			PID:         uint16(desc.Product),
			Description: description,
		}))
		dev.Close()
	}

	return printers, nil
}

func isPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}

	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}
