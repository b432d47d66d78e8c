package printer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tarm/serial"
	"github.com/thereceipt/kantin-receipt/internal/registry"
)

// detectSerial probes wired serial ports and paired Bluetooth SPP ports
func (m *Manager) detectSerial() ([]*Printer, error) {
	var wired, bluetooth []string

	switch runtime.GOOS {
	case "darwin":
		wired = scanMacOSPorts()
		bluetooth = scanMacOSBluetoothPorts()
	case "linux":
		wired = scanLinuxPorts()
		bluetooth = scanLinuxBluetoothPorts()
	case "windows":
		wired = scanWindowsPorts()
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	var printers []*Printer
	for _, port := range wired {
		if probePort(port) {
			printers = append(printers, m.serialPrinter("serial", port))
		}
	}
	// Bluetooth ports are not opened here; opening one starts an RFCOMM connect
	for _, port := range bluetooth {
		printers = append(printers, m.serialPrinter("bluetooth", port))
	}

	return printers, nil
}

func (m *Manager) serialPrinter(kind, port string) *Printer {
	label := "Serial"
	if kind == "bluetooth" {
		label = "Bluetooth"
	}

	return m.newPrinter(registry.PrinterInfo{
		Type:        kind,
		Device:      port,
		Description: fmt.Sprintf("%s: %s", label, filepath.Base(port)),
	})
}

// probePort briefly opens a port to check that it exists
func probePort(path string) bool {
	port, err := serial.OpenPort(&serial.Config{Name: path, Baud: 9600})
	if err != nil {
		return false
	}
	port.Close()
	return true
}

func isBluetoothPort(path string) bool {
	return strings.Contains(path, "Bluetooth") || strings.Contains(path, "SPP") || strings.Contains(path, "rfcomm")
}

func scanMacOSPorts() []string {
	var ports []string

	skipPatterns := []string{"Bluetooth", "SPP", "Modem", "DialIn", "Callout", "debug-console", "KeySerial"}

	// cu.* is the calling-unit side; tty.* blocks on carrier detect
	matches, _ := filepath.Glob("/dev/cu.*")
	for _, match := range matches {
		skip := false
		for _, pattern := range skipPatterns {
			if strings.Contains(match, pattern) {
				skip = true
				break
			}
		}
		if !skip {
			ports = append(ports, match)
		}
	}

	return ports
}

func scanMacOSBluetoothPorts() []string {
	var ports []string

	matches, _ := filepath.Glob("/dev/cu.*")
	for _, match := range matches {
		if isBluetoothPort(match) && !strings.Contains(match, "Bluetooth-Incoming-Port") {
			ports = append(ports, match)
		}
	}

	return ports
}

func scanLinuxPorts() []string {
	var ports []string

	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
		matches, _ := filepath.Glob(pattern)
		ports = append(ports, matches...)
	}

	return ports
}

func scanLinuxBluetoothPorts() []string {
	ports, _ := filepath.Glob("/dev/rfcomm*")
	return ports
}

func scanWindowsPorts() []string {
	var ports []string

	for i := 1; i <= 256; i++ {
		ports = append(ports, fmt.Sprintf("COM%d", i))
	}

	return ports
}
