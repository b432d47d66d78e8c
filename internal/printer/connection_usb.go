package printer

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

// USBConnection represents a USB printer connection
type USBConnection struct {
	ctx      *gousb.Context
	device   *gousb.Device
	iface    *gousb.Interface
	endpoint *gousb.OutEndpoint
	mu       sync.Mutex
}

// ConnectUSB connects to a USB printer.
// Returns an error if libusb is not available.
func ConnectUSB(vid, pid uint16) (*USBConnection, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("device not found: %04X:%04X", vid, pid)
	}

	conn := &USBConnection{ctx: ctx, device: dev}

	// Most printers work with interface 0, alt setting 0
	iface, _, err := dev.DefaultInterface()
	if err != nil {
		dev.SetAutoDetach(true)
		iface, _, err = dev.DefaultInterface()
	}
	if err == nil {
		if ep := findOutEndpoint(iface); ep != nil {
			conn.iface, conn.endpoint = iface, ep
			return conn, nil
		}
		iface.Close()
	}

	// Fall back to walking every configuration and interface
	var lastErr error
	for _, cfgDesc := range dev.Desc.Configs {
		cfg, err := dev.Config(cfgDesc.Number)
		if err != nil {
			lastErr = fmt.Errorf("failed to set config %d: %w", cfgDesc.Number, err)
			continue
		}

		for _, ifaceDesc := range cfgDesc.Interfaces {
			iface, err := cfg.Interface(ifaceDesc.Number, 0)
			if err != nil {
				// Kernel driver detach can lag behind the first claim
				time.Sleep(100 * time.Millisecond)
				iface, err = cfg.Interface(ifaceDesc.Number, 0)
				if err != nil {
					lastErr = fmt.Errorf("failed to claim interface %d: %w", ifaceDesc.Number, err)
					continue
				}
			}

			if ep := findOutEndpoint(iface); ep != nil {
				conn.iface, conn.endpoint = iface, ep
				return conn, nil
			}
			iface.Close()
		}

		cfg.Close()
	}

	dev.Close()
	ctx.Close()

	if lastErr != nil {
		return nil, fmt.Errorf("failed to connect to USB printer: %w", lastErr)
	}
	return nil, fmt.Errorf("no suitable interface/endpoint found for USB printer %04X:%04X", vid, pid)
}

func findOutEndpoint(iface *gousb.Interface) *gousb.OutEndpoint {
	for _, epDesc := range iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		if ep, err := iface.OutEndpoint(epDesc.Number); err == nil {
			return ep
		}
	}
	return nil
}

// Write sends data to the USB printer
func (c *USBConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.endpoint.Write(data)
}

// Close closes the USB connection
func (c *USBConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.iface != nil {
		c.iface.Close()
	}
	if c.device != nil {
		c.device.Close()
	}
	if c.ctx != nil {
		return c.ctx.Close()
	}

	return nil
}
