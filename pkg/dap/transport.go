package dap

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/juju/errors"
)

const (
	// Raspberry Pi debugprobe USB identifiers
	VendorIDRaspberryPi = 0x2E8A
	ProductIDCMSISDAP   = 0x000C

	// Default packet size for CMSIS-DAP v2 full-speed probes
	DefaultPacketSize = 64
	DefaultTimeout    = 5 * time.Second
)

// Transport carries CMSIS-DAP command/response packets.
type Transport interface {
	WriteRead(cmd []byte) ([]byte, error)
	PacketSize() int
	Close() error
}

// USBTransport talks to a CMSIS-DAP v2 probe over its vendor bulk interface.
type USBTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	packetSize int
	timeout    time.Duration
}

// NewUSBTransport opens the first probe matching cfg's VID, PID and serial.
func NewUSBTransport(cfg *Config) (*USBTransport, error) {
	ctx := gousb.NewContext()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == cfg.VendorID && uint16(desc.Product) == cfg.ProductID
	})
	// OpenDevices may return partial results with an error
	if err != nil && len(devs) == 0 {
		ctx.Close()
		return nil, errors.Annotatef(err, "USB error")
	}

	var dev *gousb.Device
	for _, d := range devs {
		if dev != nil {
			d.Close()
			continue
		}
		if cfg.Serial != "" {
			serial, _ := d.SerialNumber()
			if serial != cfg.Serial {
				d.Close()
				continue
			}
		}
		dev = d
	}
	if dev == nil {
		ctx.Close()
		return nil, errors.NotFoundf("CMSIS-DAP probe %04X:%04X serial %q", cfg.VendorID, cfg.ProductID, cfg.Serial)
	}

	// not supported on every platform
	if err := dev.SetAutoDetach(true); err != nil {
		glog.V(1).Infof("auto-detach: %v", err)
	}

	t := &USBTransport{
		ctx:        ctx,
		dev:        dev,
		packetSize: DefaultPacketSize,
		timeout:    cfg.Timeout,
	}
	if err := t.claimInterface(); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}
	return t, nil
}

// claimInterface finds and claims the CMSIS-DAP vendor interface
func (t *USBTransport) claimInterface() error {
	cfg, err := t.dev.Config(1)
	if err != nil {
		return errors.Annotatef(err, "failed to get config")
	}
	t.cfg = cfg

	// CMSIS-DAP v2 uses a vendor-specific class interface
	vendorIntf := -1
	for _, intf := range cfg.Desc.Interfaces {
		if len(intf.AltSettings) > 0 && intf.AltSettings[0].Class == gousb.ClassVendorSpec {
			vendorIntf = intf.Number
			break
		}
	}
	if vendorIntf == -1 {
		vendorIntf = 0
	}

	intf, err := cfg.Interface(vendorIntf, 0)
	if err != nil {
		return errors.Annotatef(err, "failed to claim interface %d", vendorIntf)
	}
	t.intf = intf

	return t.findEndpoints()
}

// findEndpoints discovers the bulk IN and OUT endpoints
func (t *USBTransport) findEndpoints() error {
	var outAddr, inAddr int
	for _, ep := range t.intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch {
		case ep.Direction == gousb.EndpointDirectionOut && outAddr == 0:
			outAddr = ep.Number
		case ep.Direction == gousb.EndpointDirectionIn && inAddr == 0:
			inAddr = ep.Number
			t.packetSize = ep.MaxPacketSize
		}
	}
	if outAddr == 0 {
		return errors.NotFoundf("bulk OUT endpoint")
	}
	if inAddr == 0 {
		return errors.NotFoundf("bulk IN endpoint")
	}

	epOut, err := t.intf.OutEndpoint(outAddr)
	if err != nil {
		return errors.Annotatef(err, "failed to open OUT endpoint")
	}
	t.epOut = epOut

	epIn, err := t.intf.InEndpoint(inAddr)
	if err != nil {
		return errors.Annotatef(err, "failed to open IN endpoint")
	}
	t.epIn = epIn
	return nil
}

// WriteRead performs one command/response transaction.
func (t *USBTransport) WriteRead(cmd []byte) ([]byte, error) {
	if len(cmd) > t.packetSize {
		return nil, errors.Errorf("command of %d bytes exceeds packet size %d", len(cmd), t.packetSize)
	}
	packet := make([]byte, t.packetSize)
	copy(packet, cmd)

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if _, err := t.epOut.WriteContext(ctx, packet); err != nil {
		return nil, errors.Annotatef(err, "USB write failed")
	}

	resp := make([]byte, t.packetSize)
	n, err := t.epIn.ReadContext(ctx, resp)
	if err != nil {
		return nil, errors.Annotatef(err, "USB read failed")
	}
	glog.V(4).Infof("DAP % x -> % x", cmd, resp[:n])
	return resp[:n], nil
}

// PacketSize returns the probe's packet size.
func (t *USBTransport) PacketSize() int {
	return t.packetSize
}

// Close releases USB resources.
func (t *USBTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	if t.cfg != nil {
		t.cfg.Close()
		t.cfg = nil
	}
	if t.dev != nil {
		t.dev.Close()
		t.dev = nil
	}
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	return nil
}
