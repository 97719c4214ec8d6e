package dap

import (
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

// DP registers
const (
	DPIDR    = 0x0 // read
	DPAbort  = 0x0 // write
	DPCtrl   = 0x4
	DPSelect = 0x8
	DPRdBuff = 0xC
)

// MEM-AP registers
const (
	APCSW  = 0x00
	APTAR  = 0x04
	APDRW  = 0x0C
	APBase = 0xF8
	APIDR  = 0xFC
)

const (
	ctrlPowerUpReq = 0x50000000 // CSYSPWRUPREQ | CDBGPWRUPREQ
	ctrlPowerUpAck = 0xA0000000 // CSYSPWRUPACK | CDBGPWRUPACK

	abortClearAll = 0x1E // ORUNERRCLR | WDERRCLR | STKERRCLR | STKCMPCLR

	// 32-bit accesses, no auto-increment, privileged data master access
	cswWord = 0x23000002
)

// swjToSWD is line reset, the JTAG-to-SWD select sequence 0xE79E, a second
// line reset and idle cycles, all LSB first.
var swjToSWD = []byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0x9E, 0xE7,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0x00,
}

// Probe is a CMSIS-DAP probe attached over SWD to one MEM-AP.
type Probe struct {
	transport Transport
	protocol  *Protocol
	cfg       *Config

	name   string
	serial string
	dpidr  uint32

	// cached DP SELECT
	selected    uint32
	selectValid bool

	mu sync.Mutex
}

// Open finds the probe described by cfg on USB and attaches to the target.
func Open(cfg *Config) (*Probe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	transport, err := NewUSBTransport(cfg)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open USB device")
	}
	p, err := NewProbe(transport, cfg)
	if err != nil {
		transport.Close()
		return nil, errors.Trace(err)
	}
	return p, nil
}

// NewProbe attaches through an open transport: it switches the probe to
// SWD, powers up the debug port and configures the MEM-AP.
func NewProbe(transport Transport, cfg *Config) (*Probe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	p := &Probe{
		transport: transport,
		protocol:  NewProtocol(transport.PacketSize()),
		cfg:       cfg,
	}
	if err := p.queryInfo(); err != nil {
		return nil, errors.Annotatef(err, "failed to query probe info")
	}
	if err := p.connect(); err != nil {
		return nil, errors.Annotatef(err, "failed to connect SWD")
	}
	if err := p.powerUp(); err != nil {
		return nil, errors.Annotatef(err, "failed to power up debug port")
	}
	return p, nil
}

// queryInfo retrieves the probe's identity strings
func (p *Probe) queryInfo() error {
	info := func(id byte) (string, error) {
		resp, err := p.transport.WriteRead(p.protocol.EncodeInfo(id))
		if err != nil {
			return "", err
		}
		return p.protocol.DecodeInfo(resp)
	}

	vendor, err := info(InfoVendorName)
	if err != nil {
		return errors.Trace(err)
	}
	// optional on many firmwares
	product, _ := info(InfoProductName)
	serial, _ := info(InfoSerialNum)
	firmware, _ := info(InfoFirmwareVer)

	p.name = strings.TrimSpace(vendor + " " + product)
	if p.name == "" {
		p.name = "CMSIS-DAP"
	}
	p.serial = serial
	glog.V(1).Infof("probe %q serial %q firmware %q", p.name, serial, firmware)
	return nil
}

func (p *Probe) command(cmd []byte, decode func([]byte) error) error {
	resp, err := p.transport.WriteRead(cmd)
	if err != nil {
		return errors.Trace(err)
	}
	return decode(resp)
}

// connect selects SWD and runs the JTAG-to-SWD switch
func (p *Probe) connect() error {
	resp, err := p.transport.WriteRead(p.protocol.EncodeConnect(PortSWD))
	if err != nil {
		return errors.Trace(err)
	}
	port, err := p.protocol.DecodeConnect(resp)
	if err != nil {
		return errors.Trace(err)
	}
	if port != PortSWD {
		return errors.Errorf("probe connected port %d, not SWD", port)
	}

	if err := p.command(p.protocol.EncodeSetClock(p.cfg.ClockHz), p.protocol.DecodeSetClock); err != nil {
		return errors.Annotatef(err, "set clock")
	}
	if err := p.command(p.protocol.EncodeTransferConfigure(0, p.cfg.WaitRetry, p.cfg.MatchRetry), p.protocol.DecodeTransferConfigure); err != nil {
		return errors.Annotatef(err, "transfer configure")
	}
	if err := p.command(p.protocol.EncodeSWDConfigure(1, false), p.protocol.DecodeSWDConfigure); err != nil {
		return errors.Annotatef(err, "SWD configure")
	}

	seq, err := p.protocol.EncodeSWJSequence(len(swjToSWD)*8, swjToSWD)
	if err != nil {
		return errors.Trace(err)
	}
	if err := p.command(seq, p.protocol.DecodeSWJSequence); err != nil {
		return errors.Annotatef(err, "JTAG-to-SWD sequence")
	}

	// reading DPIDR completes the line reset
	vals, err := p.transfer(Transfer{Read: true, Addr: DPIDR})
	if err != nil {
		return errors.Annotatef(err, "read DPIDR")
	}
	p.dpidr = vals[0]
	glog.V(1).Infof("DPIDR: 0x%08x", p.dpidr)
	return nil
}

func (p *Probe) powerUp() error {
	if _, err := p.transfer(
		Transfer{Addr: DPAbort, Value: abortClearAll},
		Transfer{Addr: DPCtrl, Value: ctrlPowerUpReq},
	); err != nil {
		return errors.Trace(err)
	}

	for i := 0; ; i++ {
		vals, err := p.transfer(Transfer{Read: true, Addr: DPCtrl})
		if err != nil {
			return errors.Trace(err)
		}
		if vals[0]&ctrlPowerUpAck == ctrlPowerUpAck {
			break
		}
		if i >= p.cfg.PollLimit {
			return errors.Errorf("no power-up ack (CTRL/STAT 0x%08x)", vals[0])
		}
	}

	if err := p.writeAP(APCSW, cswWord); err != nil {
		return errors.Annotatef(err, "write CSW")
	}
	idr, err := p.readAP(APIDR)
	if err != nil {
		return errors.Annotatef(err, "read AP IDR")
	}
	if idr == 0 {
		return errors.Errorf("no access port at APSEL %d", p.cfg.APSel)
	}
	glog.V(1).Infof("AP%d IDR: 0x%08x", p.cfg.APSel, idr)
	return nil
}

// transfer issues one DAP_Transfer and returns the read values.
func (p *Probe) transfer(xfers ...Transfer) ([]uint32, error) {
	cmd, err := p.protocol.EncodeTransfer(0, xfers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	resp, err := p.transport.WriteRead(cmd)
	if err != nil {
		return nil, errors.Trace(err)
	}
	vals, err := p.protocol.DecodeTransfer(resp, xfers)
	if err != nil {
		// a FAULT leaves sticky errors set
		p.selectValid = false
		if _, aerr := p.rawTransfer(Transfer{Addr: DPAbort, Value: abortClearAll}); aerr != nil {
			glog.Warningf("failed to clear sticky errors: %v", aerr)
		}
		return nil, errors.Trace(err)
	}
	glog.V(3).Infof("transfer %v -> %x", xfers, vals)
	return vals, nil
}

func (p *Probe) rawTransfer(x Transfer) ([]uint32, error) {
	cmd, err := p.protocol.EncodeTransfer(0, []Transfer{x})
	if err != nil {
		return nil, err
	}
	resp, err := p.transport.WriteRead(cmd)
	if err != nil {
		return nil, err
	}
	return p.protocol.DecodeTransfer(resp, []Transfer{x})
}

// selectAP returns the SELECT write needed to reach an AP register bank,
// if any.
func (p *Probe) selectAP(addr uint8) []Transfer {
	sel := uint32(p.cfg.APSel)<<24 | uint32(addr&0xF0)
	if p.selectValid && p.selected == sel {
		return nil
	}
	p.selected = sel
	p.selectValid = true
	return []Transfer{{Addr: DPSelect, Value: sel}}
}

func (p *Probe) readAP(addr uint8) (uint32, error) {
	xfers := append(p.selectAP(addr), Transfer{AP: true, Read: true, Addr: addr})
	vals, err := p.transfer(xfers...)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

func (p *Probe) writeAP(addr uint8, val uint32) error {
	xfers := append(p.selectAP(addr), Transfer{AP: true, Addr: addr, Value: val})
	_, err := p.transfer(xfers...)
	return err
}

// Close disconnects and releases the transport.
func (p *Probe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.command(p.protocol.EncodeDisconnect(), p.protocol.DecodeDisconnect); err != nil {
		glog.Warningf("disconnect: %v", err)
	}
	return p.transport.Close()
}
