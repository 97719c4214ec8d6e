package dap

import (
	"encoding/binary"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/sim"
)

// fakeDAP answers CMSIS-DAP packets like a debugprobe wired to a simulated
// target. DHCSR and DCRSR writes drive the simulated core.
type fakeDAP struct {
	vendor, product, serial string

	target *sim.Core

	dpidr      uint32
	ctrl       uint32
	sel        uint32
	tar        uint32
	csw        uint32
	apIDR      uint32
	apBase     uint32
	noPowerAck bool

	aborts  int
	selects int
	closed  bool
}

func newFakeDAP(target *sim.Core) *fakeDAP {
	return &fakeDAP{
		vendor:  "Raspberry Pi",
		product: "Debugprobe on Pico (CMSIS-DAP)",
		serial:  "E6614C311B8F6B2A",
		target:  target,
		dpidr:   0x0BC12477,
		apIDR:   0x04770031,
		apBase:  cortex.RegROMBase | 0x3,
	}
}

func (f *fakeDAP) PacketSize() int { return DefaultPacketSize }

func (f *fakeDAP) Close() error {
	f.closed = true
	return nil
}

func (f *fakeDAP) WriteRead(cmd []byte) ([]byte, error) {
	switch cmd[0] {
	case CmdInfo:
		var s string
		switch cmd[1] {
		case InfoVendorName:
			s = f.vendor
		case InfoProductName:
			s = f.product
		case InfoSerialNum:
			s = f.serial
		case InfoFirmwareVer:
			s = "2.0.1"
		}
		resp := []byte{CmdInfo, byte(len(s) + 1)}
		return append(append(resp, s...), 0), nil
	case CmdConnect:
		return []byte{CmdConnect, PortSWD}, nil
	case CmdTransfer:
		return f.transfer(cmd), nil
	}
	return []byte{cmd[0], StatusOK}, nil
}

func (f *fakeDAP) transfer(cmd []byte) []byte {
	count := int(cmd[2])
	resp := []byte{CmdTransfer, 0, byte(AckOK)}
	off := 3
	for i := 0; i < count; i++ {
		req := cmd[off]
		off++
		ap, read, addr := req&reqAPnDP != 0, req&reqRnW != 0, req&0xC
		var val uint32
		if !read {
			val = binary.LittleEndian.Uint32(cmd[off:])
			off += 4
		}
		v, ack := f.access(ap, read, addr, val)
		if ack != AckOK {
			resp[2] = byte(ack)
			return resp
		}
		if read {
			resp = binary.LittleEndian.AppendUint32(resp, v)
		}
		resp[1]++
	}
	return resp
}

func (f *fakeDAP) access(ap, read bool, addr uint8, val uint32) (uint32, Ack) {
	if !ap {
		switch {
		case addr == DPIDR && read:
			return f.dpidr, AckOK
		case addr == DPAbort:
			f.aborts++
		case addr == DPCtrl && read:
			if f.ctrl&ctrlPowerUpReq == ctrlPowerUpReq && !f.noPowerAck {
				return f.ctrl | ctrlPowerUpAck, AckOK
			}
			return f.ctrl, AckOK
		case addr == DPCtrl:
			f.ctrl = val
		case addr == DPSelect:
			f.selects++
			f.sel = val
		}
		return 0, AckOK
	}

	if f.sel>>24 != 0 {
		return 0, AckOK
	}
	switch uint8(f.sel&0xF0) | addr {
	case APCSW:
		if read {
			return f.csw, AckOK
		}
		f.csw = val
	case APTAR:
		if read {
			return f.tar, AckOK
		}
		f.tar = val
	case APDRW:
		if read {
			return f.readMem(f.tar)
		}
		f.writeMem(f.tar, val)
	case APBase:
		return f.apBase, AckOK
	case APIDR:
		return f.apIDR, AckOK
	}
	return 0, AckOK
}

func (f *fakeDAP) readMem(addr uint32) (uint32, Ack) {
	v, err := f.target.ReadWord32(addr)
	if err != nil {
		return 0, AckFault
	}
	return v, AckOK
}

func (f *fakeDAP) writeMem(addr, val uint32) {
	switch addr {
	case cortex.RegDHCSR:
		if val&0xFFFF0000 != cortex.DHCSRKey {
			return
		}
		switch d := cortex.DHCSR(val); {
		case d&cortex.DHCSRCStep != 0:
			f.target.Step()
		case d&cortex.DHCSRCHalt != 0:
			f.target.Halt()
		default:
			f.target.Run()
		}
	case cortex.RegDCRSR:
		if v, err := f.target.ReadReg(cortex.Register(val & 0x7F)); err == nil {
			f.target.Words[cortex.RegDCRDR] = v
		}
	default:
		f.target.Words[addr] = val
	}
}
