// Package dap drives an ARM debug port over SWD through a CMSIS-DAP probe
// and exposes the attached Cortex-M core.
package dap

import (
	"encoding/binary"

	"github.com/juju/errors"
)

// CMSIS-DAP Command IDs
const (
	CmdInfo              = 0x00
	CmdConnect           = 0x02
	CmdDisconnect        = 0x03
	CmdTransferConfigure = 0x04
	CmdTransfer          = 0x05
	CmdSWJClock          = 0x11
	CmdSWJSequence       = 0x12
	CmdSWDConfigure      = 0x13
)

// DAP_Info Info IDs
const (
	InfoVendorName   = 0x01
	InfoProductName  = 0x02
	InfoSerialNum    = 0x03
	InfoFirmwareVer  = 0x04
	InfoCapabilities = 0xF0
	InfoPacketCount  = 0xFE
	InfoPacketSize   = 0xFF
)

// Connection ports
const (
	PortDefault = 0
	PortSWD     = 1
	PortJTAG    = 2
)

// Status codes
const (
	StatusOK    = 0x00
	StatusError = 0xFF
)

// SWCLK range accepted by Config.Validate.
const (
	MinClockHz = 1_000
	MaxClockHz = 50_000_000
)

// DAP_Transfer request bits
const (
	reqAPnDP = 1 << 0
	reqRnW   = 1 << 1
)

// Ack is the SWD acknowledge of a DAP_Transfer.
type Ack uint8

const (
	AckOK    Ack = 0x1
	AckWait  Ack = 0x2
	AckFault Ack = 0x4
	// AckProtocolError is set on SWD parity or protocol errors.
	AckProtocolError Ack = 0x8
)

func (a Ack) String() string {
	switch a & 0x7 {
	case AckOK:
		if a&AckProtocolError != 0 {
			return "protocol error"
		}
		return "OK"
	case AckWait:
		return "WAIT"
	case AckFault:
		return "FAULT"
	}
	return "no ack"
}

// Transfer is one DP or AP register access.
type Transfer struct {
	AP    bool
	Read  bool
	Addr  uint8 // register address; only A[3:2] go on the wire
	Value uint32
}

func (t Transfer) request() byte {
	req := t.Addr & 0xC
	if t.AP {
		req |= reqAPnDP
	}
	if t.Read {
		req |= reqRnW
	}
	return req
}

// Protocol encodes and decodes CMSIS-DAP packets.
type Protocol struct {
	PacketSize int
}

// NewProtocol creates a protocol handler for a given packet size.
func NewProtocol(packetSize int) *Protocol {
	return &Protocol{PacketSize: packetSize}
}

func checkHeader(resp []byte, cmd byte, n int) error {
	if len(resp) < n {
		return errors.Errorf("response to 0x%02X too short (%d bytes)", cmd, len(resp))
	}
	if resp[0] != cmd {
		return errors.Errorf("invalid command ID: 0x%02X, want 0x%02X", resp[0], cmd)
	}
	return nil
}

func decodeStatus(resp []byte, cmd byte, what string) error {
	if err := checkHeader(resp, cmd, 2); err != nil {
		return err
	}
	if resp[1] != StatusOK {
		return errors.Errorf("%s failed", what)
	}
	return nil
}

// EncodeInfo builds a DAP_Info command
func (p *Protocol) EncodeInfo(infoID byte) []byte {
	return []byte{CmdInfo, infoID}
}

// DecodeInfo parses a DAP_Info string response
func (p *Protocol) DecodeInfo(resp []byte) (string, error) {
	if err := checkHeader(resp, CmdInfo, 2); err != nil {
		return "", err
	}
	length := int(resp[1])
	if len(resp) < 2+length {
		return "", errors.New("incomplete info string")
	}
	// strings are NUL terminated on most firmware
	s := resp[2 : 2+length]
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return string(s), nil
}

// EncodeConnect builds a DAP_Connect command
func (p *Protocol) EncodeConnect(port byte) []byte {
	return []byte{CmdConnect, port}
}

// DecodeConnect parses a DAP_Connect response
func (p *Protocol) DecodeConnect(resp []byte) (byte, error) {
	if err := checkHeader(resp, CmdConnect, 2); err != nil {
		return 0, err
	}
	if resp[1] == PortDefault {
		return 0, errors.New("connection failed")
	}
	return resp[1], nil
}

// EncodeDisconnect builds a DAP_Disconnect command
func (p *Protocol) EncodeDisconnect() []byte {
	return []byte{CmdDisconnect}
}

// DecodeDisconnect parses a DAP_Disconnect response
func (p *Protocol) DecodeDisconnect(resp []byte) error {
	return decodeStatus(resp, CmdDisconnect, "disconnect")
}

// EncodeSetClock builds a DAP_SWJ_Clock command
func (p *Protocol) EncodeSetClock(hz uint32) []byte {
	cmd := make([]byte, 5)
	cmd[0] = CmdSWJClock
	binary.LittleEndian.PutUint32(cmd[1:], hz)
	return cmd
}

// DecodeSetClock parses response
func (p *Protocol) DecodeSetClock(resp []byte) error {
	return decodeStatus(resp, CmdSWJClock, "set clock")
}

// EncodeSWJSequence builds a DAP_SWJ_Sequence clocking out bits of data
// on SWDIO, LSB first.
func (p *Protocol) EncodeSWJSequence(bits int, data []byte) ([]byte, error) {
	if bits < 1 || bits > 256 || len(data) < (bits+7)/8 {
		return nil, errors.Errorf("invalid SWJ sequence of %d bits with %d bytes", bits, len(data))
	}
	cmd := make([]byte, 2, 2+(bits+7)/8)
	cmd[0] = CmdSWJSequence
	cmd[1] = byte(bits) // 256 encodes as 0
	return append(cmd, data[:(bits+7)/8]...), nil
}

// DecodeSWJSequence parses response
func (p *Protocol) DecodeSWJSequence(resp []byte) error {
	return decodeStatus(resp, CmdSWJSequence, "SWJ sequence")
}

// EncodeSWDConfigure builds a DAP_SWD_Configure command
func (p *Protocol) EncodeSWDConfigure(turnaround int, dataPhase bool) []byte {
	cfg := byte((turnaround - 1) & 0x3)
	if dataPhase {
		cfg |= 0x4
	}
	return []byte{CmdSWDConfigure, cfg}
}

// DecodeSWDConfigure parses response
func (p *Protocol) DecodeSWDConfigure(resp []byte) error {
	return decodeStatus(resp, CmdSWDConfigure, "SWD configure")
}

// EncodeTransferConfigure builds a DAP_TransferConfigure command
func (p *Protocol) EncodeTransferConfigure(idleCycles uint8, waitRetry, matchRetry uint16) []byte {
	cmd := make([]byte, 6)
	cmd[0] = CmdTransferConfigure
	cmd[1] = idleCycles
	binary.LittleEndian.PutUint16(cmd[2:], waitRetry)
	binary.LittleEndian.PutUint16(cmd[4:], matchRetry)
	return cmd
}

// DecodeTransferConfigure parses response
func (p *Protocol) DecodeTransferConfigure(resp []byte) error {
	return decodeStatus(resp, CmdTransferConfigure, "transfer configure")
}

// EncodeTransfer builds a DAP_Transfer command for dapIndex (ignored on SWD).
func (p *Protocol) EncodeTransfer(dapIndex byte, xfers []Transfer) ([]byte, error) {
	if len(xfers) == 0 || len(xfers) > 255 {
		return nil, errors.Errorf("invalid transfer count %d", len(xfers))
	}
	cmd := []byte{CmdTransfer, dapIndex, byte(len(xfers))}
	for _, x := range xfers {
		cmd = append(cmd, x.request())
		if !x.Read {
			cmd = binary.LittleEndian.AppendUint32(cmd, x.Value)
		}
	}
	if p.PacketSize > 0 && len(cmd) > p.PacketSize {
		return nil, errors.Errorf("transfer of %d bytes exceeds packet size %d", len(cmd), p.PacketSize)
	}
	return cmd, nil
}

// DecodeTransfer parses a DAP_Transfer response and returns the values of
// the read transfers in order. Every transfer must complete with an OK ack.
func (p *Protocol) DecodeTransfer(resp []byte, xfers []Transfer) ([]uint32, error) {
	if err := checkHeader(resp, CmdTransfer, 3); err != nil {
		return nil, err
	}
	count := int(resp[1])
	ack := Ack(resp[2])
	if count != len(xfers) || ack != AckOK {
		return nil, errors.Errorf("transfer %d of %d: %s", count, len(xfers), ack)
	}

	var values []uint32
	off := 3
	for _, x := range xfers {
		if !x.Read {
			continue
		}
		if off+4 > len(resp) {
			return nil, errors.New("incomplete transfer data")
		}
		values = append(values, binary.LittleEndian.Uint32(resp[off:]))
		off += 4
	}
	return values, nil
}
