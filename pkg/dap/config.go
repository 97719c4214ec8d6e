package dap

import (
	"time"

	"github.com/juju/errors"
)

// Config selects and configures the CMSIS-DAP probe.
type Config struct {
	// Probe selection
	VendorID  uint16 // USB vendor ID (default: Raspberry Pi debugprobe)
	ProductID uint16 // USB product ID
	Serial    string // If set, only open the probe with this serial number

	// SWD settings
	ClockHz    uint32 // SWCLK frequency (default: 1 MHz)
	APSel      uint8  // MEM-AP index of the core's debug port (default: 0)
	WaitRetry  uint16 // DAP_TransferConfigure WAIT retries (default: 64)
	MatchRetry uint16 // DAP_TransferConfigure value match retries

	// Timeout bounds every USB transaction.
	Timeout time.Duration

	// PollLimit bounds DHCSR polling for S_HALT and S_REGRDY.
	PollLimit int
}

// DefaultConfig returns a Config for a Raspberry Pi debugprobe at 1 MHz.
func DefaultConfig() *Config {
	return &Config{
		VendorID:   VendorIDRaspberryPi,
		ProductID:  ProductIDCMSISDAP,
		ClockHz:    1_000_000,
		APSel:      0,
		WaitRetry:  64,
		MatchRetry: 0,
		Timeout:    DefaultTimeout,
		PollLimit:  100,
	}
}

// Validate checks the configuration and fills in zero values.
func (c *Config) Validate() error {
	if c.VendorID == 0 || c.ProductID == 0 {
		return errors.NotValidf("USB ID %04x:%04x", c.VendorID, c.ProductID)
	}
	if c.ClockHz < MinClockHz || c.ClockHz > MaxClockHz {
		return errors.NotValidf("SWD clock %d Hz (range %d-%d)", c.ClockHz, MinClockHz, MaxClockHz)
	}
	if c.WaitRetry == 0 {
		c.WaitRetry = 64
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollLimit < 1 {
		c.PollLimit = 100
	}
	return nil
}
