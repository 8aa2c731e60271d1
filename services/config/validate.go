package config

import (
	"fmt"

	"ads1115-go/drivers/ads1115"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration. Empty fields are left to Normalize.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	if cfg.Bus.SpeedHz < 0 {
		return fmt.Errorf("bus: speed_hz must be >= 0")
	}

	d := cfg.Device
	if d.Address != 0 && (d.Address < ads1115.AddressMin || d.Address > ads1115.AddressMax) {
		return fmt.Errorf("device: address 0x%02X outside 0x%02X..0x%02X",
			d.Address, ads1115.AddressMin, ads1115.AddressMax)
	}
	if d.AlertRdyPin != nil && *d.AlertRdyPin < -1 {
		return fmt.Errorf("device: alert_rdy_pin must be >= -1")
	}

	for _, f := range []struct {
		field, val string
		ok         func(string) bool
	}{
		{"device.mux", d.Mux, func(s string) bool { _, ok := ads1115.ParseMux(s); return ok }},
		{"device.gain", d.Gain, func(s string) bool { _, ok := ads1115.ParseGain(s); return ok }},
		{"device.data_rate", d.DataRate, func(s string) bool { _, ok := ads1115.ParseDataRate(s); return ok }},
		{"device.mode", d.Mode, func(s string) bool { _, ok := ads1115.ParseMode(s); return ok }},
		{"device.comparator.mode", d.Comparator.Mode, func(s string) bool { _, ok := ads1115.ParseCompMode(s); return ok }},
		{"device.comparator.polarity", d.Comparator.Polarity, func(s string) bool { _, ok := ads1115.ParseCompPolarity(s); return ok }},
		{"device.comparator.latch", d.Comparator.Latch, func(s string) bool { _, ok := ads1115.ParseCompLatch(s); return ok }},
		{"device.comparator.queue", d.Comparator.Queue, func(s string) bool { _, ok := ads1115.ParseCompQueue(s); return ok }},
	} {
		if f.val != "" && !f.ok(f.val) {
			return fmt.Errorf("%s: unknown value %q", f.field, f.val)
		}
	}

	seen := make(map[ads1115.Mux]bool, len(cfg.Sampler.Channels))
	for _, name := range cfg.Sampler.Channels {
		m, ok := ads1115.ParseMux(name)
		if !ok {
			return fmt.Errorf("sampler.channels: unknown channel %q", name)
		}
		if seen[m] {
			return fmt.Errorf("sampler.channels: %q listed twice", name)
		}
		seen[m] = true
	}
	return nil
}
