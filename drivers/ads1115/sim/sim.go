// Package sim is a register-level ADS1115 model behind the drivers.I2C Tx
// shape. It backs host tests and the CLI's dry-run bus.
package sim

import (
	"errors"
	"sync"

	"ads1115-go/drivers/ads1115"
	"ads1115-go/errcode"
	"ads1115-go/x/timex"
)

var ErrNack = errors.New("sim: address nack")

// Device simulates one converter. The zero value is not usable; call New.
type Device struct {
	mu   sync.Mutex
	addr uint16
	now  func() uint32

	regs       [4]uint16
	converting bool
	convStart  uint32
	// Inputs holds the result for each mux setting, in counts.
	inputs [8]int16

	failNext int
	fault    error
	txCount  int
}

// New returns a device answering at addr. now defaults to timex.Millis.
func New(addr uint16, now func() uint32) *Device {
	if now == nil {
		now = timex.Millis
	}
	d := &Device{addr: addr, now: now}
	d.regs[ads1115.RegConfig] = ads1115.DefaultConfigWord
	d.regs[ads1115.RegLoThresh] = ads1115.DefaultLoThresh
	d.regs[ads1115.RegHiThresh] = ads1115.DefaultHiThresh
	return d
}

// SetInput sets the conversion result returned for mux m.
func (d *Device) SetInput(m ads1115.Mux, counts int16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m.Valid() {
		d.inputs[m] = counts
	}
}

// FailNext makes the next n transactions fail with a bus error.
func (d *Device) FailNext(n int) {
	d.mu.Lock()
	d.failNext = n
	d.mu.Unlock()
}

// SetFault makes every transaction fail with err until cleared with nil.
func (d *Device) SetFault(err error) {
	d.mu.Lock()
	d.fault = err
	d.mu.Unlock()
}

// Register returns the raw content of reg.
func (d *Device) Register(reg byte) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[reg&3]
}

// Transactions returns the number of Tx calls addressed to this device.
func (d *Device) Transactions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txCount
}

func (d *Device) cfg() ads1115.ConfigFields {
	return ads1115.DecodeConfigWord(d.regs[ads1115.RegConfig])
}

func (d *Device) step() {
	if !d.converting {
		return
	}
	f := d.cfg()
	if timex.Since(d.now(), d.convStart) >= ads1115.ConversionTimeMs(f.DataRate)-1 {
		d.converting = false
		d.regs[ads1115.RegConversion] = uint16(d.inputs[f.Mux])
	}
}

// Tx implements drivers.I2C.
func (d *Device) Tx(addr uint16, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if addr != d.addr {
		return ErrNack
	}
	d.txCount++
	if d.fault != nil {
		return d.fault
	}
	if d.failNext > 0 {
		d.failNext--
		return errcode.BusError
	}
	if len(w) == 0 || w[0] > ads1115.RegHiThresh {
		return errcode.BusError
	}
	reg := w[0]

	if len(w) == 3 {
		v := uint16(w[1])<<8 | uint16(w[2])
		if reg == ads1115.RegConversion {
			return nil // read-only
		}
		if reg != ads1115.RegConfig {
			d.regs[reg] = v
			return nil
		}
		d.regs[ads1115.RegConfig] = v &^ 0x8000
		f := d.cfg()
		switch {
		case f.Mode == ads1115.ModeContinuous:
			d.converting = false
			d.regs[ads1115.RegConversion] = uint16(d.inputs[f.Mux])
		case v&0x8000 != 0:
			d.converting = true
			d.convStart = d.now()
		}
		return nil
	}

	if len(r) != 2 {
		return errcode.BusError
	}
	d.step()
	v := d.regs[reg]
	if reg == ads1115.RegConfig && !d.converting {
		v |= 0x8000
	}
	if reg == ads1115.RegConversion && d.cfg().Mode == ads1115.ModeContinuous {
		v = uint16(d.inputs[d.cfg().Mux])
	}
	r[0], r[1] = byte(v>>8), byte(v)
	return nil
}

// Bus routes Tx calls to simulated devices by address, for scans.
type Bus struct {
	Devices []*Device
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	for _, d := range b.Devices {
		if d.addr == addr {
			return d.Tx(addr, w, r)
		}
	}
	return ErrNack
}
