//go:build linux

// Package periphbus connects the driver to Linux I2C and GPIO through
// periph.io.
package periphbus

import (
	"fmt"
	"strconv"

	"github.com/go-logr/logr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"ads1115-go/drivers/ads1115"
)

type Options struct {
	// Name selects the bus as i2creg understands it ("1", "/dev/i2c-1", or
	// "" for the first registered bus).
	Name string
	// SpeedHz sets the clock when non-zero. Many kernels ignore this.
	SpeedHz int64
	Logger  logr.Logger
}

// Bus is an opened periph I2C bus. It implements drivers.I2C.
type Bus struct {
	bc  i2c.BusCloser
	log logr.Logger
}

// Open initialises the periph host drivers and opens the named bus.
func Open(opts Options) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphbus: host init: %w", err)
	}
	bc, err := i2creg.Open(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("periphbus: open %q: %w", opts.Name, err)
	}
	if opts.SpeedHz > 0 {
		if err := bc.SetSpeed(frequency(opts.SpeedHz)); err != nil {
			bc.Close()
			return nil, fmt.Errorf("periphbus: set speed %s: %w", frequency(opts.SpeedHz), err)
		}
	}
	log := opts.Logger.WithName("periphbus")
	log.V(1).Info("bus open", "bus", bc.String())
	return &Bus{bc: bc, log: log}, nil
}

func (b *Bus) Tx(addr uint16, w, r []byte) error { return b.bc.Tx(addr, w, r) }

func (b *Bus) String() string { return b.bc.String() }

func (b *Bus) Close() error { return b.bc.Close() }

// ReadyPin configures GPIO n as a pulled-up input and returns a reader for
// ads1115.Config.ReadPin. ALERT/RDY is open-drain, so the pull-up is
// required unless the board fits one.
func ReadyPin(n int) (ads1115.LevelFunc, error) {
	if n < 0 {
		return nil, fmt.Errorf("periphbus: invalid pin %d", n)
	}
	p := gpioreg.ByName(pinName(n))
	if p == nil {
		return nil, fmt.Errorf("periphbus: pin %s not found", pinName(n))
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("periphbus: configure %s: %w", pinName(n), err)
	}
	return func(int) bool { return p.Read() == gpio.High }, nil
}

func pinName(n int) string { return "GPIO" + strconv.Itoa(n) }

func frequency(hz int64) physic.Frequency { return physic.Frequency(hz) * physic.Hertz }
