//go:build rp2040 || rp2350

// Package rp2 wires the driver and console to RP2040/RP2350 peripherals.
package rp2

import (
	"context"
	"errors"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"ads1115-go/drivers/ads1115"
	"ads1115-go/platform/i2cowner"
)

var (
	ErrUnknownBus = errors.New("rp2: unknown bus")
	ErrBadPin     = errors.New("rp2: pin out of range")
)

// I2CConfig selects i2c0 or i2c1 and its pins. Zero pins mean the board
// defaults.
type I2CConfig struct {
	Bus int
	SDA machine.Pin
	SCL machine.Pin
	Hz  uint32
}

// OpenI2C configures the bus and returns it behind an owner goroutine so
// that per-call timeouts reach the driver.
func OpenI2C(c I2CConfig) (*i2cowner.Owner, error) {
	var hw *machine.I2C
	switch c.Bus {
	case 0:
		hw = machine.I2C0
		if c.SDA == 0 && c.SCL == 0 {
			c.SDA, c.SCL = machine.I2C0_SDA_PIN, machine.I2C0_SCL_PIN
		}
	case 1:
		hw = machine.I2C1
		if c.SDA == 0 && c.SCL == 0 {
			c.SDA, c.SCL = machine.I2C1_SDA_PIN, machine.I2C1_SCL_PIN
		}
	default:
		return nil, ErrUnknownBus
	}
	if c.Hz == 0 {
		c.Hz = 400 * machine.KHz
	}
	if err := hw.Configure(machine.I2CConfig{Frequency: c.Hz, SDA: c.SDA, SCL: c.SCL}); err != nil {
		return nil, err
	}
	return i2cowner.New(hw, 0), nil
}

// ReadyPin configures GPn as a pulled-up input for the open-drain
// ALERT/RDY line and returns its reader.
func ReadyPin(n int) (ads1115.LevelFunc, error) {
	// User GPIOs are GP0..GP28.
	if n < 0 || n > 28 {
		return nil, ErrBadPin
	}
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return func(int) bool { return p.Get() }, nil
}

// Serial is a UART as an io.ReadWriter for the console.
type Serial struct {
	u   *uartx.UART
	ctx context.Context
}

type UARTConfig struct {
	UART int
	Baud uint32
	TX   machine.Pin
	RX   machine.Pin
}

func OpenUART(c UARTConfig) (*Serial, error) {
	var hw *uartx.UART
	switch c.UART {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, ErrUnknownBus
	}
	// Zero fields take the uartx defaults.
	if err := hw.Configure(uartx.UARTConfig{BaudRate: c.Baud, TX: c.TX, RX: c.RX}); err != nil {
		return nil, err
	}
	return &Serial{u: hw, ctx: context.Background()}, nil
}

func (s *Serial) Write(p []byte) (int, error) { return s.u.Write(p) }

// Read blocks until at least one byte arrives.
func (s *Serial) Read(p []byte) (int, error) { return s.u.RecvSomeContext(s.ctx, p) }
