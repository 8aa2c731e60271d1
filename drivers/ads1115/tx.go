package ads1115

import (
	"tinygo.org/x/drivers"

	"ads1115-go/errcode"
)

// TimeoutI2C is a drivers.I2C that can bound a single transaction.
type TimeoutI2C interface {
	drivers.I2C
	TxTimeout(addr uint16, w, r []byte, timeoutMs uint32) error
}

// TxTransport adapts a tinygo-style drivers.I2C to Transport. timeoutMs is
// forwarded only when the bus implements TimeoutI2C; otherwise the bus
// enforces its own timeout.
type TxTransport struct {
	bus drivers.I2C
}

func NewTxTransport(bus drivers.I2C) *TxTransport { return &TxTransport{bus: bus} }

// missingTransport reports a nil Transport, including a nil *TxTransport or
// one built around a nil bus. Other typed-nil implementations are not
// detected.
func missingTransport(t Transport) bool {
	if t == nil {
		return true
	}
	tt, ok := t.(*TxTransport)
	return ok && (tt == nil || tt.bus == nil)
}

func (t *TxTransport) tx(addr uint16, w, r []byte, timeoutMs uint32) error {
	if tb, ok := t.bus.(TimeoutI2C); ok {
		return tb.TxTimeout(addr, w, r, timeoutMs)
	}
	return t.bus.Tx(addr, w, r)
}

func (t *TxTransport) Write(addr uint16, w []byte, timeoutMs uint32) Status {
	if err := t.tx(addr, w, nil, timeoutMs); err != nil {
		return txStatus(err, "I2C write failed")
	}
	return Ok()
}

func (t *TxTransport) WriteRead(addr uint16, w, r []byte, timeoutMs uint32) Status {
	if err := t.tx(addr, w, r, timeoutMs); err != nil {
		return txStatus(err, "I2C read failed")
	}
	return Ok()
}

func txStatus(err error, msg string) Status {
	c := errcode.MapDriverErr(err)
	if c == errcode.Timeout {
		msg = "I2C timeout"
	}
	return Fail(c, msg, -1)
}
