package ads1115

import (
	"github.com/go-logr/logr"

	"ads1115-go/x/conv"
	"ads1115-go/x/timex"
)

// Mux selects the measured input pair.
type Mux uint8

const (
	MuxAIN0AIN1 Mux = iota // differential AIN0-AIN1 (power-on default)
	MuxAIN0AIN3
	MuxAIN1AIN3
	MuxAIN2AIN3
	MuxAIN0GND
	MuxAIN1GND
	MuxAIN2GND
	MuxAIN3GND
)

func (m Mux) Valid() bool { return m <= MuxAIN3GND }

func (m Mux) String() string {
	switch m {
	case MuxAIN0AIN1:
		return "ain0-ain1"
	case MuxAIN0AIN3:
		return "ain0-ain3"
	case MuxAIN1AIN3:
		return "ain1-ain3"
	case MuxAIN2AIN3:
		return "ain2-ain3"
	case MuxAIN0GND:
		return "ain0-gnd"
	case MuxAIN1GND:
		return "ain1-gnd"
	case MuxAIN2GND:
		return "ain2-gnd"
	case MuxAIN3GND:
		return "ain3-gnd"
	}
	return "invalid"
}

// SingleEnded returns the AINn-to-GND selection for channel 0..3.
func SingleEnded(ch int) (Mux, bool) {
	if ch < 0 || ch > 3 {
		return 0, false
	}
	return MuxAIN0GND + Mux(ch), true
}

// Differential returns differential pair 0..3 in register order:
// AIN0-AIN1, AIN0-AIN3, AIN1-AIN3, AIN2-AIN3.
func Differential(pair int) (Mux, bool) {
	if pair < 0 || pair > 3 {
		return 0, false
	}
	return Mux(pair), true
}

// Gain is the PGA full-scale range.
type Gain uint8

const (
	Gain6V144 Gain = iota
	Gain4V096
	Gain2V048
	Gain1V024
	Gain0V512
	Gain0V256
)

func (g Gain) Valid() bool { return g <= Gain0V256 }

func (g Gain) String() string {
	switch g {
	case Gain6V144:
		return "6.144v"
	case Gain4V096:
		return "4.096v"
	case Gain2V048:
		return "2.048v"
	case Gain1V024:
		return "1.024v"
	case Gain0V512:
		return "0.512v"
	case Gain0V256:
		return "0.256v"
	}
	return "invalid"
}

// DataRate is the conversion rate in samples per second.
type DataRate uint8

const (
	SPS8 DataRate = iota
	SPS16
	SPS32
	SPS64
	SPS128
	SPS250
	SPS475
	SPS860
)

var spsValues = [...]uint16{8, 16, 32, 64, 128, 250, 475, 860}

func (r DataRate) Valid() bool { return r <= SPS860 }

// SPS returns the nominal rate, or 0 for an invalid value.
func (r DataRate) SPS() uint16 {
	if !r.Valid() {
		return 0
	}
	return spsValues[r]
}

func (r DataRate) String() string {
	if !r.Valid() {
		return "invalid"
	}
	var b [5]byte
	return string(conv.Utoa(b[:], uint64(spsValues[r]))) + "sps"
}

// Mode is the device operating mode.
type Mode uint8

const (
	ModeContinuous Mode = iota
	ModeSingleShot
)

func (m Mode) Valid() bool { return m <= ModeSingleShot }

func (m Mode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeSingleShot:
		return "single"
	}
	return "invalid"
}

type CompMode uint8

const (
	CompTraditional CompMode = iota
	CompWindow
)

func (m CompMode) Valid() bool { return m <= CompWindow }

func (m CompMode) String() string {
	switch m {
	case CompTraditional:
		return "traditional"
	case CompWindow:
		return "window"
	}
	return "invalid"
}

type CompPolarity uint8

const (
	ActiveLow CompPolarity = iota
	ActiveHigh
)

func (p CompPolarity) Valid() bool { return p <= ActiveHigh }

func (p CompPolarity) String() string {
	switch p {
	case ActiveLow:
		return "active_low"
	case ActiveHigh:
		return "active_high"
	}
	return "invalid"
}

type CompLatch uint8

const (
	NonLatching CompLatch = iota
	Latching
)

func (l CompLatch) Valid() bool { return l <= Latching }

func (l CompLatch) String() string {
	switch l {
	case NonLatching:
		return "non_latching"
	case Latching:
		return "latching"
	}
	return "invalid"
}

// CompQueue sets how many successive out-of-window conversions assert
// ALERT/RDY, or disables the comparator.
type CompQueue uint8

const (
	Assert1 CompQueue = iota
	Assert2
	Assert4
	QueueDisable
)

func (q CompQueue) Valid() bool { return q <= QueueDisable }

func (q CompQueue) String() string {
	switch q {
	case Assert1:
		return "assert1"
	case Assert2:
		return "assert2"
	case Assert4:
		return "assert4"
	case QueueDisable:
		return "disabled"
	}
	return "invalid"
}

// Clock supplies the driver's millisecond time base. Values wrap at 2^32.
type Clock interface {
	NowMs() uint32
	SleepMs(ms uint32)
}

// LevelFunc reads the logic level of a GPIO pin.
type LevelFunc func(pin int) bool

// Config is copied into the Device by Begin.
type Config struct {
	Transport Transport
	Address   uint16
	// TimeoutMs is passed through to every transport call; must be > 0.
	TimeoutMs uint32

	Mux      Mux
	Gain     Gain
	DataRate DataRate
	Mode     Mode

	CompMode      CompMode
	CompPolarity  CompPolarity
	CompLatch     CompLatch
	CompQueue     CompQueue
	HighThreshold int16
	LowThreshold  int16

	// AlertRdyPin is the GPIO wired to ALERT/RDY, or -1 when unused.
	AlertRdyPin int
	ReadPin     LevelFunc

	// OfflineThreshold is the consecutive failure count that moves the
	// driver to Offline. 0 is treated as 1.
	OfflineThreshold uint8

	// Clock defaults to the process millisecond clock.
	Clock Clock
	// Logger receives state transitions at V(1). Zero value discards.
	Logger logr.Logger
}

// DefaultConfig returns a single-shot AIN0/GND configuration at ±2.048 V,
// 128 SPS, comparator disabled. Transport must still be set.
func DefaultConfig() Config {
	return Config{
		Address:          AddressGND,
		TimeoutMs:        50,
		Mux:              MuxAIN0GND,
		Gain:             Gain2V048,
		DataRate:         SPS128,
		Mode:             ModeSingleShot,
		CompMode:         CompTraditional,
		CompPolarity:     ActiveLow,
		CompLatch:        NonLatching,
		CompQueue:        QueueDisable,
		HighThreshold:    DefaultHiThresh,
		LowThreshold:     -0x8000,
		AlertRdyPin:      -1,
		OfflineThreshold: 5,
	}
}

func (c *Config) enumsValid() bool {
	return c.Mux.Valid() && c.Gain.Valid() && c.DataRate.Valid() && c.Mode.Valid() &&
		c.CompMode.Valid() && c.CompPolarity.Valid() && c.CompLatch.Valid() && c.CompQueue.Valid()
}

func (c *Config) fields() ConfigFields {
	return ConfigFields{
		Mux:          c.Mux,
		Gain:         c.Gain,
		DataRate:     c.DataRate,
		Mode:         c.Mode,
		CompMode:     c.CompMode,
		CompPolarity: c.CompPolarity,
		CompLatch:    c.CompLatch,
		CompQueue:    c.CompQueue,
	}
}

func (c *Config) setFields(f ConfigFields) {
	c.Mux = f.Mux
	c.Gain = f.Gain
	c.DataRate = f.DataRate
	c.Mode = f.Mode
	c.CompMode = f.CompMode
	c.CompPolarity = f.CompPolarity
	c.CompLatch = f.CompLatch
	c.CompQueue = f.CompQueue
}

func (c *Config) clock() Clock {
	if c.Clock == nil {
		return timex.Clock{}
	}
	return c.Clock
}
