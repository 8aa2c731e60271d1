// Package ads1115 provides a driver for the TI ADS1115 16-bit delta-sigma
// ADC on an I2C bus.
//
// The driver never owns the bus. All traffic goes through a caller-supplied
// Transport, and every operation returns a Status instead of an error.
// Operations fall into two classes:
//
//   - tracked: normal register traffic. Each result feeds the health record,
//     which classifies the device as Ready, Degraded or Offline.
//   - raw: Probe only. Diagnostic, invisible to health.
//
// Single-shot conversions are non-blocking:
//
//	st := d.StartConversion()   // InProgress
//	for !d.ConversionReady() {  // or call d.Tick(now) from a loop
//	}
//	raw, st := d.ReadRaw()
//
// ReadBlocking wraps that sequence in a bounded polling loop.
//
// A Device is not safe for concurrent use.
package ads1115

import (
	"github.com/go-logr/logr"

	"ads1115-go/errcode"
	"ads1115-go/x/mathx"
	"ads1115-go/x/timex"
)

type Device struct {
	cfg Config
	clk Clock
	log logr.Logger

	initialized bool
	state       DriverState
	health      healthRecord

	// Single-shot session.
	started bool
	ready   bool
	startMs uint32
	lastRaw int16

	// Fixed buffers to avoid per-call heap allocations.
	w [3]byte
	r [2]byte
}

// New returns an uninitialised device. Call Begin before use.
func New() *Device {
	return &Device{
		clk:    timex.Clock{},
		log:    logr.Discard(),
		health: healthRecord{lastError: Ok()},
	}
}

// ---------------- Lifecycle ----------------

// Begin validates cfg, probes the device and writes the full
// configuration. On any failure the device stays uninitialised.
func (d *Device) Begin(cfg Config) Status {
	d.cfg = cfg
	d.clk = d.cfg.clock()
	d.log = d.cfg.Logger
	if d.log.GetSink() == nil {
		d.log = logr.Discard()
	}
	d.initialized = false
	d.state = StateUninit
	d.clearSession()
	d.lastRaw = 0
	d.health = healthRecord{lastError: Ok()}

	if missingTransport(d.cfg.Transport) {
		return Fail(errcode.InvalidConfig, "I2C callbacks required", 0)
	}
	if d.cfg.TimeoutMs == 0 {
		return Fail(errcode.InvalidConfig, "Timeout must be > 0", 0)
	}
	if !mathx.Between(d.cfg.Address, AddressMin, AddressMax) {
		return Fail(errcode.InvalidConfig, "Invalid I2C address", 0)
	}
	if !d.cfg.enumsValid() {
		return Fail(errcode.InvalidConfig, "Invalid config enum value", 0)
	}
	if d.cfg.AlertRdyPin < -1 {
		return Fail(errcode.InvalidConfig, "Invalid ALERT/RDY pin", 0)
	}
	if d.cfg.AlertRdyPin >= 0 && d.cfg.ReadPin == nil {
		return Fail(errcode.InvalidConfig, "ALERT/RDY pin reader required", 0)
	}
	d.cfg.OfflineThreshold = mathx.AtLeast(d.cfg.OfflineThreshold, 1)

	if st := d.Probe(); !st.OK() {
		return st
	}
	if st := d.applyConfig(); !st.OK() {
		return st
	}

	d.initialized = true
	d.state = StateReady
	d.log.V(1).Info("begin", "addr", d.cfg.Address, "mux", d.cfg.Mux.String(),
		"gain", d.cfg.Gain.String(), "rate", d.cfg.DataRate.String(),
		"mode", d.cfg.Mode.String(), "ready_pin", d.cfg.useReadyPin())
	return Ok()
}

// End returns the device to Uninit. It performs no bus traffic.
func (d *Device) End() {
	d.initialized = false
	d.state = StateUninit
	d.clearSession()
}

func (d *Device) Initialized() bool { return d.initialized }

// Config returns a copy of the active configuration.
func (d *Device) Config() Config { return d.cfg }

func (d *Device) clearSession() {
	d.started = false
	d.ready = false
	d.startMs = 0
}

// applyConfig writes both thresholds and then CONFIG with OS clear. Any
// conversion in flight is abandoned.
func (d *Device) applyConfig() Status {
	if st := d.writeReg(RegLoThresh, uint16(d.cfg.LowThreshold)); !st.OK() {
		return st
	}
	if st := d.writeReg(RegHiThresh, uint16(d.cfg.HighThreshold)); !st.OK() {
		return st
	}
	if st := d.writeReg(RegConfig, EncodeConfigWord(d.cfg.fields())); !st.OK() {
		return st
	}
	d.clearSession()
	return Ok()
}

// ---------------- Diagnostics ----------------

// Probe reads CONFIG over the raw path. It works before Begin and never
// changes health counters or state.
func (d *Device) Probe() Status {
	if _, st := d.readRegRaw(RegConfig); !st.OK() {
		if st.Code.IsValidation() {
			return st
		}
		return Fail(errcode.DeviceNotFound, "ADS1115 not responding", st.Detail)
	}
	return Ok()
}

// Recover performs one tracked CONFIG read so the outcome is reflected in
// health and state. It is the only way back from Degraded or Offline
// outside normal traffic.
func (d *Device) Recover() Status {
	if !d.initialized {
		return stNotInitialized
	}
	_, st := d.readReg(RegConfig)
	return st
}

// ---------------- Configuration ----------------

func (d *Device) Mux() Mux           { return d.cfg.Mux }
func (d *Device) Gain() Gain         { return d.cfg.Gain }
func (d *Device) DataRate() DataRate { return d.cfg.DataRate }
func (d *Device) Mode() Mode         { return d.cfg.Mode }

// ConversionTimeMs is the wait budget for the active data rate.
func (d *Device) ConversionTimeMs() uint32 { return ConversionTimeMs(d.cfg.DataRate) }

// LSBVolts is the volts-per-count of the active gain.
func (d *Device) LSBVolts() float32 { return LSBVolts(d.cfg.Gain) }

// RawToVoltage scales raw by the active gain.
func (d *Device) RawToVoltage(raw int16) float32 { return RawToVoltage(raw, d.cfg.Gain) }

func (d *Device) SetMux(m Mux) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !m.Valid() {
		return Fail(errcode.InvalidParams, "Invalid mux", 0)
	}
	d.cfg.Mux = m
	return d.applyConfig()
}

func (d *Device) SetGain(g Gain) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !g.Valid() {
		return Fail(errcode.InvalidParams, "Invalid gain", 0)
	}
	d.cfg.Gain = g
	return d.applyConfig()
}

func (d *Device) SetDataRate(r DataRate) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !r.Valid() {
		return Fail(errcode.InvalidParams, "Invalid data rate", 0)
	}
	d.cfg.DataRate = r
	return d.applyConfig()
}

func (d *Device) SetMode(m Mode) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !m.Valid() {
		return Fail(errcode.InvalidParams, "Invalid mode", 0)
	}
	d.cfg.Mode = m
	d.clearSession()
	return d.applyConfig()
}

// ReadConfig returns the CONFIG register as the device reports it,
// including the OS bit.
func (d *Device) ReadConfig() (uint16, Status) {
	if !d.initialized {
		return 0, stNotInitialized
	}
	return d.readReg(RegConfig)
}

// WriteConfig writes v verbatim and adopts its fields. A single-shot word
// with OS set starts a conversion.
func (d *Device) WriteConfig(v uint16) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !ValidateConfigWord(v) {
		return Fail(errcode.InvalidParams, "Invalid config value", 0)
	}
	if st := d.writeReg(RegConfig, v); !st.OK() {
		return st
	}
	d.cfg.setFields(DecodeConfigWord(v))
	if d.cfg.Mode == ModeSingleShot && v&cfgOSMask == cfgOSStart {
		d.started, d.ready = true, false
		d.startMs = d.clk.NowMs()
	} else {
		d.clearSession()
	}
	return Ok()
}
