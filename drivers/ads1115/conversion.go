package ads1115

import (
	"context"

	"ads1115-go/errcode"
	"ads1115-go/x/timex"
)

const (
	// PollIntervalMs is the sleep between status checks in ReadBlocking
	// once the conversion budget has elapsed.
	PollIntervalMs = 1
	// DefaultBlockingTimeoutMs suits every data rate down to 8 SPS.
	DefaultBlockingTimeoutMs = 200
)

var (
	stContinuous = Fail(errcode.Busy, "Continuous mode active", 0)
	stPending    = Fail(errcode.Busy, "Conversion already in progress", 0)
	stTimeout    = Fail(errcode.Timeout, "Conversion timeout", 0)
)

// StartConversion begins a single-shot conversion on the configured mux.
// It returns an InProgress status on success; poll ConversionReady or Tick,
// then ReadRaw.
func (d *Device) StartConversion() Status {
	if !d.initialized {
		return stNotInitialized
	}
	return d.start()
}

// StartConversionMux selects m and begins a single-shot conversion. The
// previous mux is restored if the start write fails.
func (d *Device) StartConversionMux(m Mux) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !m.Valid() {
		return Fail(errcode.InvalidParams, "Invalid mux", 0)
	}
	if st := d.startAllowed(); !st.OK() {
		return st
	}
	prev := d.cfg.Mux
	d.cfg.Mux = m
	st := d.start()
	if !st.InProgress() {
		d.cfg.Mux = prev
	}
	return st
}

func (d *Device) startAllowed() Status {
	if d.cfg.Mode == ModeContinuous {
		return stContinuous
	}
	if d.started {
		return stPending
	}
	return Ok()
}

func (d *Device) start() Status {
	if st := d.startAllowed(); !st.OK() {
		return st
	}
	if st := d.writeReg(RegConfig, EncodeConfigWord(d.cfg.fields())|cfgOSStart); !st.OK() {
		return st
	}
	d.started, d.ready = true, false
	d.startMs = d.clk.NowMs()
	return stStarted
}

// budgetElapsed reports whether now is at or past startMs plus the rate's
// budget. A now taken before startMs is never past it.
func (d *Device) budgetElapsed(now uint32) bool {
	return timex.Reached(now, d.startMs+ConversionTimeMs(d.cfg.DataRate))
}

// resolve checks a pending conversion once, by pin level or by a tracked
// read of the OS bit, and moves it to ready when complete.
func (d *Device) resolve() (bool, Status) {
	if d.cfg.useReadyPin() {
		if !d.cfg.readyPinAsserted() {
			return false, Ok()
		}
	} else {
		v, st := d.readReg(RegConfig)
		if !st.OK() {
			return false, st
		}
		if !OSIdle(v) {
			return false, Ok()
		}
	}
	d.started, d.ready = false, true
	return true, Ok()
}

// ConversionReady reports whether a result can be read without waiting.
// Continuous mode is always ready.
func (d *Device) ConversionReady() bool {
	if !d.initialized {
		return false
	}
	if d.cfg.Mode == ModeContinuous || d.ready {
		return true
	}
	if !d.started || !d.budgetElapsed(d.clk.NowMs()) {
		return false
	}
	ok, _ := d.resolve()
	return ok
}

// ReadRaw returns the latest conversion result. In single-shot mode each
// result is read once; a second read without a new start reports NotReady.
func (d *Device) ReadRaw() (int16, Status) {
	if !d.initialized {
		return 0, stNotInitialized
	}
	single := d.cfg.Mode == ModeSingleShot
	if single && !d.ready {
		if !d.started || !d.budgetElapsed(d.clk.NowMs()) {
			return 0, stNotReady
		}
		ok, st := d.resolve()
		if !st.OK() {
			return 0, st
		}
		if !ok {
			return 0, stNotReady
		}
	}

	v, st := d.readReg(RegConversion)
	if !st.OK() {
		return 0, st
	}
	raw := int16(v)
	d.lastRaw = raw
	if single {
		d.ready = false
	}
	return raw, Ok()
}

// ReadVoltage is ReadRaw scaled by the active gain.
func (d *Device) ReadVoltage() (float32, Status) {
	raw, st := d.ReadRaw()
	if !st.OK() {
		return 0, st
	}
	return RawToVoltage(raw, d.cfg.Gain), Ok()
}

// ReadBlocking starts a conversion (or joins the one already pending) and
// polls until a result arrives, a non-transient error occurs, timeoutMs
// elapses from the conversion start, or ctx is done.
func (d *Device) ReadBlocking(ctx context.Context, timeoutMs uint32) (int16, Status) {
	if !d.initialized {
		return 0, stNotInitialized
	}
	if d.cfg.Mode == ModeContinuous {
		return d.ReadRaw()
	}

	st := d.StartConversion()
	if st.Code != errcode.InProgress && st.Code != errcode.Busy {
		return 0, st
	}

	start := d.startMs
	deadline := start + timeoutMs
	readyAt := start + ConversionTimeMs(d.cfg.DataRate)

	for {
		now := d.clk.NowMs()
		if !timex.Before(now, deadline) {
			break
		}
		if ctx.Err() != nil {
			return 0, stTimeout
		}
		if timex.Before(now, readyAt) {
			d.clk.SleepMs(min(readyAt-now, deadline-now))
			continue
		}

		raw, rst := d.ReadRaw()
		if rst.OK() {
			return raw, rst
		}
		if rst.Code != errcode.NotReady {
			return 0, rst
		}
		d.clk.SleepMs(min(PollIntervalMs, deadline-now))
	}
	return 0, stTimeout
}

// ReadVoltageBlocking is ReadBlocking scaled by the active gain.
func (d *Device) ReadVoltageBlocking(ctx context.Context, timeoutMs uint32) (float32, Status) {
	raw, st := d.ReadBlocking(ctx, timeoutMs)
	if !st.OK() {
		return 0, st
	}
	return RawToVoltage(raw, d.cfg.Gain), Ok()
}

// Tick advances a pending single-shot conversion by at most one pin check
// or one status read. It never blocks.
func (d *Device) Tick(nowMs uint32) {
	if !d.initialized || d.cfg.Mode != ModeSingleShot || !d.started || d.ready {
		return
	}
	if !d.budgetElapsed(nowMs) {
		return
	}
	d.resolve()
}

// Pending reports a started single-shot conversion whose completion has not
// yet been observed. It performs no bus traffic.
func (d *Device) Pending() bool { return d.started && !d.ready }

// LastRaw returns the most recent successfully read conversion result.
func (d *Device) LastRaw() int16 { return d.lastRaw }
