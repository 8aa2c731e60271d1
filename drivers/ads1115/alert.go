package ads1115

import "ads1115-go/errcode"

// ALERT/RDY is used as a conversion-ready signal only when a pin is wired
// and the comparator holds the exact ready-pin pattern. Any other
// comparator setup falls back to polling the OS bit.

func (c *Config) readyPinWired() bool { return c.AlertRdyPin >= 0 && c.ReadPin != nil }

func (c *Config) readyPinPattern() bool {
	return c.LowThreshold == readyPinLoThresh &&
		c.HighThreshold == readyPinHiThresh &&
		c.CompQueue == Assert1 &&
		c.CompMode == CompTraditional &&
		c.CompLatch == NonLatching
}

func (c *Config) useReadyPin() bool { return c.readyPinWired() && c.readyPinPattern() }

func (c *Config) readyPinAsserted() bool {
	if !c.useReadyPin() {
		return false
	}
	level := c.ReadPin(c.AlertRdyPin)
	if c.CompPolarity == ActiveHigh {
		return level
	}
	return !level
}

// UsesReadyPin reports whether conversion completion is detected on the
// ALERT/RDY pin rather than by polling the CONFIG register.
func (d *Device) UsesReadyPin() bool { return d.cfg.useReadyPin() }

// EnableConversionReadyPin programs the comparator so ALERT/RDY pulses once
// per completed conversion.
func (d *Device) EnableConversionReadyPin() Status {
	if !d.initialized {
		return stNotInitialized
	}
	d.cfg.LowThreshold = readyPinLoThresh
	d.cfg.HighThreshold = readyPinHiThresh
	d.cfg.CompQueue = Assert1
	d.cfg.CompMode = CompTraditional
	d.cfg.CompLatch = NonLatching
	return d.applyConfig()
}

// DisableComparator sets the queue to disabled; ALERT/RDY goes high-Z.
func (d *Device) DisableComparator() Status {
	if !d.initialized {
		return stNotInitialized
	}
	d.cfg.CompQueue = QueueDisable
	return d.applyConfig()
}

// SetThresholds writes Lo_thresh then Hi_thresh.
func (d *Device) SetThresholds(low, high int16) Status {
	if !d.initialized {
		return stNotInitialized
	}
	d.cfg.LowThreshold = low
	d.cfg.HighThreshold = high
	if st := d.writeReg(RegLoThresh, uint16(low)); !st.OK() {
		return st
	}
	return d.writeReg(RegHiThresh, uint16(high))
}

// Thresholds reads both threshold registers back from the device and
// refreshes the stored configuration.
func (d *Device) Thresholds() (low, high int16, st Status) {
	if !d.initialized {
		return 0, 0, stNotInitialized
	}
	lo, st := d.readReg(RegLoThresh)
	if !st.OK() {
		return 0, 0, st
	}
	hi, st := d.readReg(RegHiThresh)
	if !st.OK() {
		return 0, 0, st
	}
	d.cfg.LowThreshold = int16(lo)
	d.cfg.HighThreshold = int16(hi)
	return int16(lo), int16(hi), Ok()
}

func (d *Device) SetComparatorMode(m CompMode) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !m.Valid() {
		return Fail(errcode.InvalidParams, "Invalid comparator mode", 0)
	}
	d.cfg.CompMode = m
	return d.applyConfig()
}

func (d *Device) SetComparatorPolarity(p CompPolarity) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !p.Valid() {
		return Fail(errcode.InvalidParams, "Invalid comparator polarity", 0)
	}
	d.cfg.CompPolarity = p
	return d.applyConfig()
}

func (d *Device) SetComparatorLatch(l CompLatch) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !l.Valid() {
		return Fail(errcode.InvalidParams, "Invalid comparator latch", 0)
	}
	d.cfg.CompLatch = l
	return d.applyConfig()
}

func (d *Device) SetComparatorQueue(q CompQueue) Status {
	if !d.initialized {
		return stNotInitialized
	}
	if !q.Valid() {
		return Fail(errcode.InvalidParams, "Invalid comparator queue", 0)
	}
	d.cfg.CompQueue = q
	return d.applyConfig()
}
