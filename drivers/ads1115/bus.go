package ads1115

import "ads1115-go/errcode"

// Transport performs bus transactions on behalf of the driver. WriteRead
// MUST issue a repeated-start read after the write without releasing the
// bus. Implementations map every failure to a Status code and never block
// past timeoutMs.
type Transport interface {
	Write(addr uint16, w []byte, timeoutMs uint32) Status
	WriteRead(addr uint16, w, r []byte, timeoutMs uint32) Status
}

// ---------------- Raw path (never touches health) ----------------

func (d *Device) writeRaw(w []byte) Status {
	if d.cfg.Transport == nil {
		return Fail(errcode.InvalidConfig, "I2C write callback missing", 0)
	}
	return d.cfg.Transport.Write(d.cfg.Address, w, d.cfg.TimeoutMs)
}

func (d *Device) writeReadRaw(w, r []byte) Status {
	if d.cfg.Transport == nil {
		return Fail(errcode.InvalidConfig, "I2C read callback missing", 0)
	}
	return d.cfg.Transport.WriteRead(d.cfg.Address, w, r, d.cfg.TimeoutMs)
}

// ---------------- Tracked path (feeds health) ----------------

func (d *Device) writeTracked(w []byte) Status {
	st := d.writeRaw(w)
	if st.Code.IsValidation() {
		return st
	}
	return d.updateHealth(st)
}

func (d *Device) writeReadTracked(w, r []byte) Status {
	st := d.writeReadRaw(w, r)
	if st.Code.IsValidation() {
		return st
	}
	return d.updateHealth(st)
}

// ---------------- 16-bit registers (big-endian: MSB then LSB) ----------------

func (d *Device) readReg(reg byte) (uint16, Status) {
	d.w[0] = reg
	d.r[0], d.r[1] = 0, 0
	if st := d.writeReadTracked(d.w[:1], d.r[:2]); !st.OK() {
		return 0, st
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), Ok()
}

func (d *Device) readRegRaw(reg byte) (uint16, Status) {
	d.w[0] = reg
	d.r[0], d.r[1] = 0, 0
	if st := d.writeReadRaw(d.w[:1], d.r[:2]); !st.OK() {
		return 0, st
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), Ok()
}

func (d *Device) writeReg(reg byte, val uint16) Status {
	d.w[0] = reg
	d.w[1] = byte(val >> 8)
	d.w[2] = byte(val)
	return d.writeTracked(d.w[:3])
}
