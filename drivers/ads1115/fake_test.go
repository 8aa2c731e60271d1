package ads1115

import (
	"testing"

	"ads1115-go/errcode"
)

// ---------------- Fake clock ----------------

type fakeClock struct{ now uint32 }

func (c *fakeClock) NowMs() uint32     { return c.now }
func (c *fakeClock) SleepMs(ms uint32) { c.now += ms }
func (c *fakeClock) advance(ms uint32) { c.now += ms }

// ---------------- Simulated ADS1115 ----------------

type txRecord struct {
	write bool
	reg   byte
	val   uint16
}

type fakeDevice struct {
	clk  *fakeClock
	regs [4]uint16

	// Conversion simulation.
	convMs     uint32 // device conversion time; 0 completes instantly
	converting bool
	convStart  uint32
	sample     int16

	// Fault injection.
	failNext  int          // fail the next N transactions
	failAll   bool         // fail everything
	failCode  errcode.Code // defaults to BusError
	failWrite bool         // restrict failures to writes

	log []txRecord
}

func newFakeDevice(clk *fakeClock) *fakeDevice {
	f := &fakeDevice{clk: clk, convMs: 8, sample: 12345}
	f.regs[RegConfig] = DefaultConfigWord
	f.regs[RegLoThresh] = DefaultLoThresh
	f.regs[RegHiThresh] = DefaultHiThresh
	return f
}

func (f *fakeDevice) fail(write bool) (Status, bool) {
	if f.failWrite && !write {
		return Status{}, false
	}
	if !f.failAll && f.failNext == 0 {
		return Status{}, false
	}
	if f.failNext > 0 {
		f.failNext--
	}
	c := f.failCode
	if c == "" {
		c = errcode.BusError
	}
	return Fail(c, "injected", -5), true
}

func (f *fakeDevice) step() {
	if f.converting && f.clk.now-f.convStart >= f.convMs {
		f.converting = false
		f.regs[RegConversion] = uint16(f.sample)
	}
}

func (f *fakeDevice) Write(addr uint16, w []byte, timeoutMs uint32) Status {
	if st, bad := f.fail(true); bad {
		return st
	}
	if len(w) != 3 || w[0] > RegHiThresh {
		return Fail(errcode.BusError, "bad frame", int32(len(w)))
	}
	v := uint16(w[1])<<8 | uint16(w[2])
	f.log = append(f.log, txRecord{write: true, reg: w[0], val: v})
	if w[0] == RegConfig {
		f.regs[RegConfig] = v &^ cfgOSMask
		if v&cfgModeMask == 0 {
			f.regs[RegConversion] = uint16(f.sample)
		} else if v&cfgOSMask != 0 {
			f.converting = true
			f.convStart = f.clk.now
			f.step()
		}
		return Ok()
	}
	f.regs[w[0]] = v
	return Ok()
}

func (f *fakeDevice) WriteRead(addr uint16, w, r []byte, timeoutMs uint32) Status {
	if st, bad := f.fail(false); bad {
		return st
	}
	if len(w) != 1 || len(r) != 2 || w[0] > RegHiThresh {
		return Fail(errcode.BusError, "bad frame", int32(len(w)))
	}
	f.step()
	v := f.regs[w[0]]
	if w[0] == RegConfig && !f.converting {
		v |= cfgOSMask
	}
	r[0], r[1] = byte(v>>8), byte(v)
	f.log = append(f.log, txRecord{reg: w[0], val: v})
	return Ok()
}

func (f *fakeDevice) reads(reg byte) int {
	n := 0
	for _, x := range f.log {
		if !x.write && x.reg == reg {
			n++
		}
	}
	return n
}

func (f *fakeDevice) writes() []txRecord {
	var out []txRecord
	for _, x := range f.log {
		if x.write {
			out = append(out, x)
		}
	}
	return out
}

// ---------------- Helpers ----------------

func testConfig(f *fakeDevice, clk *fakeClock) Config {
	cfg := DefaultConfig()
	cfg.Transport = f
	cfg.Clock = clk
	return cfg
}

func newStarted(t *testing.T, mutate func(*Config)) (*Device, *fakeDevice, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: 1000}
	f := newFakeDevice(clk)
	cfg := testConfig(f, clk)
	if mutate != nil {
		mutate(&cfg)
	}
	d := New()
	if st := d.Begin(cfg); !st.OK() {
		t.Fatalf("Begin: %v", st)
	}
	f.log = nil
	return d, f, clk
}

func wantCode(t *testing.T, st Status, c errcode.Code) {
	t.Helper()
	if st.Code != c {
		t.Fatalf("status = %v, want code %q", st, c)
	}
}
