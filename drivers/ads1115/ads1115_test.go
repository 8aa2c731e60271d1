package ads1115

import (
	"errors"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"

	"ads1115-go/errcode"
)

func TestBeginValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"no transport", func(c *Config) { c.Transport = nil }, "I2C callbacks required"},
		{"nil adapter", func(c *Config) { c.Transport = (*TxTransport)(nil) }, "I2C callbacks required"},
		{"adapter without bus", func(c *Config) { c.Transport = NewTxTransport(nil) }, "I2C callbacks required"},
		{"zero timeout", func(c *Config) { c.TimeoutMs = 0 }, "Timeout must be > 0"},
		{"addr low", func(c *Config) { c.Address = 0x47 }, "Invalid I2C address"},
		{"addr high", func(c *Config) { c.Address = 0x4C }, "Invalid I2C address"},
		{"mux", func(c *Config) { c.Mux = 8 }, "Invalid config enum value"},
		{"gain", func(c *Config) { c.Gain = 6 }, "Invalid config enum value"},
		{"rate", func(c *Config) { c.DataRate = 8 }, "Invalid config enum value"},
		{"mode", func(c *Config) { c.Mode = 2 }, "Invalid config enum value"},
		{"comp mode", func(c *Config) { c.CompMode = 2 }, "Invalid config enum value"},
		{"polarity", func(c *Config) { c.CompPolarity = 2 }, "Invalid config enum value"},
		{"latch", func(c *Config) { c.CompLatch = 2 }, "Invalid config enum value"},
		{"queue", func(c *Config) { c.CompQueue = 4 }, "Invalid config enum value"},
		{"pin", func(c *Config) { c.AlertRdyPin = -2 }, "Invalid ALERT/RDY pin"},
		{"pin reader", func(c *Config) { c.AlertRdyPin = 4 }, "ALERT/RDY pin reader required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clk := &fakeClock{}
			f := newFakeDevice(clk)
			cfg := testConfig(f, clk)
			tc.mutate(&cfg)
			d := New()
			st := d.Begin(cfg)
			wantCode(t, st, errcode.InvalidConfig)
			if st.Msg != tc.msg {
				t.Fatalf("msg = %q, want %q", st.Msg, tc.msg)
			}
			if d.Initialized() || d.State() != StateUninit {
				t.Fatal("failed Begin left device initialised")
			}
			if len(f.log) != 0 {
				t.Fatalf("validation failure did bus I/O: %+v", f.log)
			}
		})
	}
}

func TestBeginAcceptsAllAddresses(t *testing.T) {
	for addr := uint16(AddressMin); addr <= AddressMax; addr++ {
		_, _, _ = newStarted(t, func(c *Config) { c.Address = addr })
	}
}

func TestBeginWritesThresholdsThenConfig(t *testing.T) {
	clk := &fakeClock{}
	f := newFakeDevice(clk)
	d := New()
	if st := d.Begin(testConfig(f, clk)); !st.OK() {
		t.Fatalf("Begin: %v", st)
	}
	want := []txRecord{
		{reg: RegConfig, val: DefaultConfigWord}, // probe, raw
		{write: true, reg: RegLoThresh, val: 0x8000},
		{write: true, reg: RegHiThresh, val: 0x7FFF},
		{write: true, reg: RegConfig, val: 0x4583},
	}
	if diff := cmp.Diff(want, f.log, cmp.AllowUnexported(txRecord{})); diff != "" {
		t.Fatalf("Begin traffic (-want +got):\n%s", diff)
	}
	if d.State() != StateReady || !d.IsOnline() {
		t.Fatalf("state %v", d.State())
	}
	h := d.Health()
	if h.TotalSuccess != 3 || h.TotalFailures != 0 {
		t.Fatalf("health after Begin: %+v", h)
	}
}

func TestBeginProbeFailure(t *testing.T) {
	clk := &fakeClock{}
	f := newFakeDevice(clk)
	f.failAll = true
	d := New()
	wantCode(t, d.Begin(testConfig(f, clk)), errcode.DeviceNotFound)
	if d.Initialized() {
		t.Fatal("initialised after probe failure")
	}
	wantCode(t, d.StartConversion(), errcode.NotInitialized)
	_, st := d.ReadRaw()
	wantCode(t, st, errcode.NotInitialized)
	wantCode(t, d.SetGain(Gain1V024), errcode.NotInitialized)
	wantCode(t, d.Recover(), errcode.NotInitialized)
	if d.ConversionReady() {
		t.Fatal("uninitialised device reports ready")
	}
}

func TestBeginProbePassesTimeoutThrough(t *testing.T) {
	clk := &fakeClock{}
	f := newFakeDevice(clk)
	f.failAll = true
	f.failCode = errcode.Timeout
	d := New()
	// Non-validation transport codes all surface as device-absent.
	wantCode(t, d.Begin(testConfig(f, clk)), errcode.DeviceNotFound)
}

func TestEndIsIdempotent(t *testing.T) {
	d, f, _ := newStarted(t, nil)
	d.StartConversion()
	d.End()
	d.End()
	if d.State() != StateUninit || d.Initialized() || d.IsOnline() {
		t.Fatalf("state %v", d.State())
	}
	n := len(f.log)
	wantCode(t, d.StartConversion(), errcode.NotInitialized)
	wantCode(t, d.EnableConversionReadyPin(), errcode.NotInitialized)
	wantCode(t, d.DisableComparator(), errcode.NotInitialized)
	wantCode(t, d.SetThresholds(1, 2), errcode.NotInitialized)
	if _, _, st := d.Thresholds(); st.Code != errcode.NotInitialized {
		t.Fatalf("Thresholds: %v", st)
	}
	if _, st := d.ReadConfig(); st.Code != errcode.NotInitialized {
		t.Fatalf("ReadConfig: %v", st)
	}
	wantCode(t, d.WriteConfig(DefaultConfigWord), errcode.NotInitialized)
	if len(f.log) != n {
		t.Fatal("uninitialised operations did bus I/O")
	}
	// Probe stays usable.
	wantCode(t, d.Probe(), errcode.OK)
}

func TestSettersWriteFullConfig(t *testing.T) {
	d, f, _ := newStarted(t, nil)
	wantCode(t, d.SetGain(Gain0V512), errcode.OK)
	wantCode(t, d.SetDataRate(SPS475), errcode.OK)
	wantCode(t, d.SetMux(MuxAIN0AIN3), errcode.OK)
	wantCode(t, d.SetComparatorPolarity(ActiveHigh), errcode.OK)
	wantCode(t, d.SetComparatorQueue(Assert4), errcode.OK)

	w := f.writes()
	if len(w) != 15 {
		t.Fatalf("writes = %d, want 3 per setter", len(w))
	}
	last := DecodeConfigWord(w[len(w)-1].val)
	want := ConfigFields{
		Mux: MuxAIN0AIN3, Gain: Gain0V512, DataRate: SPS475, Mode: ModeSingleShot,
		CompMode: CompTraditional, CompPolarity: ActiveHigh, CompLatch: NonLatching, CompQueue: Assert4,
	}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Fatalf("final config (-want +got):\n%s", diff)
	}
	got, st := d.ReadConfig()
	if !st.OK() || DecodeConfigWord(got) != want || !OSIdle(got) {
		t.Fatalf("ReadConfig = %#04x %v", got, st)
	}
}

func TestComparatorSettersValidate(t *testing.T) {
	d, _, _ := newStarted(t, nil)
	wantCode(t, d.SetComparatorMode(CompMode(2)), errcode.InvalidParams)
	wantCode(t, d.SetComparatorPolarity(CompPolarity(2)), errcode.InvalidParams)
	wantCode(t, d.SetComparatorLatch(CompLatch(2)), errcode.InvalidParams)
	wantCode(t, d.SetComparatorQueue(CompQueue(9)), errcode.InvalidParams)
}

func TestThresholds(t *testing.T) {
	d, f, _ := newStarted(t, nil)
	wantCode(t, d.SetThresholds(-100, 2000), errcode.OK)
	w := f.writes()
	if len(w) != 2 || w[0].reg != RegLoThresh || w[1].reg != RegHiThresh ||
		int16(w[0].val) != -100 || w[1].val != 2000 {
		t.Fatalf("threshold writes %+v", w)
	}

	f.regs[RegLoThresh] = 0x0010
	f.regs[RegHiThresh] = 0xFFF0
	lo, hi, st := d.Thresholds()
	if !st.OK() || lo != 0x10 || hi != -16 {
		t.Fatalf("Thresholds = %d %d %v", lo, hi, st)
	}
	if c := d.Config(); c.LowThreshold != 0x10 || c.HighThreshold != -16 {
		t.Fatalf("config not refreshed: %d %d", c.LowThreshold, c.HighThreshold)
	}
}

func TestThresholdWriteFailureStopsEarly(t *testing.T) {
	d, f, _ := newStarted(t, nil)
	f.failNext = 1
	wantCode(t, d.SetThresholds(1, 2), errcode.BusError)
	if len(f.writes()) != 0 {
		t.Fatal("hi threshold written after lo failed")
	}
}

func TestEnableConversionReadyPin(t *testing.T) {
	d, f, _ := newStarted(t, nil)
	wantCode(t, d.EnableConversionReadyPin(), errcode.OK)
	w := f.writes()
	if len(w) != 3 || w[0].val != 0x0000 || w[1].val != 0x8000 {
		t.Fatalf("ready-pin writes %+v", w)
	}
	fields := DecodeConfigWord(w[2].val)
	if fields.CompQueue != Assert1 || fields.CompMode != CompTraditional || fields.CompLatch != NonLatching {
		t.Fatalf("comparator fields %+v", fields)
	}
	if d.UsesReadyPin() {
		t.Fatal("no pin configured, ready pin must not be used")
	}

	wantCode(t, d.DisableComparator(), errcode.OK)
	if DecodeConfigWord(f.writes()[5].val).CompQueue != QueueDisable {
		t.Fatal("comparator not disabled")
	}
}

func TestConfigIsCopied(t *testing.T) {
	d, f, clk := newStarted(t, nil)
	cfg := d.Config()
	cfg.Gain = Gain6V144
	if d.Gain() != Gain2V048 {
		t.Fatal("Config() aliases driver state")
	}
	orig := testConfig(f, clk)
	d2 := New()
	d2.Begin(orig)
	orig.Mux = MuxAIN3GND
	if d2.Mux() != MuxAIN0GND {
		t.Fatal("Begin aliases caller config")
	}
}

func TestLoggerReceivesStateChanges(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) { lines = append(lines, args) }, funcr.Options{Verbosity: 1})
	d, f, _ := newStarted(t, func(c *Config) { c.Logger = log; c.OfflineThreshold = 1 })
	lines = nil
	f.failNext = 1
	d.Recover()
	d.Recover()
	if len(lines) != 2 {
		t.Fatalf("log lines = %q", lines)
	}
}

type fakeI2C struct {
	err  error
	addr uint16
	w, r []byte
}

func (b *fakeI2C) Tx(addr uint16, w, r []byte) error {
	b.addr, b.w = addr, append([]byte(nil), w...)
	if r != nil {
		r[0], r[1] = 0x12, 0x34
	}
	return b.err
}

func TestTxTransport(t *testing.T) {
	bus := &fakeI2C{}
	tr := NewTxTransport(bus)

	wantCode(t, tr.Write(0x49, []byte{1, 2, 3}, 10), errcode.OK)
	if bus.addr != 0x49 || len(bus.w) != 3 {
		t.Fatalf("Tx got addr %#x w %v", bus.addr, bus.w)
	}
	var r [2]byte
	wantCode(t, tr.WriteRead(0x49, []byte{0}, r[:], 10), errcode.OK)
	if r != [2]byte{0x12, 0x34} {
		t.Fatalf("read %v", r)
	}

	bus.err = errors.New("nack")
	st := tr.Write(0x49, []byte{0}, 10)
	wantCode(t, st, errcode.BusError)
	if st.Detail != -1 {
		t.Fatalf("detail %d", st.Detail)
	}
	bus.err = errcode.Timeout
	wantCode(t, tr.WriteRead(0x49, []byte{0}, r[:], 10), errcode.Timeout)
}

type timeoutI2C struct {
	fakeI2C
	gotTimeout uint32
}

func (b *timeoutI2C) TxTimeout(addr uint16, w, r []byte, timeoutMs uint32) error {
	b.gotTimeout = timeoutMs
	return b.Tx(addr, w, r)
}

func TestTxTransportForwardsTimeout(t *testing.T) {
	bus := &timeoutI2C{}
	tr := NewTxTransport(bus)
	wantCode(t, tr.Write(0x48, []byte{1, 0, 0}, 37), errcode.OK)
	if bus.gotTimeout != 37 {
		t.Fatalf("timeout forwarded = %d", bus.gotTimeout)
	}
	var r [2]byte
	wantCode(t, tr.WriteRead(0x48, []byte{0}, r[:], 12), errcode.OK)
	if bus.gotTimeout != 12 {
		t.Fatalf("timeout forwarded = %d", bus.gotTimeout)
	}
}

func TestDeviceOverTxTransport(t *testing.T) {
	clk := &fakeClock{}
	sim := newFakeDevice(clk)
	bus := i2cOverFake{sim}
	cfg := DefaultConfig()
	cfg.Transport = NewTxTransport(bus)
	cfg.Clock = clk
	d := New()
	if st := d.Begin(cfg); !st.OK() {
		t.Fatalf("Begin over Tx: %v", st)
	}
	if _, st := d.ReadBlocking(t.Context(), 50); !st.OK() {
		t.Fatalf("ReadBlocking over Tx: %v", st)
	}
}

// i2cOverFake exposes the simulated device through the drivers.I2C shape.
type i2cOverFake struct{ f *fakeDevice }

func (b i2cOverFake) Tx(addr uint16, w, r []byte) error {
	var st Status
	if len(r) == 0 {
		st = b.f.Write(addr, w, 0)
	} else {
		st = b.f.WriteRead(addr, w, r, 0)
	}
	return st.Err()
}
