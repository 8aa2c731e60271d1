// Package console is the line-oriented bring-up interpreter for an
// ADS1115. It is transport-agnostic: the host CLI feeds it stdin and the
// Pico firmware feeds it a UART.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/shlex"
	"golang.org/x/time/rate"

	"ads1115-go/drivers/ads1115"
	"ads1115-go/errcode"
	"ads1115-go/x/timex"
)

// ErrQuit is returned by Exec for quit/exit.
var ErrQuit = errors.New("console: quit")

const (
	DefaultStressCount = 10
	MaxStressCount     = 100_000
)

type Options struct {
	Out    io.Writer
	Logger logr.Logger
	// OnVerbose is called by "verbose 0|1" after the console's own flag
	// has changed.
	OnVerbose func(on bool)
	// StressRate paces stress iterations; zero runs them back to back.
	StressRate rate.Limit
	// ReadTimeoutMs bounds each blocking read. Zero means
	// ads1115.DefaultBlockingTimeoutMs.
	ReadTimeoutMs uint32
}

type Console struct {
	dev  *ads1115.Device
	out  io.Writer
	log  logr.Logger
	clk  ads1115.Clock
	opts Options

	verbose bool
}

func New(dev *ads1115.Device, opts Options) *Console {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.ReadTimeoutMs == 0 {
		opts.ReadTimeoutMs = ads1115.DefaultBlockingTimeoutMs
	}
	clk := dev.Config().Clock
	if clk == nil {
		clk = timex.Clock{}
	}
	return &Console{
		dev:  dev,
		out:  opts.Out,
		log:  opts.Logger.WithName("console"),
		clk:  clk,
		opts: opts,
	}
}

// Verbose reports the console's verbose flag.
func (c *Console) Verbose() bool { return c.verbose }

// Tick advances any pending conversion without blocking.
func (c *Console) Tick() { c.dev.Tick(c.clk.NowMs()) }

func (c *Console) Prompt() { io.WriteString(c.out, "> ") }

// Run executes one command per input line until EOF, quit, or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Split(scanCommandLines)
	c.Prompt()
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Tick()
		if err := c.Exec(ctx, sc.Text()); errors.Is(err, ErrQuit) {
			return nil
		}
		c.Prompt()
	}
	return sc.Err()
}

// scanCommandLines splits on '\n' or '\r' so serial terminals that send a
// bare CR work. Empty lines are dropped.
func scanCommandLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\n' || data[start] == '\r') {
		start++
	}
	for i := start; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			return i + 1, data[start:i], nil
		}
	}
	if atEOF && start < len(data) {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

// Exec runs one command line. Only ErrQuit is returned; everything else is
// reported on the output.
func (c *Console) Exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		c.warnf("Parse error: %v", err)
		return nil
	}
	if len(args) == 0 {
		return nil
	}
	c.log.V(1).Info("exec", "cmd", args[0], "args", len(args)-1)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "quit", "exit", "q":
		return ErrQuit
	case "help", "?":
		c.help()
	case "scan":
		c.scan()
	case "probe":
		c.infof("Probing device (no health tracking)...")
		c.status(c.dev.Probe())
	case "drv":
		c.health()
	case "recover":
		c.infof("Attempting recovery...")
		c.status(c.dev.Recover())
		c.health()
	case "verbose":
		c.setVerbose(rest)
	case "start":
		c.status(c.dev.StartConversion())
	case "poll":
		c.infof("Conversion ready: %s", yesNo(c.dev.ConversionReady()))
	case "raw":
		c.raw()
	case "voltage":
		v, st := c.dev.ReadVoltage()
		if !st.OK() {
			c.status(st)
			return nil
		}
		c.printf("  Voltage: %.6f V\n", v)
	case "read":
		c.read(ctx, rest)
	case "ch":
		c.setMux(rest, ads1115.SingleEnded, "Invalid channel")
	case "diff":
		c.setMux(rest, ads1115.Differential, "Invalid differential index")
	case "gain":
		n, ok := intArg(rest, 0, int(ads1115.Gain0V256))
		if !ok {
			c.warnf("Invalid gain")
			return nil
		}
		c.status(c.dev.SetGain(ads1115.Gain(n)))
	case "rate":
		n, ok := intArg(rest, 0, int(ads1115.SPS860))
		if !ok {
			c.warnf("Invalid rate")
			return nil
		}
		c.status(c.dev.SetDataRate(ads1115.DataRate(n)))
	case "mode":
		c.setMode(rest)
	case "stress":
		c.stress(ctx, rest)
	case "config":
		c.config()
	default:
		c.warnf("Unknown command: %s", cmd)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func (c *Console) help() {
	io.WriteString(c.out, `Commands:
  help              - Show this help
  read              - Read single conversion (blocking)
  read N            - Read N conversions
  start             - Start single-shot conversion
  poll              - Check if conversion ready
  raw               - Read raw value
  voltage           - Read as voltage

Channel/Gain:
  ch 0|1|2|3        - Set single-ended channel (AINx vs GND)
  diff 0|1|2|3      - Set differential pair (0=0-1, 1=0-3, 2=1-3, 3=2-3)
  gain 0..5         - Set PGA (0=6.144V, 2=2.048V, 5=0.256V)
  rate 0..7         - Set data rate (0=8SPS .. 7=860SPS)
  mode single|cont  - Set operating mode

Driver Debugging:
  drv               - Show driver state and health
  probe             - Probe device (no health tracking)
  recover           - Manual recovery attempt
  verbose 0|1       - Enable/disable verbose output
  stress [N]        - Run N conversion cycles (default 10)
  config            - Dump config register
  scan              - Scan for ADS1115 addresses
  quit              - Leave the console
`)
}

func (c *Console) raw() {
	raw, st := c.dev.ReadRaw()
	if !st.OK() {
		c.status(st)
		return
	}
	c.printf("  Raw: %d\n", raw)
	c.verbosef("  Voltage: %.6f V", c.dev.RawToVoltage(raw))
}

func (c *Console) read(ctx context.Context, args []string) {
	if len(args) == 0 {
		raw, st := c.dev.ReadBlocking(ctx, c.opts.ReadTimeoutMs)
		if !st.OK() {
			c.status(st)
			return
		}
		c.printf("  Raw: %d\n", raw)
		c.printf("  Voltage: %.6f V\n", c.dev.RawToVoltage(raw))
		return
	}

	n, ok := intArg(args, 1, MaxStressCount)
	if !ok {
		c.warnf("Invalid count")
		return
	}
	for i := range n {
		raw, st := c.dev.ReadBlocking(ctx, c.opts.ReadTimeoutMs)
		if !st.OK() {
			c.status(st)
			return
		}
		if c.verbose {
			c.printf("  %d: %d (%.6f V)\n", i+1, raw, c.dev.RawToVoltage(raw))
		}
	}
}

func (c *Console) setMux(args []string, sel func(int) (ads1115.Mux, bool), invalid string) {
	n, ok := intArg(args, 0, 3)
	if !ok {
		c.warnf("%s", invalid)
		return
	}
	m, _ := sel(n)
	c.status(c.dev.SetMux(m))
}

func (c *Console) setMode(args []string) {
	if len(args) != 1 {
		c.warnf("Invalid mode")
		return
	}
	switch args[0] {
	case "single":
		c.status(c.dev.SetMode(ads1115.ModeSingleShot))
	case "cont", "continuous":
		c.status(c.dev.SetMode(ads1115.ModeContinuous))
	default:
		c.warnf("Invalid mode")
	}
}

func (c *Console) setVerbose(args []string) {
	n, ok := intArg(args, 0, 1<<30)
	if !ok {
		c.warnf("Usage: verbose 0|1")
		return
	}
	c.verbose = n != 0
	if c.opts.OnVerbose != nil {
		c.opts.OnVerbose(c.verbose)
	}
	c.infof("Verbose mode: %s", onOff(c.verbose))
}

type stressStats struct {
	ok, failed int
	min, max   int16
	sum        int64
}

func (s *stressStats) add(raw int16) {
	if s.ok == 0 || raw < s.min {
		s.min = raw
	}
	if s.ok == 0 || raw > s.max {
		s.max = raw
	}
	s.ok++
	s.sum += int64(raw)
}

func (c *Console) stress(ctx context.Context, args []string) {
	n := DefaultStressCount
	if len(args) > 0 {
		var ok bool
		if n, ok = intArg(args, 1, MaxStressCount); !ok {
			c.warnf("Invalid count")
			return
		}
	}

	var lim *rate.Limiter
	if c.opts.StressRate > 0 {
		lim = rate.NewLimiter(c.opts.StressRate, 1)
	}

	var s stressStats
	began := time.Now()
	for i := range n {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				c.warnf("Stress aborted: %v", err)
				break
			}
		}
		raw, st := c.dev.ReadBlocking(ctx, c.opts.ReadTimeoutMs)
		if !st.OK() {
			s.failed++
			if c.verbose {
				c.status(st)
			}
			continue
		}
		s.add(raw)
		c.verbosef("  %d: %d (%.6f V)", i+1, raw, c.dev.RawToVoltage(raw))
	}

	c.printf("  Stress results: %d ok, %d failed\n", s.ok, s.failed)
	c.printf("  Elapsed: %d ms\n", time.Since(began).Milliseconds())
	if s.ok > 0 {
		c.printf("  Raw min/max/avg: %d / %d / %d\n", s.min, s.max, s.sum/int64(s.ok))
	}
	c.log.V(1).Info("stress done", "ok", s.ok, "failed", s.failed)
}

func (c *Console) config() {
	v, st := c.dev.ReadConfig()
	if !st.OK() {
		c.status(st)
		return
	}
	f := ads1115.DecodeConfigWord(v)
	c.printf("  Config: 0x%04X\n", v)
	c.printf("  OS: %s  Mux: %s  Gain: %s  Rate: %s  Mode: %s\n",
		busyIdle(ads1115.OSIdle(v)), f.Mux, f.Gain, f.DataRate, f.Mode)
	c.printf("  Full scale: +/-%.3f V\n", ads1115.FullScaleVolts(f.Gain))
	c.printf("  Comparator: %s %s %s queue=%s\n", f.CompMode, f.CompPolarity, f.CompLatch, f.CompQueue)

	lo, hi, st := c.dev.Thresholds()
	if !st.OK() {
		c.status(st)
		return
	}
	c.printf("  Thresholds: lo=%d hi=%d\n", lo, hi)
}

// scan probes every strap address through the device's transport. It
// bypasses health tracking.
func (c *Console) scan() {
	cfg := c.dev.Config()
	if cfg.Transport == nil {
		c.status(ads1115.Fail(errcode.InvalidConfig, "I2C callbacks required", 0))
		return
	}
	c.infof("Scanning 0x%02X..0x%02X", ads1115.AddressMin, ads1115.AddressMax)
	w := [1]byte{ads1115.RegConfig}
	var r [2]byte
	found := 0
	for addr := uint16(ads1115.AddressMin); addr <= ads1115.AddressMax; addr++ {
		if st := cfg.Transport.WriteRead(addr, w[:], r[:], cfg.TimeoutMs); st.OK() {
			c.printf("  Found device at 0x%02X\n", addr)
			found++
		}
	}
	c.infof("Scan complete: %d device(s)", found)
}

func (c *Console) health() {
	h := c.dev.Health()
	c.printf("=== Driver State ===\n")
	c.printf("  State: %s\n", h.State)
	c.printf("  Consecutive failures: %d\n", h.ConsecutiveFailures)
	c.printf("  Total failures: %d\n", h.TotalFailures)
	c.printf("  Total success: %d\n", h.TotalSuccess)
	c.printf("  Last OK at: %d ms\n", h.LastOkMs)
	c.printf("  Last error at: %d ms\n", h.LastErrorMs)
	if !h.LastError.OK() {
		c.printf("  Last error: %s\n", h.LastError.Code)
	}
}

// -----------------------------------------------------------------------------
// Output helpers
// -----------------------------------------------------------------------------

func (c *Console) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }

func (c *Console) infof(format string, args ...any) { c.printf("[I] "+format+"\n", args...) }
func (c *Console) warnf(format string, args ...any) { c.printf("[W] "+format+"\n", args...) }

func (c *Console) verbosef(format string, args ...any) {
	if c.verbose {
		c.printf("[V] "+format+"\n", args...)
	}
}

func (c *Console) status(st ads1115.Status) {
	c.printf("  Status: %s (detail=%d)\n", string(st.Code), st.Detail)
	if st.Msg != "" {
		c.printf("  Message: %s\n", st.Msg)
	}
}

// intArg parses a single integer argument within [lo, hi].
func intArg(args []string, lo, hi int) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func busyIdle(idle bool) string {
	if idle {
		return "idle"
	}
	return "busy"
}
