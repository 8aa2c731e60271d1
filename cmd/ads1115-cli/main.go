// cmd/ads1115-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"

	"ads1115-go/bus"
	"ads1115-go/console"
	"ads1115-go/drivers/ads1115"
	"ads1115-go/drivers/ads1115/sim"
	"ads1115-go/services/config"
	"ads1115-go/services/sampler"
)

// ---------- Flags ----------

type options struct {
	configPath string
	board      string
	busName    string
	addr       uint
	alertPin   int
	verbosity  int
	command    string
	sample     bool
	duration   time.Duration
}

func parseFlags(fs *flag.FlagSet, args []string) (options, map[string]bool, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.StringVar(&o.board, "board", "", "embedded preset (rpi, sim) used when -config is absent")
	fs.StringVar(&o.busName, "bus", "", `I2C bus name, or "sim"`)
	fs.UintVar(&o.addr, "addr", 0, "device address (0x48..0x4B)")
	fs.IntVar(&o.alertPin, "alert-pin", -1, "GPIO wired to ALERT/RDY, -1 for none")
	fs.IntVar(&o.verbosity, "v", 0, "log verbosity")
	fs.StringVar(&o.command, "c", "", `run console commands (';'-separated) and exit`)
	fs.BoolVar(&o.sample, "sample", false, "run the sampler and print bus traffic")
	fs.DurationVar(&o.duration, "duration", 0, "stop sampling after this long (0: until interrupted)")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// loadConfig resolves the file or preset, applies flag overrides, then
// validates and normalises.
func loadConfig(o options, set map[string]bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case o.configPath != "":
		cfg, err = config.Load(o.configPath)
	case o.board != "":
		cfg, err = config.Resolve(config.WithDevice(context.Background(), o.board))
	default:
		cfg = &config.Config{}
	}
	if err != nil {
		return nil, err
	}

	if set["bus"] {
		cfg.Bus.Name = o.busName
	}
	if set["addr"] {
		cfg.Device.Address = uint16(o.addr)
	}
	if set["alert-pin"] {
		pin := o.alertPin
		cfg.Device.AlertRdyPin = &pin
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

// ---------- Main ----------

func main() {
	o, set, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	stdr.SetVerbosity(o.verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, set, logger, os.Stdin, os.Stdout); err != nil {
		logger.Error(err, "exit")
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, set map[string]bool, logger logr.Logger, in io.Reader, out io.Writer) error {
	cfg, err := loadConfig(o, set)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	tr, readPin, closeBus, err := openBus(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBus()

	dev := ads1115.New()
	if st := dev.Begin(cfg.DriverConfig(tr, readPin, logger.WithName("ads1115"))); !st.OK() {
		return fmt.Errorf("begin: %w", st.Err())
	}
	logger.Info("device ready", "addr", fmt.Sprintf("0x%02X", cfg.Device.Address),
		"bus", cfg.Bus.Name, "ready_pin", dev.UsesReadyPin())

	if o.sample {
		return sample(ctx, o, cfg, dev, logger, out)
	}

	con := console.New(dev, console.Options{
		Out:       out,
		Logger:    logger,
		OnVerbose: func(on bool) { stdr.SetVerbosity(boolToInt(on)) },
	})
	if o.command != "" {
		for _, line := range strings.Split(o.command, ";") {
			if err := con.Exec(ctx, line); errors.Is(err, console.ErrQuit) {
				break
			}
		}
		return nil
	}
	fmt.Fprintln(out, "Type 'help' for commands")
	return con.Run(ctx, in)
}

// sample runs the sampler and prints every adc/ and config/ message as a
// JSON line.
func sample(ctx context.Context, o options, cfg *config.Config, dev *ads1115.Device, logger logr.Logger, out io.Writer) error {
	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	b := bus.NewBus(32)
	mon := b.NewConnection("cli")
	defer mon.Disconnect()
	config.Publish(b.NewConnection("config"), cfg)

	cfgSub := mon.Subscribe(bus.T("config", bus.Multi))
	adcSub := mon.Subscribe(bus.T("adc", bus.Multi))

	svc := sampler.New(b.NewConnection("sampler"), dev, cfg.SamplerOptions(logger))
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	enc := json.NewEncoder(out)
	for {
		select {
		case m := <-cfgSub.Channel():
			printMessage(enc, m)
		case m := <-adcSub.Channel():
			printMessage(enc, m)
		case err := <-done:
			return err
		}
	}
}

type messageLine struct {
	Topic    string `json:"topic"`
	Retained bool   `json:"retained,omitempty"`
	Payload  any    `json:"payload"`
}

func printMessage(enc *json.Encoder, m *bus.Message) {
	if m == nil {
		return
	}
	_ = enc.Encode(messageLine{m.Topic.String(), m.Retained, m.Payload})
}

// simBus builds the in-process simulator with a distinct input on every
// single-ended channel.
func simBus(addr uint16) *sim.Device {
	d := sim.New(addr, nil)
	for ch := range 4 {
		m, _ := ads1115.SingleEnded(ch)
		d.SetInput(m, int16(4000*(ch+1)))
	}
	return d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
