// Package config is the YAML configuration model for an ADS1115 node,
// its embedded board presets, and its retained publication on the bus.
//
// Loading is split into Parse/Load, Validate (declarative, never mutates),
// and Normalize (fills defaults, call only after Validate).
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"ads1115-go/bus"
	"ads1115-go/drivers/ads1115"
	"ads1115-go/services/sampler"
)

// -----------------------------------------------------------------------------
// String constants
// -----------------------------------------------------------------------------

const configPrefix = "config"

type ctxKey string

const ctxDeviceKey ctxKey = "device"

// WithDevice returns ctx carrying the preset name read by Resolve.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxDeviceKey, device)
}

// -----------------------------------------------------------------------------
// Model
// -----------------------------------------------------------------------------

type Config struct {
	Bus     BusConfig     `yaml:"bus"`
	Device  DeviceConfig  `yaml:"device"`
	Sampler SamplerConfig `yaml:"sampler"`
}

type BusConfig struct {
	// Name is the periph bus name ("1", "/dev/i2c-1"), "" for the first
	// bus, or "sim" for the built-in simulator.
	Name    string `yaml:"name"`
	SpeedHz int64  `yaml:"speed_hz"`
}

type DeviceConfig struct {
	Address          uint16           `yaml:"address"`
	TimeoutMs        uint32           `yaml:"timeout_ms"`
	Mux              string           `yaml:"mux"`
	Gain             string           `yaml:"gain"`
	DataRate         string           `yaml:"data_rate"`
	Mode             string           `yaml:"mode"`
	Comparator       ComparatorConfig `yaml:"comparator"`
	AlertRdyPin      *int             `yaml:"alert_rdy_pin"` // nil or -1: unwired
	OfflineThreshold uint8            `yaml:"offline_threshold"`
}

type ComparatorConfig struct {
	Mode     string `yaml:"mode"`
	Polarity string `yaml:"polarity"`
	Latch    string `yaml:"latch"`
	Queue    string `yaml:"queue"`
	High     *int16 `yaml:"high"`
	Low      *int16 `yaml:"low"`
}

type SamplerConfig struct {
	Name           string   `yaml:"name"`
	Channels       []string `yaml:"channels"`
	IntervalMs     uint32   `yaml:"interval_ms"`
	AutoRecover    bool     `yaml:"auto_recover"`
	RecoverEveryMs uint32   `yaml:"recover_every_ms"`
}

// Parse decodes one YAML document. Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// DriverConfig converts a validated, normalised Config. The caller supplies
// the transport and, when a ready pin is configured, its reader.
func (c *Config) DriverConfig(tr ads1115.Transport, readPin ads1115.LevelFunc, log logr.Logger) ads1115.Config {
	d := c.Device
	out := ads1115.DefaultConfig()
	out.Transport = tr
	out.ReadPin = readPin
	out.Logger = log
	out.Address = d.Address
	out.TimeoutMs = d.TimeoutMs
	out.Mux, _ = ads1115.ParseMux(d.Mux)
	out.Gain, _ = ads1115.ParseGain(d.Gain)
	out.DataRate, _ = ads1115.ParseDataRate(d.DataRate)
	out.Mode, _ = ads1115.ParseMode(d.Mode)
	out.CompMode, _ = ads1115.ParseCompMode(d.Comparator.Mode)
	out.CompPolarity, _ = ads1115.ParseCompPolarity(d.Comparator.Polarity)
	out.CompLatch, _ = ads1115.ParseCompLatch(d.Comparator.Latch)
	out.CompQueue, _ = ads1115.ParseCompQueue(d.Comparator.Queue)
	if d.Comparator.High != nil {
		out.HighThreshold = *d.Comparator.High
	}
	if d.Comparator.Low != nil {
		out.LowThreshold = *d.Comparator.Low
	}
	if d.AlertRdyPin != nil {
		out.AlertRdyPin = *d.AlertRdyPin
	}
	out.OfflineThreshold = d.OfflineThreshold
	return out
}

// SamplerOptions converts the sampler section of a validated Config.
func (c *Config) SamplerOptions(log logr.Logger) sampler.Options {
	s := c.Sampler
	opts := sampler.Options{
		Name:        s.Name,
		IntervalMs:  s.IntervalMs,
		AutoRecover: s.AutoRecover,
		Logger:      log,
	}
	for _, name := range s.Channels {
		if m, ok := ads1115.ParseMux(name); ok {
			opts.Channels = append(opts.Channels, m)
		}
	}
	if s.RecoverEveryMs > 0 {
		opts.RecoverEvery = msDuration(s.RecoverEveryMs)
	}
	return opts
}

// -----------------------------------------------------------------------------
// Publishing and presets
// -----------------------------------------------------------------------------

// Publish publishes each section of cfg retained under config/<section>.
func Publish(conn *bus.Connection, cfg *Config) {
	for _, s := range []struct {
		key string
		val any
	}{
		{"bus", cfg.Bus},
		{"device", cfg.Device},
		{"sampler", cfg.Sampler},
	} {
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, s.key),
			Payload:  s.val,
			Retained: true,
		})
	}
}

// Resolve returns the validated, normalised preset named by the device in
// ctx.
func Resolve(ctx context.Context) (*Config, error) {
	device, _ := ctx.Value(ctxDeviceKey).(string)
	if device == "" {
		return nil, errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for device: " + device)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}
