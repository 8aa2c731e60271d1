package config

import (
	"ads1115-go/drivers/ads1115"
	"ads1115-go/services/sampler"
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	def := ads1115.DefaultConfig()
	d := &cfg.Device

	if d.Address == 0 {
		d.Address = def.Address
	}
	if d.TimeoutMs == 0 {
		d.TimeoutMs = def.TimeoutMs
	}
	fill(&d.Mux, def.Mux.String())
	fill(&d.Gain, def.Gain.String())
	fill(&d.DataRate, def.DataRate.String())
	fill(&d.Mode, def.Mode.String())
	fill(&d.Comparator.Mode, def.CompMode.String())
	fill(&d.Comparator.Polarity, def.CompPolarity.String())
	fill(&d.Comparator.Latch, def.CompLatch.String())
	fill(&d.Comparator.Queue, def.CompQueue.String())
	if d.Comparator.High == nil {
		v := def.HighThreshold
		d.Comparator.High = &v
	}
	if d.Comparator.Low == nil {
		v := def.LowThreshold
		d.Comparator.Low = &v
	}
	if d.AlertRdyPin == nil {
		v := def.AlertRdyPin
		d.AlertRdyPin = &v
	}
	if d.OfflineThreshold == 0 {
		d.OfflineThreshold = def.OfflineThreshold
	}

	s := &cfg.Sampler
	if s.Name == "" {
		s.Name = sampler.DefaultName
	}
	if len(s.Channels) == 0 {
		s.Channels = []string{d.Mux}
	}
	if s.IntervalMs == 0 {
		s.IntervalMs = sampler.DefaultIntervalMs
	}
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
