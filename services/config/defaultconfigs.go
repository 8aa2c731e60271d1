package config

import "time"

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: preset name (same value placed in ctx by WithDevice)
// Val: raw YAML for that board
// -----------------------------------------------------------------------------

// EmbeddedConfigLookup allows overriding how presets are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

const cfgRPi = `
bus:
  name: "1"
  speed_hz: 400000
device:
  address: 0x48
  gain: 4.096v
  data_rate: 128sps
  mode: single
  alert_rdy_pin: 17
sampler:
  channels: [ain0-gnd, ain1-gnd, ain2-gnd, ain3-gnd]
  interval_ms: 1000
  auto_recover: true
`

const cfgSim = `
bus:
  name: sim
device:
  address: 0x48
  data_rate: 860sps
sampler:
  channels: [ain0-gnd, ain1-gnd]
  interval_ms: 500
`

var embeddedConfigs = map[string][]byte{
	"rpi": []byte(cfgRPi),
	"sim": []byte(cfgSim),
}

func msDuration(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }
