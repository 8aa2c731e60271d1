//go:build !linux

package main

import (
	"fmt"

	"github.com/go-logr/logr"

	"ads1115-go/drivers/ads1115"
	"ads1115-go/services/config"
)

// Only the simulator is available off Linux.
func openBus(cfg *config.Config, _ logr.Logger) (ads1115.Transport, ads1115.LevelFunc, func(), error) {
	if cfg.Bus.Name != "sim" {
		return nil, nil, nil, fmt.Errorf("bus %q: hardware buses need linux; use -bus sim", cfg.Bus.Name)
	}
	if *cfg.Device.AlertRdyPin >= 0 {
		return nil, nil, nil, fmt.Errorf("alert_rdy_pin is not supported on the sim bus")
	}
	return ads1115.NewTxTransport(simBus(cfg.Device.Address)), nil, func() {}, nil
}
