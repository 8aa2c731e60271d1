//go:build linux

package main

import (
	"fmt"

	"github.com/go-logr/logr"

	"ads1115-go/drivers/ads1115"
	"ads1115-go/platform/i2cowner"
	"ads1115-go/platform/periphbus"
	"ads1115-go/services/config"
)

func openBus(cfg *config.Config, logger logr.Logger) (ads1115.Transport, ads1115.LevelFunc, func(), error) {
	pin := *cfg.Device.AlertRdyPin
	if cfg.Bus.Name == "sim" {
		if pin >= 0 {
			return nil, nil, nil, fmt.Errorf("alert_rdy_pin is not supported on the sim bus")
		}
		return ads1115.NewTxTransport(simBus(cfg.Device.Address)), nil, func() {}, nil
	}

	b, err := periphbus.Open(periphbus.Options{Name: cfg.Bus.Name, SpeedHz: cfg.Bus.SpeedHz, Logger: logger})
	if err != nil {
		return nil, nil, nil, err
	}
	owner := i2cowner.New(b, 0)
	closeFn := func() {
		owner.Close()
		b.Close()
	}

	var readPin ads1115.LevelFunc
	if pin >= 0 {
		if readPin, err = periphbus.ReadyPin(pin); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
	}
	return ads1115.NewTxTransport(owner), readPin, closeFn, nil
}
