//go:build rp2040 || rp2350

// Firmware for a Pico with an ADS1115 on i2c0 and the console on uart0.
package main

import (
	"context"
	"time"

	"ads1115-go/console"
	"ads1115-go/drivers/ads1115"
	"ads1115-go/platform/rp2"
	"ads1115-go/x/conv"
)

const (
	i2cBus     = 0
	uartNum    = 0
	baud       = 115200
	alertPin   = -1 // GPn wired to ALERT/RDY, -1 for none
	retryDelay = 2 * time.Second
)

func hex8(n uint32) string {
	var b [2]byte
	return string(conv.Hex(b[:], n, 2))
}

func itoa(n int) string {
	var b [20]byte
	return string(conv.Itoa(b[:], int64(n)))
}

func main() {
	// Give USB serial time to enumerate.
	time.Sleep(2 * time.Second)
	println("[main] ads1115 console booting")

	bus, err := rp2.OpenI2C(rp2.I2CConfig{Bus: i2cBus})
	if err != nil {
		println("[main] i2c open failed:", err.Error())
		halt()
	}

	cfg := ads1115.DefaultConfig()
	cfg.Transport = ads1115.NewTxTransport(bus)
	if alertPin >= 0 {
		pin, err := rp2.ReadyPin(alertPin)
		if err != nil {
			println("[main] ready pin GP" + itoa(alertPin) + ": " + err.Error())
			halt()
		}
		cfg.AlertRdyPin = alertPin
		cfg.ReadPin = pin
	}

	dev := ads1115.New()
	for {
		st := dev.Begin(cfg)
		if st.OK() {
			break
		}
		println("[main] begin at 0x"+hex8(uint32(cfg.Address))+" failed:", st.String())
		time.Sleep(retryDelay)
	}
	println("[main] ads1115 ready at 0x" + hex8(uint32(cfg.Address)))

	ser, err := rp2.OpenUART(rp2.UARTConfig{UART: uartNum, Baud: baud})
	if err != nil {
		println("[main] uart open failed:", err.Error())
		halt()
	}

	con := console.New(dev, console.Options{Out: ser})
	ser.Write([]byte("Type 'help' for commands\r\n"))
	for {
		// Run returns on quit; the board has nowhere to exit to.
		if err := con.Run(context.Background(), ser); err != nil {
			println("[main] console:", err.Error())
			time.Sleep(retryDelay)
		}
	}
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
