//go:build !tinygo

// cmd/i2c-gateway/main.go
//
// Serial gateway host binary: bridges framed requests arriving on a
// serial port into an in-process driver task and writes the framed
// responses back. Pair it with the simulated family for bring-up, or
// swap in a real bus factory on hardware.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"i2cdriver-go/hw/mockhw"
	"i2cdriver-go/ipc"
	"i2cdriver-go/services/gateway"
	"i2cdriver-go/services/i2cd"
	"i2cdriver-go/types"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	world := ipc.NewWorld()
	fam := mockhw.New()
	fam.AddDevice(1, 0x40, mockhw.EchoDevice())

	sep := world.Spawn("i2cd")
	srv := i2cd.New(world, sep, fam, i2cd.Config{Controllers: []types.Controller{1, 2}})
	fam.SetInterruptFunc(srv.Interrupt)
	go srv.Run(ctx)

	tr, err := gateway.OpenSerial(*device, *baud)
	if err != nil {
		println("[gateway] open", *device, "failed:", err.Error())
		os.Exit(1)
	}
	defer tr.Close()

	println("[gateway] bridging", *device, "at", *baud, "baud")
	gw := gateway.New(world.Spawn("gateway"), sep.Handle(), tr)
	if err := gw.Run(ctx); err != nil && ctx.Err() == nil {
		println("[gateway] transport error:", err.Error())
		os.Exit(1)
	}
}
