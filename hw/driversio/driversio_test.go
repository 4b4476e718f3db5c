package driversio

import (
	"context"
	"errors"
	"testing"

	"tinygo.org/x/drivers"

	"i2cdriver-go/errcode"
	"i2cdriver-go/types"
	"i2cdriver-go/wire"
)

var _ drivers.I2C = (*fakeI2C)(nil)

// fakeI2C implements tinygo drivers.I2C for host-side tests.
type fakeI2C struct {
	LastTx struct {
		Addr uint16
		W    []byte
		Rn   int
	}
	fill byte
	err  error
}

func (b *fakeI2C) Tx(addr uint16, w, r []byte) error {
	b.LastTx.Addr = addr
	b.LastTx.W = append([]byte(nil), w...)
	b.LastTx.Rn = len(r)
	if b.err != nil {
		return b.err
	}
	for i := range r {
		r[i] = b.fill
	}
	return nil
}

type fakeFactory struct {
	buses map[types.Controller]drivers.I2C
}

func (f *fakeFactory) ByController(c types.Controller) (drivers.I2C, bool) {
	b, ok := f.buses[c]
	return b, ok
}

func newFakeFamily(c types.Controller) (*Family, *fakeI2C) {
	bus := &fakeI2C{fill: 0x5A}
	fam := New(&fakeFactory{buses: map[types.Controller]drivers.I2C{c: bus}})
	return fam, bus
}

func TestWriteReadTxMapping(t *testing.T) {
	fam, bus := newFakeFamily(1)

	var out [4]byte
	n, err := fam.WriteRead(context.Background(), 1, 0x50,
		wire.NewSlice([]byte{0x10}), wire.NewSlice(out[:]))
	if err != nil {
		t.Fatalf("write_read: %v", err)
	}
	if n != 4 {
		t.Fatalf("copied %d bytes, want 4", n)
	}
	for _, b := range out {
		if b != 0x5A {
			t.Fatalf("read payload %v", out)
		}
	}
	if bus.LastTx.Addr != 0x50 {
		t.Fatalf("bus saw addr %#x", bus.LastTx.Addr)
	}
	if len(bus.LastTx.W) != 1 || bus.LastTx.W[0] != 0x10 {
		t.Fatalf("bus saw write %v", bus.LastTx.W)
	}
	if bus.LastTx.Rn != 4 {
		t.Fatalf("bus saw read length %d", bus.LastTx.Rn)
	}
}

func TestUnknownControllerRejected(t *testing.T) {
	fam, _ := newFakeFamily(1)
	var out [1]byte
	if _, err := fam.WriteRead(context.Background(), 3, 0x50,
		wire.NewSlice(nil), wire.NewSlice(out[:])); errcode.Of(err) != errcode.BadArgument {
		t.Fatalf("got %v", err)
	}
}

func TestBusFaultWrapped(t *testing.T) {
	fam, bus := newFakeFamily(1)
	cause := errors.New("nack")
	bus.err = cause

	var out [1]byte
	_, err := fam.WriteRead(context.Background(), 1, 0x50,
		wire.NewSlice(nil), wire.NewSlice(out[:]))
	if errcode.Of(err) != errcode.BusError {
		t.Fatalf("got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not preserved through the wrapper")
	}
}

func TestExpiredContextSurfacesBusLocked(t *testing.T) {
	fam, bus := newFakeFamily(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out [1]byte
	if _, err := fam.WriteRead(ctx, 1, 0x50,
		wire.NewSlice(nil), wire.NewSlice(out[:])); errcode.Of(err) != errcode.BusLocked {
		t.Fatalf("got %v", err)
	}
	if bus.LastTx.Rn != 0 {
		t.Fatal("bus touched after the transaction window expired")
	}
}

func TestTargetModeNotSupported(t *testing.T) {
	fam, _ := newFakeFamily(1)

	if err := fam.ConfigureTarget(1, 0x1D); errcode.Of(err) != errcode.NotSupported {
		t.Fatalf("configure: %v", err)
	}
	if err := fam.EnableTargetReceive(1); errcode.Of(err) != errcode.NotSupported {
		t.Fatalf("enable receive: %v", err)
	}
	if err := fam.ResetBus(1); errcode.Of(err) != errcode.NotSupported {
		t.Fatalf("reset: %v", err)
	}

	// The remaining target-mode surface is inert, never panicking.
	fam.DisableTargetReceive(1)
	fam.AcknowledgeInterrupts(1)
	if fam.TargetDataReady(1) {
		t.Fatal("ready with no target hardware")
	}
	var buf [types.DataMax]byte
	if src, n := fam.DrainTargetData(1, buf[:]); src != 0 || n != 0 {
		t.Fatalf("drained src=%#x n=%d", src, n)
	}
}
