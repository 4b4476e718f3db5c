package gateway

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"i2cdriver-go/hw/mockhw"
	"i2cdriver-go/ipc"
	"i2cdriver-go/services/i2cd"
	"i2cdriver-go/types"
	"i2cdriver-go/wire"
)

type pipeTransport struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeTransport) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeTransport) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipeTransport) Close() error {
	p.r.Close()
	p.w.Close()
	return nil
}

// remote is the test's view of the far end of the link.
type remote struct {
	t   *testing.T
	w   io.Writer
	r   io.Reader
	dec decoder
}

func (rm *remote) send(req wire.Request) {
	rm.t.Helper()
	var buf [wire.ReqMax]byte
	n, err := req.Encode(buf[:])
	if err != nil {
		rm.t.Fatalf("encode: %v", err)
	}
	if _, err := rm.w.Write(encodeFrame(nil, buf[:n])); err != nil {
		rm.t.Fatalf("send: %v", err)
	}
}

func (rm *remote) sendRaw(payload []byte) {
	rm.t.Helper()
	if _, err := rm.w.Write(encodeFrame(nil, payload)); err != nil {
		rm.t.Fatalf("send: %v", err)
	}
}

func (rm *remote) recv() (wire.Status, []byte) {
	rm.t.Helper()
	var one [1]byte
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := rm.r.Read(one[:]); err != nil {
			rm.t.Fatalf("recv: %v", err)
		}
		if p, ok := rm.dec.feed(one[0]); ok {
			if len(p) < 1 {
				rm.t.Fatal("empty response frame")
			}
			return wire.Status(p[0]), append([]byte(nil), p[1:]...)
		}
	}
	rm.t.Fatal("no response frame")
	return 0, nil
}

func newGatewayRig(t *testing.T) (*remote, *mockhw.Family) {
	t.Helper()
	world := ipc.NewWorld()
	fam := mockhw.New()
	sep := world.Spawn("i2cd")
	srv := i2cd.New(world, sep, fam, i2cd.Config{Controllers: []types.Controller{1}})
	fam.SetInterruptFunc(srv.Interrupt)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Run(ctx)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	gw := New(world.Spawn("gw"), sep.Handle(), &pipeTransport{r: inR, w: outW})
	go gw.Run(ctx)
	t.Cleanup(func() {
		inW.Close()
		outR.Close()
	})

	return &remote{t: t, w: inW, r: outR}, fam
}

func TestForwardWriteRead(t *testing.T) {
	rm, fam := newGatewayRig(t)
	fam.AddDevice(1, 0x50, mockhw.EchoDevice())

	rm.send(wire.Request{
		Op:       types.OpWriteRead,
		Device:   types.DeviceID{Controller: 1, Addr: 0x50},
		WriteLen: 1,
		ReadLen:  4,
		Data:     []byte{0x3C},
	})
	st, data := rm.recv()
	if st != wire.StatusOK {
		t.Fatalf("status %d", st)
	}
	if !bytes.Equal(data, []byte{0x3C, 0x3C, 0x3C, 0x3C}) {
		t.Fatalf("data %v", data)
	}
}

func TestForwardErrorStatus(t *testing.T) {
	rm, _ := newGatewayRig(t)
	rm.send(wire.Request{
		Op:      types.OpWriteRead,
		Device:  types.DeviceID{Controller: 1, Addr: 0x42},
		ReadLen: 1,
	})
	st, _ := rm.recv()
	if st != wire.StatusNoDevice {
		t.Fatalf("status %d", st)
	}
}

func TestMalformedPayloadAnsweredLocally(t *testing.T) {
	rm, fam := newGatewayRig(t)
	rm.sendRaw([]byte{1, 2, 3})
	st, _ := rm.recv()
	if st != wire.StatusBadRequest {
		t.Fatalf("status %d", st)
	}
	if n := len(fam.Phases(1)); n != 0 {
		t.Fatalf("garbage reached the driver: %d phases", n)
	}
}

func TestRunStopsOnCancelWhileIdle(t *testing.T) {
	world := ipc.NewWorld()
	sep := world.Spawn("i2cd")
	inR, _ := io.Pipe()
	_, outW := io.Pipe()
	gw := New(world.Spawn("gw"), sep.Handle(), &pipeTransport{r: inR, w: outW})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()

	// Nothing arrives on the link; cancellation alone must unblock it.
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("gateway still parked in its transport read")
	}
}

func TestRemoteSeesRestartStatus(t *testing.T) {
	world := ipc.NewWorld()
	sep := world.Spawn("i2cd") // never serviced
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	gw := New(world.Spawn("gw"), sep.Handle(), &pipeTransport{r: inR, w: outW})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gw.Run(ctx)

	rm := &remote{t: t, w: inW, r: outR}
	rm.send(wire.Request{
		Op:      types.OpWriteRead,
		Device:  types.DeviceID{Controller: 1, Addr: 0x50},
		ReadLen: 1,
	})

	// First restart fails the forwarded call; the retry parks on the new
	// incarnation; the second restart exhausts the retry budget.
	time.Sleep(10 * time.Millisecond)
	world.Restart(sep.Handle().Index)
	time.Sleep(10 * time.Millisecond)
	world.Restart(sep.Handle().Index)

	st, _ := rm.recv()
	if st != wire.StatusServerRestarted {
		t.Fatalf("status %d, want dedicated restart status", st)
	}
}
