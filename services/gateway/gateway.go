// Package gateway forwards wire-encoded driver requests arriving over a
// byte transport to a local driver task, so a remote host can drive a bus
// this task owns. It is a forwarder only: no protocol stack lives here.
package gateway

import (
	"context"

	"i2cdriver-go/errcode"
	"i2cdriver-go/ipc"
	"i2cdriver-go/wire"
)

// Transport is a byte link to the remote side. Read may return short
// counts; Write must accept the whole frame.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Service pumps frames between one transport and one driver task.
type Service struct {
	ep     *ipc.Endpoint
	server ipc.Handle
	tr     Transport

	dec  decoder
	resp [wire.RespMax]byte
	out  [frameMax]byte
}

func New(ep *ipc.Endpoint, server ipc.Handle, tr Transport) *Service {
	return &Service{ep: ep, server: server, tr: tr}
}

// Run blocks reading frames until the transport fails or ctx is
// cancelled. Each inbound frame is one request envelope; the reply frame
// is [status][data...].
func (s *Service) Run(ctx context.Context) error {
	// The transport read has no deadline of its own; closing it on
	// cancellation is what unblocks an idle link.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.tr.Close()
		case <-stop:
		}
	}()
	defer s.tr.Close()

	var rd [64]byte
	for {
		n, err := s.tr.Read(rd[:])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		for _, b := range rd[:n] {
			payload, ok := s.dec.feed(b)
			if !ok {
				continue
			}
			s.forward(payload)
		}
	}
}

func (s *Service) forward(req []byte) {
	// Validate the envelope locally; garbage never crosses to the driver.
	if _, err := wire.DecodeRequest(req); err != nil {
		s.respond(byte(wire.StatusOf(err)), nil)
		return
	}

	raw, n := s.ep.Call(s.server, req, s.resp[:])
	if gen, restarted := raw.Restarted(); restarted {
		// Same single-retry discipline as the client library.
		s.server.Gen = gen
		raw, n = s.ep.Call(s.server, req, s.resp[:])
		if gen, restarted = raw.Restarted(); restarted {
			s.server.Gen = gen
			s.respond(byte(wire.StatusOf(errcode.ServerRestarted)), nil)
			return
		}
	}
	s.respond(raw.Code(), s.resp[:n])
}

func (s *Service) respond(status byte, data []byte) {
	var body [1 + wire.RespMax]byte
	body[0] = status
	n := copy(body[1:], data)
	frame := encodeFrame(s.out[:0], body[:1+n])
	_, _ = s.tr.Write(frame)
}
