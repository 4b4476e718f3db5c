package i2cd

import (
	"context"
	"errors"

	"i2cdriver-go/errcode"
	"i2cdriver-go/ipc"
	"i2cdriver-go/types"
	"i2cdriver-go/wire"
)

func (s *Server) reply(tx *ipc.Txn, err error, data []byte) {
	tx.Reply(byte(wire.StatusOf(err)), data)
}

// handle decodes, validates, and dispatches one request. Decode failures
// answer BadRequest; nothing malformed ever reaches the hardware family
// and nothing here can take the loop down.
func (s *Server) handle(ctx context.Context, tx *ipc.Txn) {
	req, err := wire.DecodeRequest(tx.Req)
	if err != nil {
		s.reply(tx, err, nil)
		return
	}
	if !req.Op.Known() {
		s.reply(tx, errcode.BadRequest, nil)
		return
	}
	st, ok := s.ctrl[req.Device.Controller]
	if !ok || !req.Device.Seg.Valid() {
		s.reply(tx, errcode.BadArgument, nil)
		return
	}

	switch req.Op {
	case types.OpWriteRead, types.OpWriteReadBlock:
		if err := req.Device.Validate(); err != nil {
			s.reply(tx, err, nil)
			return
		}
		if int(req.ReadLen) > tx.RespCap() {
			s.reply(tx, errcode.TooMuchData, nil)
			return
		}
		s.handleWriteRead(ctx, st, &req, tx)
	case types.OpConfigureTargetAddress:
		s.handleConfigureTarget(st, &req, tx)
	case types.OpEnableTargetReceive:
		s.handleEnableReceive(st, &req, tx)
	case types.OpDisableTargetReceive:
		s.handleDisableReceive(st, &req, tx)
	case types.OpEnableNotification:
		s.handleEnableNotification(st, &req, tx)
	case types.OpDisableNotification:
		s.handleDisableNotification(st, tx)
	case types.OpGetPendingMessage:
		s.handleGetPendingMessage(st, tx)
	}
}

// handleWriteRead services both plain and block transactions. Strictly
// synchronous: all register I/O completes before the response is
// produced. Valid in any controller state; does not change state.
func (s *Server) handleWriteRead(ctx context.Context, st *ctrlState, req *wire.Request, tx *ipc.Txn) {
	c := req.Device.Controller
	readLen := int(req.ReadLen)
	raw := readLen
	if req.Op == types.OpWriteReadBlock && readLen < types.DataMax {
		raw = readLen + 1 // leading count byte from the device
	}

	hwCtx, cancel := context.WithTimeout(ctx, s.cfg.HWTimeout)
	n, err := s.fam.WriteRead(hwCtx, c, req.Device.Addr,
		wire.NewSlice(req.Data), wire.NewSlice(s.resp[:raw]))
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errcode.Of(err) == errcode.BusLocked {
			s.recoverBus(c, st)
			s.reply(tx, errcode.BusLocked, nil)
			return
		}
		s.reply(tx, err, nil)
		return
	}

	if req.Op == types.OpWriteReadBlock {
		if n < 1 {
			s.reply(tx, errcode.BusError, nil)
			return
		}
		count := int(s.resp[0])
		if count > n-1 || count > readLen {
			s.reply(tx, errcode.TooMuchData, nil)
			return
		}
		s.reply(tx, nil, s.resp[1:1+count])
		return
	}
	s.reply(tx, nil, s.resp[:n])
}

func (s *Server) handleConfigureTarget(st *ctrlState, req *wire.Request, tx *ipc.Txn) {
	addr := req.Device.Addr
	if addr.Reserved() {
		s.reply(tx, errcode.ReservedAddress, nil)
		return
	}
	if addr > types.AddrMax {
		s.reply(tx, errcode.BadArgument, nil)
		return
	}
	if st.configured {
		// State stays bound to the first configuration; the caller must
		// disable receive and reconfigure.
		s.reply(tx, errcode.AddressInUse, nil)
		return
	}
	if err := s.fam.ConfigureTarget(req.Device.Controller, addr); err != nil {
		s.reply(tx, err, nil)
		return
	}
	st.configured = true
	st.target = types.TargetConfig{
		Controller: req.Device.Controller,
		Port:       req.Device.Port,
		Addr:       addr,
	}
	s.reply(tx, nil, nil)
}

func (s *Server) handleEnableReceive(st *ctrlState, req *wire.Request, tx *ipc.Txn) {
	if !st.configured {
		s.reply(tx, errcode.NotConfigured, nil)
		return
	}
	if err := s.fam.EnableTargetReceive(req.Device.Controller); err != nil {
		s.reply(tx, err, nil)
		return
	}
	st.receiveOn = true
	s.reply(tx, nil, nil)
}

// handleDisableReceive is an idempotent no-op when already disabled.
// Disabling releases the target configuration, which is the only path
// back to a reconfigurable controller.
func (s *Server) handleDisableReceive(st *ctrlState, req *wire.Request, tx *ipc.Txn) {
	if st.configured {
		s.fam.DisableTargetReceive(req.Device.Controller)
	}
	st.configured = false
	st.receiveOn = false
	st.target = types.TargetConfig{}
	s.reply(tx, nil, nil)
}

func (s *Server) handleEnableNotification(st *ctrlState, req *wire.Request, tx *ipc.Txn) {
	if !st.configured || !st.receiveOn {
		// Fail fast rather than silently queuing wakeups nobody can
		// receive yet.
		s.reply(tx, errcode.NotConfigured, nil)
		return
	}
	mask, err := wire.DecodeMask(req.Data)
	if err != nil {
		s.reply(tx, err, nil)
		return
	}
	if st.sub != nil {
		// Single-subscriber invariant: never silently replace.
		s.reply(tx, errcode.NotificationFailed, nil)
		return
	}
	st.sub = &subscription{h: tx.From, mask: mask}
	s.reply(tx, nil, nil)
}

func (s *Server) handleDisableNotification(st *ctrlState, tx *ipc.Txn) {
	if st.sub == nil {
		s.reply(tx, nil, nil)
		return
	}
	if st.sub.h != tx.From {
		s.reply(tx, errcode.NotificationFailed, nil)
		return
	}
	st.sub = nil
	s.reply(tx, nil, nil)
}

// handleGetPendingMessage drains the single slot exactly once. An empty
// slot is the benign NoMessage outcome of a spurious or already-drained
// wakeup, not an error to escalate.
func (s *Server) handleGetPendingMessage(st *ctrlState, tx *ipc.Txn) {
	if !st.pendFull {
		s.reply(tx, errcode.NoMessage, nil)
		return
	}
	if tx.RespCap() < 1+st.pendN {
		// Leave the slot intact so a properly sized retry still sees it.
		s.reply(tx, errcode.TooMuchData, nil)
		return
	}
	n := wire.EncodePending(s.resp[:], st.pendSrc, st.pendBuf[:st.pendN])
	st.pendFull = false
	s.reply(tx, nil, s.resp[:n])
}
