// Package client is the caller-facing operation set over a driver task.
// Every operation is one synchronous request/response round trip; inputs
// are bounded by wire capacity and checked before any IPC is attempted.
package client

import (
	"i2cdriver-go/errcode"
	"i2cdriver-go/ipc"
	"i2cdriver-go/types"
	"i2cdriver-go/wire"
)

// Client binds one task's endpoint to one driver task. Not safe for
// concurrent use; callers in different tasks hold their own Client.
type Client struct {
	ep     *ipc.Endpoint
	server ipc.Handle

	req  [wire.ReqMax]byte
	resp [wire.RespMax]byte
}

func New(ep *ipc.Endpoint, server ipc.Handle) *Client {
	return &Client{ep: ep, server: server}
}

// ServerHandle is the currently cached driver identity, refreshed
// automatically when the driver task restarts.
func (c *Client) ServerHandle() ipc.Handle { return c.server }

// Notifier exposes this task's wakeup word; after EnableNotification the
// registered mask arrives here.
func (c *Client) Notifier() *ipc.Notifier { return c.ep.Notifier() }

// call runs one exchange. A restart indication refreshes the cached
// identity and transparently retries the same logical operation exactly
// once; a second restart propagates as an error. All other statuses are
// returned, never retried — this layer cannot know what is idempotent.
func (c *Client) call(op types.Op, dev types.DeviceID, wdata []byte, readLen int) ([]byte, error) {
	if len(wdata) > wire.DataMax || readLen > wire.DataMax {
		return nil, errcode.TooMuchData
	}
	r := wire.Request{
		Op:       op,
		Device:   dev,
		WriteLen: uint16(len(wdata)),
		ReadLen:  uint16(readLen),
		Data:     wdata,
	}
	n, err := r.Encode(c.req[:])
	if err != nil {
		return nil, err
	}

	raw, rn := c.ep.Call(c.server, c.req[:n], c.resp[:])
	if gen, restarted := raw.Restarted(); restarted {
		c.server.Gen = gen
		raw, rn = c.ep.Call(c.server, c.req[:n], c.resp[:])
		if gen, restarted = raw.Restarted(); restarted {
			c.server.Gen = gen
			return nil, errcode.ServerRestarted
		}
	}
	if err := wire.Status(raw.Code()).Err(); err != nil {
		return nil, err
	}
	return c.resp[:rn], nil
}

// ---- Controller-mode operations ----

// WriteRead performs a write phase followed by a read phase and returns
// the bytes read. The result aliases an internal buffer valid until the
// next operation.
func (c *Client) WriteRead(dev types.DeviceID, w []byte, readLen int) ([]byte, error) {
	return c.call(types.OpWriteRead, dev, w, readLen)
}

// Write is a write-only transaction.
func (c *Client) Write(dev types.DeviceID, w []byte) error {
	_, err := c.call(types.OpWriteRead, dev, w, 0)
	return err
}

// Read is a read-only transaction.
func (c *Client) Read(dev types.DeviceID, readLen int) ([]byte, error) {
	return c.call(types.OpWriteRead, dev, nil, readLen)
}

// ReadReg writes one register address byte and reads readLen bytes back.
func (c *Client) ReadReg(dev types.DeviceID, reg byte, readLen int) ([]byte, error) {
	return c.call(types.OpWriteRead, dev, []byte{reg}, readLen)
}

// BlockRead writes one register address byte, then performs a
// length-prefixed read of at most max bytes; the count byte is consumed
// by the driver and only the payload is returned.
func (c *Client) BlockRead(dev types.DeviceID, reg byte, max int) ([]byte, error) {
	return c.call(types.OpWriteReadBlock, dev, []byte{reg}, max)
}

// ---- Target-mode operations ----

// ConfigureTarget binds dev's address as the controller's target-mode
// address. This boundary accepts raw addresses, so the reserved ranges
// are rejected here as well as in the driver.
func (c *Client) ConfigureTarget(dev types.DeviceID) error {
	if dev.Addr.Reserved() {
		return errcode.ReservedAddress
	}
	_, err := c.call(types.OpConfigureTargetAddress, dev, nil, 0)
	return err
}

// EnableTargetReceive starts acknowledging inbound addressing.
func (c *Client) EnableTargetReceive(dev types.DeviceID) error {
	_, err := c.call(types.OpEnableTargetReceive, dev, nil, 0)
	return err
}

// DisableTargetReceive stops receiving and releases the target binding.
// Calling it when already disabled succeeds as a no-op.
func (c *Client) DisableTargetReceive(dev types.DeviceID) error {
	_, err := c.call(types.OpDisableTargetReceive, dev, nil, 0)
	return err
}

// EnableNotification registers this task as the controller's single
// wakeup subscriber with an opaque caller-chosen mask.
func (c *Client) EnableNotification(dev types.DeviceID, mask uint32) error {
	_, err := c.call(types.OpEnableNotification, dev, wire.EncodeMask(mask), 0)
	return err
}

// DisableNotification clears this task's subscription, as a no-op when
// none is active.
func (c *Client) DisableNotification(dev types.DeviceID) error {
	_, err := c.call(types.OpDisableNotification, dev, nil, 0)
	return err
}

// GetPendingMessage drains the controller's single message slot. An empty
// slot returns errcode.NoMessage; subscribers drain until they see it.
// The returned data is a fresh copy owned by the caller.
func (c *Client) GetPendingMessage(dev types.DeviceID) (types.PendingMessage, error) {
	b, err := c.call(types.OpGetPendingMessage, dev, nil, types.DataMax)
	if err != nil {
		return types.PendingMessage{}, err
	}
	m, err := wire.DecodePending(b)
	if err != nil {
		return types.PendingMessage{}, err
	}
	m.Data = append([]byte(nil), m.Data...)
	return m, nil
}
