//go:build rp2040 || rp2350

package gateway

import (
	"context"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// OpenUART wraps a configured uartx port as the gateway transport.
func OpenUART(u *uartx.UART) Transport {
	return &uartPort{u: u}
}

type uartPort struct {
	u *uartx.UART
}

func (p *uartPort) Read(b []byte) (int, error) {
	return p.u.RecvSomeContext(context.Background(), b)
}

func (p *uartPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *uartPort) Close() error                { return nil }
