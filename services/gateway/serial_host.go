//go:build !tinygo

package gateway

import (
	"time"

	"github.com/tarm/serial"
)

// OpenSerial opens a host serial port as the gateway transport.
func OpenSerial(device string, baud int) (Transport, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return &serialPort{port: port}, nil
}

type serialPort struct {
	port *serial.Port
}

func (p *serialPort) Read(b []byte) (int, error) {
	// tarm returns n==0 on read timeout; keep pumping instead of
	// surfacing that as a link failure.
	for {
		n, err := p.port.Read(b)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

func (p *serialPort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *serialPort) Close() error                { return p.port.Close() }
