package transport

import (
	"time"

	"go.bug.st/serial"
)

// SerialTransport is the alternate RS-232 transport ([ADD] §1/§6):
// this receiver family exposes the identical ASCII protocol over a
// serial port in addition to its IP control port.
type SerialTransport struct {
	port serial.Port
}

// DialSerial opens path at baud, 8 data bits, no parity, 1 stop bit —
// the family's documented RS-232 defaults.
func DialSerial(path string, baud int) (*SerialTransport, error) {
	if baud == 0 {
		baud = DefaultSerialBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return &SerialTransport{port: port}, nil
}

func (t *SerialTransport) Read(p []byte) (int, error)  { return t.port.Read(p) }
func (t *SerialTransport) Write(p []byte) (int, error) { return t.port.Write(p) }
func (t *SerialTransport) Close() error                { return t.port.Close() }

// SetKeepAlive is a no-op on a point-to-point serial link.
func (t *SerialTransport) SetKeepAlive(_, _ time.Duration, _ int) error {
	return nil
}
