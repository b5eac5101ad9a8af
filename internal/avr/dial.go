package avr

import (
	"context"
	"fmt"
	"time"

	"github.com/crowbarz/avrctl-go/internal/conn"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/transport"
)

// DefaultTCPPort is the receiver's documented control port.
const DefaultTCPPort = 8102

// Dial returns a Client that connects over TCP to host:port. Pass
// port 0 to use DefaultTCPPort. p may be nil to use built-in defaults.
func Dial(host string, port int, p *params.Parameters) *Client {
	if port == 0 {
		port = DefaultTCPPort
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	dial := func(ctx context.Context, timeout time.Duration) (transport.Transport, error) {
		return transport.DialTCP(ctx, addr, timeout)
	}
	return newClient(adaptDial(dial), p)
}

// DialSerial returns a Client that connects over a local serial port
// at path. Pass baud 0 to use transport.DefaultSerialBaud (9600 8N1,
// the family's documented RS-232 default).
func DialSerial(path string, baud int, p *params.Parameters) *Client {
	dial := func(ctx context.Context, timeout time.Duration) (transport.Transport, error) {
		return transport.DialSerial(path, baud)
	}
	return newClient(adaptDial(dial), p)
}

// adaptDial binds the session timeout into a conn.DialFunc at call
// time, since the engine only ever has one timeout in scope (the
// current one, which may have been changed via SetTimeout) rather
// than one fixed at Dial time.
func adaptDial(dial func(ctx context.Context, timeout time.Duration) (transport.Transport, error)) conn.DialFunc {
	return func(ctx context.Context) (transport.Transport, error) {
		deadline, ok := ctx.Deadline()
		timeout := defaultDialTimeout
		if ok {
			timeout = time.Until(deadline)
		}
		return dial(ctx, timeout)
	}
}

const defaultDialTimeout = 5 * time.Second
