package transport

import (
	"context"
	"net"
	"time"
)

// TCPTransport is the default transport: a single net.Conn dialed to
// the receiver's control port (default 8102, also seen: 23).
type TCPTransport struct {
	conn net.Conn
}

// DialTCP opens a TCP connection to addr with the given timeout.
func DialTCP(ctx context.Context, addr string, timeout time.Duration) (*TCPTransport, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &TCPTransport{conn: conn}, nil
}

func (t *TCPTransport) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *TCPTransport) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *TCPTransport) Close() error                { return t.conn.Close() }

// SetKeepAlive tunes socket keepalive; see tcp_linux.go for the raw
// idle/interval/max-fail knobs and tcp_other.go for the portable
// fallback.
func (t *TCPTransport) SetKeepAlive(idle, interval time.Duration, maxFails int) error {
	return setKeepAlive(t.conn, idle, interval, maxFails)
}
