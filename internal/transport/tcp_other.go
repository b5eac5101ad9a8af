//go:build !linux

package transport

import (
	"net"
	"time"
)

// setKeepAlive uses net.TCPConn's portable keepalive config on
// platforms without raw TCP_KEEPIDLE/KEEPINTVL/KEEPCNT socket options.
func setKeepAlive(conn net.Conn, idle, interval time.Duration, maxFails int) error {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return tcp.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   true,
		Idle:     idle,
		Interval: interval,
		Count:    maxFails,
	})
}
