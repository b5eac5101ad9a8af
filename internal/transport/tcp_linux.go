//go:build linux

package transport

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// setKeepAlive tunes the idle/interval/max-fail cadence directly via
// the socket's raw fd, following the raw-syscall style of the
// hardware I2C driver's ioctl probing.
func setKeepAlive(conn net.Conn, idle, interval time.Duration, maxFails int) error {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tcp.SetKeepAlive(true); err != nil {
		return err
	}

	raw, err := tcp.SyscallConn()
	if err != nil {
		return err
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, int(idle.Seconds())); e != nil {
			sockErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(interval.Seconds())); e != nil {
			sockErr = e
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, maxFails)
	})
	if err != nil {
		return err
	}
	return sockErr
}
