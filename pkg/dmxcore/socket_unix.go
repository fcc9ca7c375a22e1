//go:build unix

package dmxcore

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// dialUDPWithSource binds the outgoing socket to src before connecting
// to dst, setting SO_REUSEADDR so a crashed/restarted node can rebind
// the same source port immediately (spec §4.8). Grounded on
// original_source's base_node.py socket setup, translated from
// socket.setsockopt to golang.org/x/sys/unix.
func dialUDPWithSource(dst, src *net.UDPAddr) (*net.UDPConn, error) {
	d := net.Dialer{
		LocalAddr: src,
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return sockErr
		},
	}
	conn, err := d.Dial("udp", dst.String())
	if err != nil {
		return nil, err
	}
	return conn.(*net.UDPConn), nil
}
