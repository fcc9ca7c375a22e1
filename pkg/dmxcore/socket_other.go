//go:build !unix

package dmxcore

import "net"

// dialUDPWithSource binds the outgoing socket to src before connecting
// to dst. SO_REUSEADDR is unix-specific (see socket_unix.go); on other
// platforms we fall back to a plain bound dial.
func dialUDPWithSource(dst, src *net.UDPAddr) (*net.UDPConn, error) {
	return net.DialUDP("udp", src, dst)
}
