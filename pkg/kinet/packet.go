// Package kinet builds and transmits Color Kinetics KiNet v1 DMX-out
// packets on top of the shared dmxcore engine.
package kinet

import "encoding/binary"

const (
	magic        uint32 = 0x0401DC4A
	version      uint16 = 0x0100
	packetType   uint16 = 0x0101
	timerDefault uint32 = 0xFFFFFFFF

	// headerSize is the fixed KiNet v1 header: magic(4) version(2)
	// type(2) sequence(4) port(1) padding(1) flags(2) timer(4).
	headerSize = 20

	// DefaultPort is the UDP port KiNet controllers listen on.
	DefaultPort = 6038
)

// buildPacket assembles a KiNet v1 DMX-out frame. The "Universe" byte
// that follows the header is historically reused to carry the DMX byte
// count, not a universe id (spec §4.6 "historical field reuse").
func buildPacket(byteCount byte, data []byte) []byte {
	packet := make([]byte, headerSize+1+len(data))

	binary.BigEndian.PutUint32(packet[0:4], magic)
	binary.BigEndian.PutUint16(packet[4:6], version)
	binary.BigEndian.PutUint16(packet[6:8], packetType)
	binary.BigEndian.PutUint32(packet[8:12], 0) // sequence
	packet[12] = 0                              // port
	packet[13] = 0                              // padding
	binary.BigEndian.PutUint16(packet[14:16], 0) // flags
	binary.BigEndian.PutUint32(packet[16:20], timerDefault)

	packet[20] = byteCount
	copy(packet[21:], data)
	return packet
}
