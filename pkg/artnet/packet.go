// Package artnet builds and transmits Art-Net ArtDMX packets (opcode
// 0x5000, protocol v14) on top of the shared dmxcore engine.
package artnet

import "encoding/binary"

const (
	// opCodeDMX is the Art-Net operation code for DMX data.
	opCodeDMX uint16 = 0x5000
	// protocolVersion is the Art-Net protocol version this node speaks.
	protocolVersion uint16 = 14
	// headerSize is the fixed portion of an ArtDMX packet up to and
	// including the length field.
	headerSize = 18
	// DefaultPort is the standard Art-Net UDP port, 0x1936.
	DefaultPort = 0x1936
	// MaxUniverse is the largest universe id the 15-bit Port-Address
	// Art-Net encodes (spec §4.6).
	MaxUniverse = 32767
)

// artNetID is the Art-Net packet identifier.
var artNetID = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

// buildDMXPacket assembles an ArtDMX packet for universe (0-based) and
// sequence, carrying data verbatim (no padding/truncation to 512 -
// the wire length always matches the universe buffer, per spec §4.6
// and the golden frame in spec §8 test 1).
func buildDMXPacket(universe int, sequence byte, data []byte) []byte {
	packet := make([]byte, headerSize+len(data))

	copy(packet[0:8], artNetID[:])
	binary.LittleEndian.PutUint16(packet[8:10], opCodeDMX)
	binary.BigEndian.PutUint16(packet[10:12], protocolVersion)
	packet[12] = sequence
	packet[13] = 0 // physical input port, unused
	binary.LittleEndian.PutUint16(packet[14:16], uint16(universe))
	binary.BigEndian.PutUint16(packet[16:18], uint16(len(data)))

	copy(packet[18:], data)
	return packet
}
