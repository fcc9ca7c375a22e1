// Package sacn builds and transmits sACN/E1.31 data packets on top of
// the shared dmxcore engine.
package sacn

import (
	"encoding/binary"

	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
	"github.com/google/uuid"
)

const (
	// DefaultPort is the standard E1.31 UDP port.
	DefaultPort = 5568

	// MinUniverse and MaxUniverse bound the E1.31 universe number
	// (spec §4.6 "_create_universe" / 6.2.7 of the E1.31 standard).
	MinUniverse = 1
	MaxUniverse = 63999

	defaultSourceName = "dmxcast"
	sourceNameLen     = 64
	fixedPriority     = 100
	fixedSyncUniverse = 50

	vectorRootE131Data   uint32 = 0x00000004
	vectorE131DataPacket uint32 = 0x00000002
	vectorDMPSetProperty byte   = 0x02
)

var acnPacketIdentifier = [12]byte{
	0x41, 0x53, 0x43, 0x2d, 0x45, 0x31, 0x2e, 0x31, 0x37, 0x00, 0x00, 0x00,
}

// buildBasePacket assembles the fixed root+framing preamble shared by
// every frame a node sends: preamble/postamble sizes, ACN packet
// identifier, root vector, CID, framing vector, source name, priority,
// and sync universe (spec §4.6). Length fields are left unpatched;
// patchLengths fills them in once the per-frame size is known.
func buildBasePacket(cid [16]byte, sourceName string) []byte {
	packet := make([]byte, 0, 4+12+2+4+16+2+4+sourceNameLen+1+2)

	packet = append(packet, 0x00, 0x10) // preamble size
	packet = append(packet, 0x00, 0x00) // postamble size
	packet = append(packet, acnPacketIdentifier[:]...)
	packet = append(packet, 0x00, 0x00) // root layer flags+length (patched)
	packet = appendUint32(packet, vectorRootE131Data)
	packet = append(packet, cid[:]...)

	packet = append(packet, 0x00, 0x00) // framing layer flags+length (patched)
	packet = appendUint32(packet, vectorE131DataPacket)

	name := make([]byte, sourceNameLen)
	copy(name, sourceName)
	packet = append(packet, name...)

	packet = append(packet, fixedPriority)
	packet = appendUint16(packet, fixedSyncUniverse)

	return packet
}

// patchLengths writes the root and framing layer length fields once
// the total per-frame property count is known (spec: "patch the
// length fields in the prefix at offsets 16 and 38").
func patchLengths(base []byte, propCount int) {
	binary.BigEndian.PutUint16(base[16:18], uint16((109+propCount)|0x7000))
	binary.BigEndian.PutUint16(base[38:40], uint16((87+propCount)|0x7000))
}

// buildFrame assembles the framing-layer-part-2 + DMP layer tail sent
// for one universe: sequence, options, universe id, DMP length/vector/
// address fields, property count, DMX start code, and the raw DMX
// bytes (spec §4.6).
func buildFrame(sequence byte, universeID int, data []byte) []byte {
	propCount := len(data) + 1 // +1 for the DMX start code

	frame := make([]byte, 0, 1+1+2+2+1+1+2+2+2+1+len(data))
	frame = append(frame, sequence)
	frame = append(frame, 0x00) // options
	frame = appendUint16(frame, uint16(universeID))

	dmpLen := uint16((10+propCount)|0x7000)
	frame = appendUint16(frame, dmpLen)
	frame = append(frame, vectorDMPSetProperty)
	frame = append(frame, 0xA1) // address type & data type
	frame = append(frame, 0x00, 0x00) // first property address
	frame = append(frame, 0x00, 0x01) // address increment

	frame = appendUint16(frame, uint16(propCount))
	frame = append(frame, 0x00) // DMX start code
	frame = append(frame, data...)

	return frame
}

func appendUint16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// newCID validates a user-supplied CID or generates a random one.
func newCID(supplied []byte) ([16]byte, error) {
	var cid [16]byte
	if supplied == nil {
		id := uuid.New()
		copy(cid[:], id[:])
		return cid, nil
	}
	if len(supplied) != 16 {
		return cid, dmxcore.NewError(dmxcore.ErrInvalidCid, "CID must be 16 bytes, got %d", len(supplied))
	}
	copy(cid[:], supplied)
	return cid, nil
}
