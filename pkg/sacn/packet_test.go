package sacn

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestBuildBasePacketLayout(t *testing.T) {
	cid, err := newCID([]byte{
		0x41, 0x68, 0xF5, 0x2B, 0x1A, 0x7B, 0x2D, 0xE1,
		0x17, 0x12, 0xE9, 0xEE, 0x38, 0x3D, 0x22, 0x58,
	})
	if err != nil {
		t.Fatalf("newCID: %v", err)
	}
	base := buildBasePacket(cid, "default source name")

	if got := binary.BigEndian.Uint16(base[0:2]); got != 0x0010 {
		t.Errorf("preamble size = 0x%04x, want 0x0010", got)
	}
	if got := binary.BigEndian.Uint16(base[2:4]); got != 0x0000 {
		t.Errorf("postamble size = 0x%04x, want 0", got)
	}
	if got := string(base[4:13]); got != "ASC-E1.17" {
		t.Errorf("ACN identifier = %q, want %q", got, "ASC-E1.17")
	}
	if got := binary.BigEndian.Uint32(base[18:22]); got != vectorRootE131Data {
		t.Errorf("root vector = 0x%08x, want 0x%08x", got, vectorRootE131Data)
	}
	if !bytes.Equal(base[22:38], cid[:]) {
		t.Errorf("CID = % x, want % x", base[22:38], cid)
	}
	if got := binary.BigEndian.Uint32(base[40:44]); got != vectorE131DataPacket {
		t.Errorf("framing vector = 0x%08x, want 0x%08x", got, vectorE131DataPacket)
	}
	name := base[44 : 44+sourceNameLen]
	if got := string(bytes.TrimRight(name, "\x00")); got != "default source name" {
		t.Errorf("source name = %q, want %q", got, "default source name")
	}
	priorityOffset := 44 + sourceNameLen
	if base[priorityOffset] != fixedPriority {
		t.Errorf("priority = %d, want %d", base[priorityOffset], fixedPriority)
	}
	if got := binary.BigEndian.Uint16(base[priorityOffset+1 : priorityOffset+3]); got != fixedSyncUniverse {
		t.Errorf("sync universe = %d, want %d", got, fixedSyncUniverse)
	}
}

func TestPatchLengthsMatchesPropCount(t *testing.T) {
	cid, _ := newCID(nil)
	base := buildBasePacket(cid, "src")
	patchLengths(base, 11) // 10 DMX bytes + start code

	rootLen := binary.BigEndian.Uint16(base[16:18])
	if want := uint16((109+11)|0x7000); rootLen != want {
		t.Errorf("root length field = 0x%04x, want 0x%04x", rootLen, want)
	}
	framingLen := binary.BigEndian.Uint16(base[38:40])
	if want := uint16((87+11)|0x7000); framingLen != want {
		t.Errorf("framing length field = 0x%04x, want 0x%04x", framingLen, want)
	}
}

func TestBuildFrameLayout(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	frame := buildFrame(0, 1, data)

	if frame[0] != 0 {
		t.Errorf("sequence = %d, want 0", frame[0])
	}
	if frame[1] != 0 {
		t.Errorf("options = %d, want 0", frame[1])
	}
	if got := binary.BigEndian.Uint16(frame[2:4]); got != 1 {
		t.Errorf("universe = %d, want 1", got)
	}
	wantDMPLen := uint16((10+11)|0x7000)
	if got := binary.BigEndian.Uint16(frame[4:6]); got != wantDMPLen {
		t.Errorf("DMP length = 0x%04x, want 0x%04x", got, wantDMPLen)
	}
	if frame[6] != vectorDMPSetProperty {
		t.Errorf("DMP vector = 0x%02x, want 0x%02x", frame[6], vectorDMPSetProperty)
	}
	if frame[7] != 0xA1 {
		t.Errorf("address type = 0x%02x, want 0xA1", frame[7])
	}
	if got := binary.BigEndian.Uint16(frame[12:14]); got != 11 {
		t.Errorf("prop count = %d, want 11", got)
	}
	if frame[14] != 0x00 {
		t.Errorf("start code = 0x%02x, want 0", frame[14])
	}
	if !bytes.Equal(frame[15:], data) {
		t.Errorf("DMX data = % x, want % x", frame[15:], data)
	}
}

func TestNewCIDRejectsWrongLength(t *testing.T) {
	_, err := newCID([]byte{1, 2, 3})
	de, ok := err.(interface{ Error() string })
	if !ok || de == nil {
		t.Fatalf("expected an error for a short CID")
	}
}

func TestNewCIDGeneratesRandomWhenNil(t *testing.T) {
	a, err := newCID(nil)
	if err != nil {
		t.Fatalf("newCID: %v", err)
	}
	b, err := newCID(nil)
	if err != nil {
		t.Fatalf("newCID: %v", err)
	}
	if a == b {
		t.Errorf("two random CIDs should not match: %x == %x", a, b)
	}
}
