package artnet

import (
	"net"
	"testing"
	"time"

	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
)

// TestGoldenSingleChannelFrame reproduces spec §8 test 1: Node on
// universe 0 with sequence counter enabled, one 1-byte channel at
// position 1, set_values([5]) -> first emitted payload is exactly
// "Art-Net\0" 00 50 00 0E 01 00 00 00 00 02 05 00.
func TestGoldenSingleChannelFrame(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer listener.Close()

	node, err := NewNode("127.0.0.1", listener.LocalAddr().(*net.UDPAddr).Port, Options{
		DisableAutoRefresh: true,
		SequenceCounter:    true,
	})
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	u, err := node.AddUniverse(0)
	if err != nil {
		t.Fatalf("AddUniverse: %v", err)
	}
	c, err := u.AddChannel(1, 1, dmxcore.AddChannelOpts{})
	if err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if err := c.SetValues([]float64{5}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}

	buf := make([]byte, 64)
	_ = listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}

	want := []byte{
		'A', 'r', 't', '-', 'N', 'e', 't', 0x00,
		0x00, 0x50,
		0x00, 0x0E,
		0x01, 0x00,
		0x00, 0x00,
		0x00, 0x02,
		0x05, 0x00,
	}
	got := buf[:n]
	if len(got) != len(want) {
		t.Fatalf("payload length = %d, want %d (got % x)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("payload mismatch at byte %d: got % x, want % x", i, got, want)
		}
	}
}

func TestAddUniverseRejectsOutOfRange(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer listener.Close()

	node, err := NewNode("127.0.0.1", listener.LocalAddr().(*net.UDPAddr).Port, Options{DisableAutoRefresh: true})
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	_, err = node.AddUniverse(MaxUniverse + 1)
	de, ok := err.(*dmxcore.Error)
	if !ok || de.Kind != dmxcore.ErrInvalidUniverseAddress {
		t.Fatalf("err = %v, want ErrInvalidUniverseAddress", err)
	}
}
