package artnet

import (
	"net"
	"time"

	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
)

// Options configures a Node beyond the shared dmxcore.NodeOptions
// (spec §4.6 / §6 "sequence_counter for Art-Net").
type Options struct {
	MaxFPS             int
	RefreshEvery       time.Duration
	DisableAutoRefresh bool
	SourceAddress      *net.UDPAddr

	// SequenceCounter enables the rolling 1..255 sequence number used
	// to let receivers detect out-of-order packets. When false, every
	// frame carries sequence 0 (spec §4.6).
	SequenceCounter bool
}

// Node is an Art-Net ArtDMX transmitter built on the shared fade and
// universe-buffer engine. Grounded on original_source's
// impl_artnet/node.py ArtNetNode.
type Node struct {
	*dmxcore.Node
	seq *dmxcore.SequenceCounter
}

// NewNode dials ip:port and returns a ready-to-use Art-Net node.
func NewNode(ip string, port int, opts Options) (*Node, error) {
	dst := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}

	n := &Node{}
	if opts.SequenceCounter {
		n.seq = dmxcore.NewSequenceCounter(1, 255)
	} else {
		n.seq = dmxcore.NewSequenceCounter(0, 0)
	}

	base, err := dmxcore.NewNode(dst, n, dmxcore.NodeOptions{
		MaxFPS:             opts.MaxFPS,
		RefreshEvery:       opts.RefreshEvery,
		DisableAutoRefresh: opts.DisableAutoRefresh,
		SourceAddress:      opts.SourceAddress,
	})
	if err != nil {
		return nil, err
	}
	n.Node = base
	return n, nil
}

// AddUniverse validates the Art-Net 15-bit Port-Address range before
// delegating to the shared engine (spec: "id out of protocol range").
func (n *Node) AddUniverse(id int) (*dmxcore.Universe, error) {
	if id < 0 || id > MaxUniverse {
		return nil, dmxcore.NewError(dmxcore.ErrInvalidUniverseAddress,
			"Art-Net universe must be 0..%d: %d", MaxUniverse, id)
	}
	return n.Node.AddUniverse(id)
}

// SendUniverse implements dmxcore.Sender, building and transmitting one
// ArtDMX frame for the given universe's current buffer.
func (n *Node) SendUniverse(id int, data []byte, _ *dmxcore.Universe) error {
	packet := buildDMXPacket(id, byte(n.seq.Next()), data)
	return n.WriteUDP(packet)
}
