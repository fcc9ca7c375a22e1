package kinet

import (
	"net"
	"time"

	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
)

// Options configures a Node beyond the shared dmxcore.NodeOptions.
type Options struct {
	MaxFPS             int
	RefreshEvery       time.Duration
	DisableAutoRefresh bool
	SourceAddress      *net.UDPAddr
}

// MaxUniverse is the largest universe id KiNet's id space allows;
// KiNet has no native multi-universe addressing, so the node just
// mirrors Art-Net's 15-bit range (spec: "id out of protocol range").
const MaxUniverse = 32767

// Node is a KiNet v1 DMX-out transmitter built on the shared fade and
// universe-buffer engine. Grounded on original_source's
// impl_kinet/node.py KiNetNode.
type Node struct {
	*dmxcore.Node
}

// NewNode dials ip:port and returns a ready-to-use KiNet node.
func NewNode(ip string, port int, opts Options) (*Node, error) {
	dst := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}

	n := &Node{}
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

// AddUniverse validates the universe id before delegating to the
// shared engine.
func (n *Node) AddUniverse(id int) (*dmxcore.Universe, error) {
	if id < 0 || id > MaxUniverse {
		return nil, dmxcore.NewError(dmxcore.ErrInvalidUniverseAddress,
			"KiNet universe must be 0..%d: %d", MaxUniverse, id)
	}
	return n.Node.AddUniverse(id)
}

// SendUniverse implements dmxcore.Sender, building and transmitting one
// KiNet DMX-out frame for the given universe's current buffer.
func (n *Node) SendUniverse(_ int, data []byte, _ *dmxcore.Universe) error {
	packet := buildPacket(byte(len(data)), data)
	return n.WriteUDP(packet)
}
