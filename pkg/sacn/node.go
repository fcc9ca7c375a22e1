package sacn

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
)

// Options configures a Node beyond the shared dmxcore.NodeOptions
// (spec §6 "cid, source_name for sACN").
type Options struct {
	MaxFPS             int
	RefreshEvery       time.Duration
	DisableAutoRefresh bool
	SourceAddress      *net.UDPAddr

	// CID is the 16-byte component identifier. Nil generates a random
	// one; a non-nil value of any other length is an InvalidCid error.
	CID []byte

	// SourceName must encode to at most 64 UTF-8 bytes. Empty uses a
	// default.
	SourceName string
}

// Node is an sACN/E1.31 data-packet transmitter built on the shared
// fade and universe-buffer engine. Grounded on original_source's
// impl_sacn/node.py SacnNode.
type Node struct {
	*dmxcore.Node

	mu         sync.Mutex
	basePacket []byte
}

// NewNode dials ip:port and returns a ready-to-use sACN node.
func NewNode(ip string, port int, opts Options) (*Node, error) {
	cid, err := newCID(opts.CID)
	if err != nil {
		return nil, err
	}

	sourceName := opts.SourceName
	if sourceName == "" {
		sourceName = defaultSourceName
	}
	if len(sourceName) > sourceNameLen {
		return nil, fmt.Errorf("sacn: source name %q encodes to more than %d UTF-8 bytes", sourceName, sourceNameLen)
	}

	dst := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}

	n := &Node{basePacket: buildBasePacket(cid, sourceName)}
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

// AddUniverse validates the E1.31 universe range before delegating to
// the shared engine, and seeds the universe's per-universe sequence
// counter (spec: "Sequence(1 per-universe)").
func (n *Node) AddUniverse(id int) (*dmxcore.Universe, error) {
	if id < MinUniverse || id > MaxUniverse {
		return nil, dmxcore.NewError(dmxcore.ErrInvalidUniverseAddress,
			"sACN universe must be %d..%d: %d", MinUniverse, MaxUniverse, id)
	}
	u, err := n.Node.AddUniverse(id)
	if err != nil {
		return nil, err
	}
	u.Seq = dmxcore.NewSequenceCounter(0, 255)
	return u, nil
}

// SendUniverse implements dmxcore.Sender, patching the base packet's
// length fields and transmitting base+frame as a single datagram.
func (n *Node) SendUniverse(id int, data []byte, u *dmxcore.Universe) error {
	seq := byte(0)
	if u.Seq != nil {
		seq = byte(u.Seq.Next())
	}
	frame := buildFrame(seq, id, data)

	n.mu.Lock()
	patchLengths(n.basePacket, len(data)+1)
	packet := make([]byte, 0, len(n.basePacket)+len(frame))
	packet = append(packet, n.basePacket...)
	packet = append(packet, frame...)
	n.mu.Unlock()

	return n.WriteUDP(packet)
}
