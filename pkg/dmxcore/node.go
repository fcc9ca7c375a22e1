package dmxcore

import (
	"context"
	"log"
	"net"
	"sort"
	"sync"
	"time"
)

// Sender is implemented by each protocol package (Art-Net, sACN, KiNet)
// to turn a universe's raw buffer into wire packets and put them on the
// node's socket (spec §4.6-§4.8). Grounded on original_source's
// base/base_node.py _send_universe, specialised per impl_*/node.py.
type Sender interface {
	SendUniverse(id int, data []byte, u *Universe) error
}

// NodeOptions configures a Node (spec §4.2 NodeConfig).
type NodeOptions struct {
	// MaxFPS bounds how often the process task may flush universes while
	// a fade is running. Defaults to 25 (matches the original's default).
	MaxFPS int

	// RefreshEvery is the keepalive interval; once the least recently
	// sent universe is older than this window, every universe is resent.
	// Defaults to 2s, floored at 100ms.
	RefreshEvery time.Duration

	// DisableAutoRefresh skips starting the refresh loop immediately;
	// call StartRefresh later to begin it (defaults to starting it).
	DisableAutoRefresh bool

	// SourceAddress optionally binds the outgoing UDP socket to a local
	// address, enabling SO_REUSEADDR (spec §4.8).
	SourceAddress *net.UDPAddr
}

// Node owns the destination socket and the ordered collection of
// universes and in-flight fades sent to it (spec §3 Node, §4.2-§4.5).
// Grounded on original_source's base/base_node.py BaseNode.
type Node struct {
	correctable

	mu sync.Mutex

	dst  *net.UDPAddr
	conn *net.UDPConn

	sender Sender

	processEvery float64 // seconds
	refreshEvery time.Duration

	processTask backgroundTask
	refreshTask backgroundTask

	jobs []*channelBoundFade

	universes    map[int]*Universe
	universeIDs  []int // kept sorted ascending
}

// NewNode dials dst over UDP and starts the refresh task unless
// disabled. sender is supplied by the protocol package embedding this
// Node (spec §4.6's "one Sender per protocol").
func NewNode(dst *net.UDPAddr, sender Sender, opts NodeOptions) (*Node, error) {
	maxFPS := opts.MaxFPS
	if maxFPS <= 0 {
		maxFPS = 25
	}
	refreshEvery := opts.RefreshEvery
	if refreshEvery <= 0 {
		refreshEvery = 2 * time.Second
	}
	if refreshEvery < 100*time.Millisecond {
		refreshEvery = 100 * time.Millisecond
	}

	conn, err := dialUDP(dst, opts.SourceAddress)
	if err != nil {
		return nil, err
	}

	n := &Node{
		dst:          dst,
		conn:         conn,
		sender:       sender,
		processEvery: 1.0 / float64(maxFPS),
		refreshEvery: refreshEvery,
		universes:    make(map[int]*Universe),
	}
	n.correctable.setApplier(n.applyOutputCorrection)

	if !opts.DisableAutoRefresh {
		n.StartRefresh()
	}
	return n, nil
}

func (n *Node) applyOutputCorrection() {
	n.mu.Lock()
	us := make([]*Universe, 0, len(n.universes))
	for _, id := range n.universeIDs {
		us = append(us, n.universes[id])
	}
	n.mu.Unlock()
	for _, u := range us {
		u.applyOutputCorrection()
	}
}

// WriteUDP sends a fully-built packet to the node's destination.
func (n *Node) WriteUDP(b []byte) error {
	_, err := n.conn.Write(b)
	return err
}

// AddUniverse creates and registers a new universe under id (spec §4.5
// "universes must be unique per node").
func (n *Node) AddUniverse(id int) (*Universe, error) {
	if id < 0 {
		return nil, newErr(ErrInvalidUniverseAddress, "universe id must be >= 0: %d", id)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.universes[id]; exists {
		return nil, newErr(ErrDuplicateUniverse, "universe %d does already exist", id)
	}

	u := newUniverse(n, id)
	n.universes[id] = u
	n.universeIDs = append(n.universeIDs, id)
	sort.Ints(n.universeIDs)

	return u, nil
}

// GetUniverse looks up a previously-added universe by id.
func (n *Node) GetUniverse(id int) (*Universe, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	u, ok := n.universes[id]
	if !ok {
		return nil, newErr(ErrUniverseNotFound, "universe %d not found", id)
	}
	return u, nil
}

// Len returns the number of universes registered on the node.
func (n *Node) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.universeIDs)
}

// addJob registers a fade to be advanced by the process task.
func (n *Node) addJob(b *channelBoundFade) {
	n.mu.Lock()
	n.jobs = append(n.jobs, b)
	n.mu.Unlock()
}

// startProcessTask (re)starts the process loop if it isn't running
// already; it is a no-op otherwise since the loop drains all pending
// jobs before exiting (spec §4.3 "process loop runs while jobs or dirty
// universes remain").
func (n *Node) startProcessTask() {
	n.processTask.start(n.runProcessLoop)
}

// runProcessLoop advances queued fades and flushes dirty universes
// until idle_ct consecutive ticks find nothing to do, mirroring
// original_source's _process_values_task (spec §4.3, §9).
func (n *Node) runProcessLoop(stop <-chan struct{}) {
	select {
	case <-time.After(10 * time.Millisecond):
	case <-stop:
		return
	}

	const idleLimit = 10
	idleCt := 0
	tick := time.NewTicker(n.processInterval())
	defer tick.Stop()

	for idleCt < idleLimit {
		idleCt++

		n.mu.Lock()
		jobs := n.jobs
		n.jobs = nil
		n.mu.Unlock()

		var unfinished []*channelBoundFade
		for _, job := range jobs {
			job.process()
			idleCt = 0
			if !job.isDone {
				unfinished = append(unfinished, job)
			}
		}
		if len(unfinished) > 0 {
			n.mu.Lock()
			n.jobs = append(unfinished, n.jobs...)
			n.mu.Unlock()
		}
		for _, job := range jobs {
			if job.isDone {
				job.complete()
			}
		}

		n.mu.Lock()
		ids := append([]int(nil), n.universeIDs...)
		us := make([]*Universe, 0, len(ids))
		for _, id := range ids {
			us = append(us, n.universes[id])
		}
		n.mu.Unlock()

		for _, u := range us {
			if !u.DataChanged() {
				continue
			}
			if err := u.SendData(); err != nil {
				log.Printf("dmxcore: send error for universe %d: %v", u.ID(), err)
			}
			idleCt = 0
		}

		select {
		case <-stop:
			return
		case <-tick.C:
		}
	}
}

func (n *Node) processInterval() time.Duration {
	return time.Duration(n.processEvery * float64(time.Second))
}

// StartRefresh starts the keepalive loop if it is not already running.
func (n *Node) StartRefresh() {
	n.refreshTask.start(n.runRefreshLoop)
}

// StopRefresh stops the keepalive loop.
func (n *Node) StopRefresh() {
	n.refreshTask.cancel()
}

// runRefreshLoop periodically resends every universe so receivers see
// a fresh packet even when nothing changed, with exponential backoff
// (capped, reset once a cycle proves stable) if a send errors.
// Grounded on original_source's _periodic_refresh_worker and
// background_task.py's ExceptionIgnoringTask retry logic.
func (n *Node) runRefreshLoop(stop <-chan struct{}) {
	wait := time.Duration(0)
	for {
		select {
		case <-stop:
			return
		case <-time.After(wait):
		}

		start := time.Now()
		err := n.refreshCycle()
		if err == nil {
			wait = 0
			continue
		}

		log.Printf("dmxcore: refresh error: %v", err)
		elapsed := time.Since(start)
		if elapsed < 16*time.Second || elapsed < wait {
			wait *= 2
			if wait < 2*time.Second {
				wait = 2 * time.Second
			}
			const backoffCap = 64 * time.Second
			if wait > backoffCap {
				wait = backoffCap
			}
		} else {
			wait = 0
		}
	}
}

func (n *Node) refreshCycle() error {
	n.mu.Lock()
	ids := append([]int(nil), n.universeIDs...)
	us := make([]*Universe, 0, len(ids))
	for _, id := range ids {
		us = append(us, n.universes[id])
	}
	refreshEvery := n.refreshEvery
	n.mu.Unlock()

	oldest := time.Now()
	for _, u := range us {
		ls := u.LastSend()
		if ls.IsZero() {
			oldest = time.Time{}
			break
		}
		if ls.Before(oldest) {
			oldest = ls
		}
	}

	if !oldest.IsZero() && time.Since(oldest) < refreshEvery {
		return nil
	}

	var firstErr error
	for _, u := range us {
		if err := u.SendData(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wait blocks until every in-flight fade completes or ctx is cancelled.
func (n *Node) Wait(ctx context.Context) error {
	for {
		n.mu.Lock()
		jobs := append([]*channelBoundFade(nil), n.jobs...)
		n.mu.Unlock()
		if len(jobs) == 0 {
			return nil
		}
		for _, job := range jobs {
			c := job.channel
			if c == nil {
				continue
			}
			if err := c.Wait(ctx); err != nil {
				return err
			}
		}
	}
}

func dialUDP(dst *net.UDPAddr, src *net.UDPAddr) (*net.UDPConn, error) {
	if src == nil {
		return net.DialUDP("udp", nil, dst)
	}
	return dialUDPWithSource(dst, src)
}
