package dmxcore

import (
	"sync"
	"time"
)

// Universe owns a packed DMX byte buffer and the non-overlapping
// channels registered against it (spec §3, §4.4). Grounded on
// original_source's base/universe.py.
type Universe struct {
	correctable

	mu sync.Mutex

	node *Node
	id   int

	data        []byte
	dataChanged bool
	lastSend    time.Time

	channels     map[string]*Channel
	channelOrder []string

	// Seq is the per-universe sequence counter sACN needs (spec §4.6's
	// "Sequence(1 per-universe)"); unused by Art-Net/KiNet.
	Seq *SequenceCounter
}

func newUniverse(n *Node, id int) *Universe {
	u := &Universe{
		node:     n,
		id:       id,
		data:     make([]byte, 2),
		channels: make(map[string]*Channel),
	}
	u.correctable.setApplier(u.applyOutputCorrection)
	return u
}

// ID returns the universe's numeric address.
func (u *Universe) ID() int { return u.id }

// Len returns the number of registered channels.
func (u *Universe) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.channels)
}

func (u *Universe) applyOutputCorrection() {
	u.mu.Lock()
	chs := make([]*Channel, 0, len(u.channels))
	for _, name := range u.channelOrder {
		chs = append(chs, u.channels[name])
	}
	u.mu.Unlock()
	for _, c := range chs {
		c.applyOutputCorrection()
	}
}

// GetChannel looks a channel up by name.
func (u *Universe) GetChannel(name string) (*Channel, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	c, ok := u.channels[name]
	if !ok {
		return nil, newErr(ErrChannelNotFound, "channel %q not found in the universe", name)
	}
	return c, nil
}

// AddChannelOpts configures AddChannel's optional fields.
type AddChannelOpts struct {
	Name      string
	ByteSize  int
	ByteOrder ByteOrder
}

// AddChannel constructs a new channel, validates it against every
// existing channel for overlap, resizes the universe buffer, applies
// the inherited output correction, and registers it (spec §4.4).
func (u *Universe) AddChannel(start, width int, opts AddChannelOpts) (*Channel, error) {
	byteSize := opts.ByteSize
	if byteSize == 0 {
		byteSize = 1
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	chan_, err := newChannel(u, start, width, byteSize, opts.ByteOrder)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = defaultChannelName(start, width)
	}
	if _, exists := u.channels[name]; exists {
		return nil, newErr(ErrChannelExists, "channel %q does already exist in the universe", name)
	}

	for existingName, existing := range u.channels {
		if existing.start > chan_.stop || existing.stop < chan_.start {
			continue
		}
		return nil, newErr(ErrOverlappingChannel, "new channel %q is overlapping with channel %q", name, existingName)
	}

	u.resizeLocked(chan_.stop)

	u.channels[name] = chan_
	u.channelOrder = append(u.channelOrder, name)

	chan_.applyOutputCorrection()
	return chan_, nil
}

func defaultChannelName(start, width int) string {
	return intToString(start) + "/" + intToString(width)
}

func (u *Universe) resizeLocked(minSize int) {
	newSize := minSize
	if newSize < 2 {
		newSize = 2
	}
	for _, c := range u.channels {
		if c.stop > newSize {
			newSize = c.stop
		}
	}
	if newSize%2 != 0 {
		newSize++
	}

	if newSize == len(u.data) {
		return
	}
	resized := make([]byte, newSize)
	copy(resized, u.data)
	u.data = resized
}

// channelChanged writes the channel's bytes into the universe buffer,
// marks the universe dirty, and ensures the node's process task runs
// (spec §4.3, §4.4).
func (u *Universe) channelChanged(c *Channel) {
	u.mu.Lock()
	c.ToBuffer(u.data)
	u.dataChanged = true
	u.mu.Unlock()

	u.node.startProcessTask()
}

// DataChanged reports whether the universe has unsent changes.
func (u *Universe) DataChanged() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.dataChanged
}

// LastSend returns the time of the last send attempt; it is updated
// whether or not the send succeeded.
func (u *Universe) LastSend() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastSend
}

// SendData hands the buffer to the node's wire encoder and clears the
// dirty flag (spec §4.4).
func (u *Universe) SendData() error {
	u.mu.Lock()
	data := make([]byte, len(u.data))
	copy(data, u.data)
	u.mu.Unlock()

	err := u.node.sender.SendUniverse(u.id, data, u)

	u.mu.Lock()
	u.lastSend = time.Now()
	u.dataChanged = false
	u.mu.Unlock()

	return err
}
