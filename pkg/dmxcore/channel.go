package dmxcore

import (
	"context"
	"encoding/binary"
	"math"
)

// ByteOrder selects how a channel's multi-byte samples are packed into
// the universe buffer (spec §3).
type ByteOrder int

const (
	// LittleEndian packs the least-significant byte first (the default).
	LittleEndian ByteOrder = iota
	// BigEndian packs the most-significant byte first.
	BigEndian
)

// Channel is an immutable-layout slice of a universe's byte buffer: a
// fixed start/width/byte-size/byte-order, two parallel raw/corrected
// value arrays, and at most one active fade (spec §3, §4.3). Grounded
// on original_source's base/channel.py.
type Channel struct {
	correctable

	universe *Universe

	start, width, byteSize int
	byteOrder              ByteOrder
	stop                   int
	valueMax               int
	bufStart               int

	valuesRaw []int
	valuesAct []int

	currentFade *channelBoundFade

	// OnFadeFinished fires once when a fade completes naturally (not on
	// cancellation), mirroring spec §6's callback_fade_finished.
	OnFadeFinished func(*Channel)
}

func newChannel(u *Universe, start, width, byteSize int, byteOrder ByteOrder) (*Channel, error) {
	if byteSize < 1 || byteSize > 4 {
		return nil, newErr(ErrChannelWidthInvalid, "byte size must be 1..4: %d", byteSize)
	}
	if start < 1 || start > 512 {
		return nil, newErr(ErrChannelOutOfUniverse, "start position of channel out of universe (1..512): %d", start)
	}
	if width <= 0 {
		return nil, newErr(ErrChannelWidthInvalid, "channel width must be > 0: %d", width)
	}

	totalByteWidth := width * byteSize
	stop := start + totalByteWidth - 1
	if stop > 512 {
		return nil, newErr(ErrChannelOutOfUniverse,
			"end position of channel out of universe (1..512): start=%d width=%d*%dbytes -> %d",
			start, width, byteSize, stop)
	}

	c := &Channel{
		universe:  u,
		start:     start,
		width:     width,
		byteSize:  byteSize,
		byteOrder: byteOrder,
		stop:      stop,
		valueMax:  pow256(byteSize) - 1,
		bufStart:  start - 1,
		valuesRaw: make([]int, width),
		valuesAct: make([]int, width),
	}
	c.correctable.setApplier(c.applyOutputCorrection)
	return c, nil
}

func pow256(byteSize int) int {
	v := 1
	for i := 0; i < byteSize; i++ {
		v *= 256
	}
	return v
}

// Start returns the 1-indexed DMX start position.
func (c *Channel) Start() int { return c.start }

// Width returns the number of logical samples in the channel.
func (c *Channel) Width() int { return c.width }

// Stop returns the 1-indexed DMX end position (inclusive).
func (c *Channel) Stop() int { return c.stop }

// ValueMax returns 256^byte_size - 1, the largest value a sample may hold.
func (c *Channel) ValueMax() int { return c.valueMax }

func (c *Channel) applyOutputCorrection() {
	c.recomputeActual()
}

func (c *Channel) resolvedCorrection() CorrectionFunc {
	if c.fn != nil {
		return c.fn
	}
	if c.universe.fn != nil {
		return c.universe.fn
	}
	if c.universe.node.fn != nil {
		return c.universe.node.fn
	}
	return CorrectionLinear
}

// recomputeActual reapplies the resolved correction to every raw value,
// writing the result into the universe buffer if anything changed
// (spec §9: "re-resolve lazily... do not recompute values_act per tick").
func (c *Channel) recomputeActual() {
	correction := c.resolvedCorrection()
	changed := false
	for i, raw := range c.valuesRaw {
		act := roundToInt(correction(float64(raw), c.valueMax))
		if act != c.valuesAct[i] {
			changed = true
		}
		c.valuesAct[i] = act
	}
	if changed {
		c.universe.channelChanged(c)
	}
}

// GetValues returns a copy of the channel's raw (uncorrected) values.
func (c *Channel) GetValues() []int {
	out := make([]int, len(c.valuesRaw))
	copy(out, c.valuesRaw)
	return out
}

// SetValues sets the channel's raw values immediately, with no fade. The
// length of values must equal the channel's width and each value must lie
// in [0, ValueMax()]; on any failure no state is changed (spec §4.3).
func (c *Channel) SetValues(values []float64) error {
	if len(values) != c.width {
		return newErr(ErrValueCountMismatch,
			"not enough values specified, expected %d but got %d", c.width, len(values))
	}

	valueMax := c.valueMax
	rounded := make([]int, len(values))
	for i, v := range values {
		rv := roundToInt(v)
		if rv < 0 || rv > valueMax {
			return newErr(ErrChannelValueOutOfBounds, "channel value out of bounds! 0 <= %v <= %d", v, valueMax)
		}
		rounded[i] = rv
	}

	copy(c.valuesRaw, rounded)
	c.recomputeActual()
	return nil
}

// ToBuffer writes the channel's corrected values into buf at its byte
// offsets, using its configured byte size and order (spec §4.3).
func (c *Channel) ToBuffer(buf []byte) {
	order := binaryOrder(c.byteOrder)
	pos := c.bufStart
	for _, v := range c.valuesAct {
		putUint(order, buf[pos:pos+c.byteSize], uint64(v), c.byteSize)
		pos += c.byteSize
	}
}

func binaryOrder(o ByteOrder) binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// putUint writes the low n bytes of v into buf using order.
func putUint(order binary.ByteOrder, buf []byte, v uint64, n int) {
	var tmp [8]byte
	switch order {
	case binary.BigEndian:
		binary.BigEndian.PutUint64(tmp[:], v<<(8*(8-n)))
		copy(buf, tmp[:n])
	default:
		binary.LittleEndian.PutUint64(tmp[:], v)
		copy(buf, tmp[:n])
	}
}

// SetFade cancels any current fade and schedules a new one toward
// targets over duration, using curve for every sample. Duration is
// clamped to at least one process tick. On validation failure (wrong
// length or out-of-bounds target) no state changes (spec §4.3).
func (c *Channel) SetFade(targets []int, duration float64, curve CurveKind) error {
	if len(targets) != c.width {
		return newErr(ErrValueCountMismatch,
			"not enough fade values specified, expected %d but got %d", c.width, len(targets))
	}
	for _, target := range targets {
		if target < 0 || target > c.valueMax {
			return newErr(ErrChannelValueOutOfBounds, "target value out of bounds! 0 <= %d <= %d", target, c.valueMax)
		}
	}

	node := c.universe.node
	stepMs := node.processEvery * 1000
	durationMs := math.Max(duration, stepMs)
	steps := int(math.Ceil(durationMs / stepMs))
	if steps < 1 {
		steps = 1
	}

	fades := make([]Fade, len(targets))
	for i, target := range targets {
		f := NewFade(curve)
		f.Initialize(float64(c.valuesRaw[i]), float64(target), steps)
		fades[i] = f
	}

	if c.currentFade != nil {
		c.currentFade.cancel()
	}

	bound := newChannelBoundFade(c, fades)
	c.currentFade = bound
	node.addJob(bound)
	node.startProcessTask()

	return nil
}

// Wait blocks until the channel's current fade completes or is
// cancelled, or returns immediately if no fade is active (spec §4.3
// "await channel").
func (c *Channel) Wait(ctx context.Context) error {
	fade := c.currentFade
	if fade == nil {
		return nil
	}
	select {
	case <-fade.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
