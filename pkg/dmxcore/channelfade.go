package dmxcore

// channelBoundFade joins a channel to the tuple of per-sample Fade
// curves driving it, plus the one-shot completion signal that backs
// Channel.Wait (spec §3 ChannelBoundFade, §9 "await semantics").
// Grounded on original_source's base/channel_fade.py.
type channelBoundFade struct {
	channel *Channel
	fades   []Fade
	values  []float64
	isDone  bool
	done    chan struct{}
}

func newChannelBoundFade(c *Channel, fades []Fade) *channelBoundFade {
	return &channelBoundFade{
		channel: c,
		fades:   fades,
		values:  make([]float64, len(fades)),
		done:    make(chan struct{}),
	}
}

// process advances every not-yet-finished fade by one tick and writes
// the resulting values back into the owning channel. A cancelled fade
// has no channel left; it is only marked done so the process task drops it.
func (b *channelBoundFade) process() {
	if b.channel == nil {
		b.isDone = true
		return
	}
	finished := true
	for i, f := range b.fades {
		if f.IsDone() {
			continue
		}
		b.values[i] = f.CalcNextValue()
		if !f.IsDone() {
			finished = false
		}
	}
	b.isDone = finished
	_ = b.channel.SetValues(b.values)
}

// cancel detaches the fade from its channel and signals any waiter
// without invoking the fade-finished callback (spec: "Cancelling...
// pending await channel futures must be completed").
func (b *channelBoundFade) cancel() {
	if b.channel != nil && b.channel.currentFade == b {
		b.channel.currentFade = nil
	}
	b.channel = nil
	closeOnce(b.done)
}

// complete detaches the fade from its channel, fires the
// fade-finished callback, and signals any waiter.
func (b *channelBoundFade) complete() {
	c := b.channel
	if c != nil && c.currentFade == b {
		c.currentFade = nil
	}
	b.channel = nil
	closeOnce(b.done)
	if c != nil && c.OnFadeFinished != nil {
		c.OnFadeFinished(c)
	}
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
		// already closed
	default:
		close(ch)
	}
}
