package dmxcore

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingSender struct {
	mu    sync.Mutex
	sends []int
}

func (r *recordingSender) SendUniverse(id int, data []byte, u *Universe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, id)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sends)
}

func testNode() *Node {
	n := &Node{
		sender:       &recordingSender{},
		processEvery: 1.0 / 1000, // fast ticks for tests
		refreshEvery: time.Hour,
		universes:    make(map[int]*Universe),
	}
	n.correctable.setApplier(n.applyOutputCorrection)
	return n
}

func TestAddUniverseRejectsDuplicate(t *testing.T) {
	n := testNode()
	if _, err := n.AddUniverse(0); err != nil {
		t.Fatalf("AddUniverse: %v", err)
	}
	_, err := n.AddUniverse(0)
	assertErrorKind(t, err, ErrDuplicateUniverse)
}

func TestGetUniverseNotFound(t *testing.T) {
	n := testNode()
	_, err := n.GetUniverse(3)
	assertErrorKind(t, err, ErrUniverseNotFound)
}

func TestUniverseIDsStaySorted(t *testing.T) {
	n := testNode()
	for _, id := range []int{3, 1, 2} {
		if _, err := n.AddUniverse(id); err != nil {
			t.Fatalf("AddUniverse(%d): %v", id, err)
		}
	}
	want := []int{1, 2, 3}
	if len(n.universeIDs) != len(want) {
		t.Fatalf("universeIDs = %v, want %v", n.universeIDs, want)
	}
	for i, v := range want {
		if n.universeIDs[i] != v {
			t.Fatalf("universeIDs = %v, want %v", n.universeIDs, want)
		}
	}
}

func TestSetFadeDrivesChannelToTarget(t *testing.T) {
	n := testNode()
	u, err := n.AddUniverse(0)
	if err != nil {
		t.Fatalf("AddUniverse: %v", err)
	}
	c, err := u.AddChannel(1, 1, AddChannelOpts{})
	if err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	if err := c.SetFade([]int{255}, 20, CurveLinear); err != nil {
		t.Fatalf("SetFade: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		vals := c.GetValues()
		if vals[0] == 255 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("fade did not reach target in time, last values=%v", vals)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestChannelWaitReturnsAfterFadeCompletes(t *testing.T) {
	n := testNode()
	u, err := n.AddUniverse(0)
	if err != nil {
		t.Fatalf("AddUniverse: %v", err)
	}
	c, err := u.AddChannel(1, 1, AddChannelOpts{})
	if err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if err := c.SetFade([]int{10}, 5, CurveLinear); err != nil {
		t.Fatalf("SetFade: %v", err)
	}

	done := make(chan struct{})
	go func() {
		_ = c.Wait(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after fade completion")
	}
}
