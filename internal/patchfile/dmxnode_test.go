package patchfile

import (
	"net"
	"testing"

	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
)

type noopSender struct{}

func (noopSender) SendUniverse(id int, data []byte, u *dmxcore.Universe) error { return nil }

func newTestDMXNode(t *testing.T) *dmxcore.Node {
	t.Helper()
	dst := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 6454}
	n, err := dmxcore.NewNode(dst, noopSender{}, dmxcore.NodeOptions{DisableAutoRefresh: true})
	if err != nil {
		t.Fatalf("dmxcore.NewNode: %v", err)
	}
	return n
}
