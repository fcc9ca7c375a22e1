// Package patchfile loads a declarative YAML description of universes
// and channels to pre-create on a node at startup, so a deployment can
// describe its fixture patch once instead of wiring channels in code.
package patchfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
)

// ChannelPatch describes one channel to add to a universe.
type ChannelPatch struct {
	Name      string `yaml:"name"`
	Start     int    `yaml:"start"`
	Width     int    `yaml:"width"`
	ByteSize  int    `yaml:"byte_size"`
	ByteOrder string `yaml:"byte_order"`
}

// UniversePatch describes one universe and the channels patched into it.
type UniversePatch struct {
	ID       int            `yaml:"id"`
	Channels []ChannelPatch `yaml:"channels"`
}

// File is the root of a patch file.
type File struct {
	Universes []UniversePatch `yaml:"universes"`
}

// Load reads and parses a patch file from path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patchfile: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("patchfile: parse %s: %w", path, err)
	}
	return &f, nil
}

// UniverseAdder is implemented by every protocol node (artnet.Node,
// sacn.Node, kinet.Node) via their AddUniverse override.
type UniverseAdder interface {
	AddUniverse(id int) (*dmxcore.Universe, error)
}

// Apply creates every universe and channel described in f against adder,
// returning the created universes in file order. It stops at the first
// error, leaving any already-created universes/channels in place (a
// patch file is expected to describe a fresh node).
func Apply(adder UniverseAdder, f *File) ([]*dmxcore.Universe, error) {
	universes := make([]*dmxcore.Universe, 0, len(f.Universes))

	for _, up := range f.Universes {
		u, err := adder.AddUniverse(up.ID)
		if err != nil {
			return universes, fmt.Errorf("patchfile: add universe %d: %w", up.ID, err)
		}

		for _, cp := range up.Channels {
			byteOrder := dmxcore.LittleEndian
			if cp.ByteOrder == "big" {
				byteOrder = dmxcore.BigEndian
			}
			byteSize := cp.ByteSize
			if byteSize == 0 {
				byteSize = 1
			}
			if _, err := u.AddChannel(cp.Start, cp.Width, dmxcore.AddChannelOpts{
				Name:      cp.Name,
				ByteSize:  byteSize,
				ByteOrder: byteOrder,
			}); err != nil {
				return universes, fmt.Errorf("patchfile: add channel %q in universe %d: %w", cp.Name, up.ID, err)
			}
		}

		universes = append(universes, u)
	}

	return universes, nil
}
