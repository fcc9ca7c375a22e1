// Command dmxcastctl starts a DMX-512 IP node (Art-Net, sACN, or KiNet),
// optionally patches in channels from a YAML file, and keeps running
// until interrupted, refreshing and fading universes in the background.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/bbernstein/dmxcast-go/internal/config"
	"github.com/bbernstein/dmxcast-go/internal/patchfile"
	"github.com/bbernstein/dmxcast-go/pkg/artnet"
	"github.com/bbernstein/dmxcast-go/pkg/dmxcore"
	"github.com/bbernstein/dmxcast-go/pkg/kinet"
	"github.com/bbernstein/dmxcast-go/pkg/sacn"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// node is the subset of the three protocol nodes' surface main needs;
// each of artnet.Node, sacn.Node and kinet.Node satisfies it through
// their embedded *dmxcore.Node plus their own AddUniverse override.
type node interface {
	AddUniverse(id int) (*dmxcore.Universe, error)
	StartRefresh()
	StopRefresh()
	Wait(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	bindFlags(cfg)
	pflag.Parse()

	printBanner(cfg)

	n, err := newNode(cfg)
	if err != nil {
		log.Fatalf("Failed to create %s node: %v", cfg.Protocol, err)
	}

	universes, err := patchUniverses(n, cfg)
	if err != nil {
		log.Fatalf("Failed to patch universes: %v", err)
	}
	log.Printf("Patched %d universe(s)", len(universes))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	n.StopRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		log.Printf("Warning: in-flight fades did not settle before shutdown: %v", err)
	}

	log.Println("Stopped")
}

// bindFlags registers command-line overrides for every Load-derived
// config field, so a one-shot invocation doesn't require environment
// variables. Flags take precedence because pflag.Parse runs after Load.
func bindFlags(cfg *config.Config) {
	pflag.Var(&protocolValue{cfg}, "protocol", "protocol to emit: artnet, sacn, or kinet")
	pflag.StringVarP(&cfg.Destination, "destination", "d", cfg.Destination, "destination host or broadcast address")
	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "destination UDP port")
	pflag.IntVar(&cfg.MaxFPS, "max-fps", cfg.MaxFPS, "maximum frames per second while fading")
	pflag.IntVar(&cfg.RefreshEveryMillis, "refresh-ms", cfg.RefreshEveryMillis, "idle refresh interval in milliseconds")
	pflag.BoolVar(&cfg.DisableAutoRefresh, "disable-auto-refresh", cfg.DisableAutoRefresh, "disable the idle refresh loop")
	pflag.IntVar(&cfg.UniverseCount, "universe-count", cfg.UniverseCount, "number of sequential universes to create when no patch file is given")
	pflag.BoolVar(&cfg.ArtNetSequenceCounter, "artnet-sequence", cfg.ArtNetSequenceCounter, "enable Art-Net's rolling sequence counter")
	pflag.StringVar(&cfg.SacnCID, "sacn-cid", cfg.SacnCID, "sACN component id, 16 bytes hex; random if empty")
	pflag.StringVar(&cfg.SacnSourceName, "sacn-source-name", cfg.SacnSourceName, "sACN source name, at most 64 UTF-8 bytes")
	pflag.StringVarP(&cfg.PatchFilePath, "patch-file", "f", cfg.PatchFilePath, "YAML file describing universes and channels to pre-create")
}

// protocolValue adapts config.Protocol to pflag.Value.
type protocolValue struct{ cfg *config.Config }

func (p *protocolValue) String() string { return string(p.cfg.Protocol) }
func (p *protocolValue) Type() string   { return "protocol" }
func (p *protocolValue) Set(s string) error {
	switch config.Protocol(s) {
	case config.ProtocolArtNet, config.ProtocolSacn, config.ProtocolKinet:
		p.cfg.Protocol = config.Protocol(s)
		return nil
	default:
		return fmt.Errorf("unknown protocol %q (want artnet, sacn, or kinet)", s)
	}
}

// newNode builds the protocol node selected by cfg.Protocol, with auto
// refresh left running (no DisableAutoRefresh override) unless cfg asks
// for it, matching each package's own default.
func newNode(cfg *config.Config) (node, error) {
	switch cfg.Protocol {
	case config.ProtocolArtNet:
		return artnet.NewNode(cfg.Destination, cfg.Port, artnet.Options{
			MaxFPS:             cfg.MaxFPS,
			RefreshEvery:       cfg.RefreshEvery(),
			DisableAutoRefresh: cfg.DisableAutoRefresh,
			SequenceCounter:    cfg.ArtNetSequenceCounter,
		})
	case config.ProtocolSacn:
		cid, err := parseSacnCID(cfg.SacnCID)
		if err != nil {
			return nil, err
		}
		return sacn.NewNode(cfg.Destination, cfg.Port, sacn.Options{
			MaxFPS:             cfg.MaxFPS,
			RefreshEvery:       cfg.RefreshEvery(),
			DisableAutoRefresh: cfg.DisableAutoRefresh,
			CID:                cid,
			SourceName:         cfg.SacnSourceName,
		})
	case config.ProtocolKinet:
		return kinet.NewNode(cfg.Destination, cfg.Port, kinet.Options{
			MaxFPS:             cfg.MaxFPS,
			RefreshEvery:       cfg.RefreshEvery(),
			DisableAutoRefresh: cfg.DisableAutoRefresh,
		})
	default:
		return nil, fmt.Errorf("unknown protocol %q (want artnet, sacn, or kinet)", cfg.Protocol)
	}
}

func parseSacnCID(hexCID string) ([]byte, error) {
	if hexCID == "" {
		return nil, nil
	}
	cid, err := hex.DecodeString(hexCID)
	if err != nil || len(cid) != 16 {
		return nil, fmt.Errorf("sacn-cid must be 32 hex characters: %q", hexCID)
	}
	return cid, nil
}

// patchUniverses creates universes either from cfg.PatchFilePath, when
// set, or as cfg.UniverseCount bare universes numbered from the
// protocol's lowest valid id (spec: a node with no declared channels
// still carries and refreshes its universes).
func patchUniverses(n node, cfg *config.Config) ([]*dmxcore.Universe, error) {
	if cfg.PatchFilePath != "" {
		f, err := patchfile.Load(cfg.PatchFilePath)
		if err != nil {
			return nil, err
		}
		adder, ok := n.(patchfile.UniverseAdder)
		if !ok {
			return nil, fmt.Errorf("internal error: %T does not implement patchfile.UniverseAdder", n)
		}
		return patchfile.Apply(adder, f)
	}

	firstID := 0
	if cfg.Protocol == config.ProtocolSacn {
		firstID = 1
	}

	universes := make([]*dmxcore.Universe, 0, cfg.UniverseCount)
	for i := 0; i < cfg.UniverseCount; i++ {
		u, err := n.AddUniverse(firstID + i)
		if err != nil {
			return nil, err
		}
		universes = append(universes, u)
	}
	return universes, nil
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println("============================================")
	fmt.Println("  dmxcastctl")
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Build:   %s\n", BuildTime)
	fmt.Printf("  Commit:  %s\n", GitCommit)
	fmt.Println("============================================")
	fmt.Printf("  Protocol:    %s\n", cfg.Protocol)
	fmt.Printf("  Destination: %s\n", net.JoinHostPort(cfg.Destination, strconv.Itoa(cfg.Port)))
	fmt.Printf("  Max FPS:     %d\n", cfg.MaxFPS)
	fmt.Printf("  Refresh:     %s\n", cfg.RefreshEvery())
	if cfg.PatchFilePath != "" {
		fmt.Printf("  Patch file:  %s\n", cfg.PatchFilePath)
	} else {
		fmt.Printf("  Universes:   %d (bare)\n", cfg.UniverseCount)
	}
	fmt.Println("============================================")
}
