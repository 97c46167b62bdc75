// Package p2p wraps a libp2p host to carry the tinychain wire protocol
// (pkg/protocol) over a single stream per peer, adapted from the
// teacher's GossipSub-based node into spec.md's simpler length-prefixed
// request/response model (spec.md §4.8-§4.9).
package p2p

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	klog "github.com/tinychain-project/tinychain/internal/log"
	"github.com/libp2p/go-libp2p"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"
)

// StreamProtocol is the single libp2p stream protocol tinychain carries
// every wire message variant over.
const StreamProtocol = protocol.ID("/tinychain/msg/1.0.0")

// dialTimeout bounds how long opening an outbound connection may take.
const dialTimeout = 10 * time.Second

// Config configures the host.
type Config struct {
	ListenAddr string // e.g. "0.0.0.0"
	Port       int
	DataDir    string // for persistent node identity; "" disables persistence
}

// Host wraps a libp2p host, exposing only what tinychain's node server
// needs: dialing a peer by address and accepting inbound streams.
type Host struct {
	h host.Host
}

// New starts listening per cfg and returns the wrapped host.
func New(cfg Config) (*Host, error) {
	addr := fmt.Sprintf("/ip4/%s/tcp/%d", cfg.ListenAddr, cfg.Port)
	opts := []libp2p.Option{libp2p.ListenAddrStrings(addr)}

	if cfg.DataDir != "" {
		priv, err := loadOrCreateIdentity(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("load p2p identity: %w", err)
		}
		opts = append(opts, libp2p.Identity(priv))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create libp2p host: %w", err)
	}
	return &Host{h: h}, nil
}

// SetHandler registers the callback invoked for every inbound stream
// opened against StreamProtocol. fn is responsible for framing its own
// reads/writes via pkg/protocol and closing the stream when done.
func (n *Host) SetHandler(fn func(network.Stream)) {
	n.h.SetStreamHandler(StreamProtocol, fn)
}

// Dial opens a fresh stream to addr (a full multiaddr including /p2p/<id>,
// e.g. "/ip4/1.2.3.4/tcp/9000/p2p/Qm...").
func (n *Host) Dial(ctx context.Context, addr string) (network.Stream, error) {
	info, err := peer.AddrInfoFromString(addr)
	if err != nil {
		return nil, fmt.Errorf("parse peer address %q: %w", addr, err)
	}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := n.h.Connect(dctx, *info); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	s, err := n.h.NewStream(ctx, info.ID, StreamProtocol)
	if err != nil {
		return nil, fmt.Errorf("open stream to %s: %w", addr, err)
	}
	return s, nil
}

// Addrs returns this host's full dialable multiaddrs (listen address plus
// peer ID), suitable for NodeList responses and seed configuration.
func (n *Host) Addrs() []string {
	id := n.h.ID()
	out := make([]string, 0, len(n.h.Addrs()))
	for _, a := range n.h.Addrs() {
		full, err := ma.NewMultiaddr(a.String() + "/p2p/" + id.String())
		if err != nil {
			continue
		}
		out = append(out, full.String())
	}
	return out
}

// Close shuts down the host.
func (n *Host) Close() error {
	return n.h.Close()
}

// loadOrCreateIdentity loads a persisted libp2p identity key from dataDir,
// or generates and saves a new one, so the peer ID is stable across
// restarts.
func loadOrCreateIdentity(dataDir string) (libp2pcrypto.PrivKey, error) {
	keyPath := filepath.Join(dataDir, "node.key")

	if data, err := os.ReadFile(keyPath); err == nil {
		raw, err := hex.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("decode node key: %w", err)
		}
		return libp2pcrypto.UnmarshalEd25519PrivateKey(raw)
	}

	priv, _, err := libp2pcrypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	raw, err := priv.Raw()
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(raw)), 0600); err != nil {
		return nil, fmt.Errorf("save node key: %w", err)
	}

	klog.P2P.Info().Msg("generated new node identity")
	return priv, nil
}
