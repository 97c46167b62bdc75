// Package node implements the tinychain node server: the per-connection
// message dispatch loop, the two maintenance tasks, and startup chain
// sync (spec.md §4.9).
package node

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/pkg/chain"
	"github.com/tinychain-project/tinychain/pkg/protocol"
)

// MempoolCleanupInterval and SnapshotInterval drive the two independent
// maintenance tasks spec.md §4.9 requires.
const (
	MempoolCleanupInterval = 5 * time.Minute
	SnapshotInterval       = time.Minute
)

// PeerConn is one open outbound connection, addressable by its dial
// string. A held reference serializes sends on the underlying stream
// (spec.md §5).
type PeerConn struct {
	addr   string
	mu     sync.Mutex
	stream io.ReadWriteCloser
}

// Send writes m to the peer's stream, serialized against concurrent
// senders of the same peer.
func (p *PeerConn) Send(m protocol.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return protocol.WriteMessage(p.stream, m)
}

// Server holds the two process-global resources spec.md §4.9 names:
// CHAIN (the Blockchain, with its own internal reader/writer lock) and
// PEERS (a concurrent map from address string to an open outbound
// connection). Both are explicit fields here rather than package
// globals, so multiple Servers (e.g. in tests) never share state.
type Server struct {
	Chain *chain.Blockchain
	Host  *p2p.Host

	peersMu sync.RWMutex
	peers   map[string]*PeerConn

	snapshotPath string
	peerStore    *p2p.PeerStore
}

// New returns a server wrapping chain and host, ready to Listen.
func New(bc *chain.Blockchain, host *p2p.Host, snapshotPath string) *Server {
	return &Server{
		Chain:        bc,
		Host:         host,
		peers:        make(map[string]*PeerConn),
		snapshotPath: snapshotPath,
	}
}

// SetPeerStore attaches a persistent peer-address book so peers discovered
// via ConnectPeer survive process restarts (spec.md §3's badger-backed
// "persistent peer-address book for the node's seeded peer list"). Peer
// persistence is a no-op until this is called.
func (s *Server) SetPeerStore(ps *p2p.PeerStore) {
	s.peerStore = ps
}

// KnownPeerAddrs returns addresses persisted by a previous run, so startup
// sync can seed from them alongside the configured seed peers. Returns nil
// if no PeerStore is attached.
func (s *Server) KnownPeerAddrs() []string {
	if s.peerStore == nil {
		return nil
	}
	records, err := s.peerStore.LoadAll()
	if err != nil {
		log.P2P.Warn().Err(err).Msg("load persisted peers failed")
		return nil
	}
	addrs := make([]string, len(records))
	for i, r := range records {
		addrs[i] = r.Addr
	}
	return addrs
}

// AddPeer registers an open outbound connection under addr.
func (s *Server) AddPeer(addr string, stream io.ReadWriteCloser) *PeerConn {
	pc := &PeerConn{addr: addr, stream: stream}
	s.peersMu.Lock()
	s.peers[addr] = pc
	s.peersMu.Unlock()
	return pc
}

// RemovePeer drops addr from PEERS.
func (s *Server) RemovePeer(addr string) {
	s.peersMu.Lock()
	delete(s.peers, addr)
	s.peersMu.Unlock()
}

// PeerAddrs returns a snapshot of PEERS' keys, safe to use after
// releasing any other lock (spec.md §9: broadcast snapshots peer
// addresses before releasing the chain lock).
func (s *Server) PeerAddrs() []string {
	s.peersMu.RLock()
	defer s.peersMu.RUnlock()
	addrs := make([]string, 0, len(s.peers))
	for a := range s.peers {
		addrs = append(addrs, a)
	}
	return addrs
}

// PeerCount returns the number of open outbound connections.
func (s *Server) PeerCount() int {
	s.peersMu.RLock()
	defer s.peersMu.RUnlock()
	return len(s.peers)
}

func (s *Server) peer(addr string) (*PeerConn, bool) {
	s.peersMu.RLock()
	defer s.peersMu.RUnlock()
	p, ok := s.peers[addr]
	return p, ok
}

// broadcast sends m to every peer in PEERS, logging but not aborting on
// per-peer failures (spec.md §4.9 SubmitTemplate/SubmitTransaction).
func (s *Server) broadcast(m protocol.Message) {
	for _, addr := range s.PeerAddrs() {
		pc, ok := s.peer(addr)
		if !ok {
			continue
		}
		if err := pc.Send(m); err != nil {
			log.P2P.Warn().Str("peer", addr).Err(err).Msg("broadcast failed")
		}
	}
}

// ConnectPeer dials addr and registers the resulting stream in PEERS as an
// open outbound connection (spec.md §4.9's "PEERS: concurrent map from
// address string to an open outbound connection"). A no-op if addr is
// already connected.
func (s *Server) ConnectPeer(ctx context.Context, addr string) error {
	if _, ok := s.peer(addr); ok {
		return nil
	}
	stream, err := s.Host.Dial(ctx, addr)
	if err != nil {
		return err
	}
	s.AddPeer(addr, stream)

	if s.peerStore != nil {
		rec := p2p.PeerRecord{Addr: addr, LastSeen: time.Now().Unix()}
		if err := s.peerStore.Save(rec); err != nil {
			log.P2P.Warn().Str("peer", addr).Err(err).Msg("persist peer record failed")
		}
	}
	return nil
}

// Listen registers HandleStream as the host's inbound stream handler: one
// task per connection, run until the remote closes or a handler decides to
// (spec.md §4.9 "one accept task per inbound connection").
func (s *Server) Listen() {
	s.Host.SetHandler(func(stream network.Stream) {
		s.HandleStream(stream)
	})
}
