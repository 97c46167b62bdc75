package node

import (
	"net"
	"testing"
	"time"

	"github.com/tinychain-project/tinychain/pkg/chain"
	"github.com/tinychain-project/tinychain/pkg/protocol"
	"github.com/tinychain-project/tinychain/pkg/types"
)

func newTestServer() *Server {
	bc := chain.New(chain.MinTarget)
	return New(bc, nil, "")
}

func TestDispatchFetchBlockMissingHeightClosesConnection(t *testing.T) {
	s := newTestServer()
	client, server := net.Pipe()
	defer client.Close()

	closeConn := s.dispatch(server, protocol.FetchBlock{Height: 99})
	if !closeConn {
		t.Fatal("FetchBlock for a nonexistent height should signal connection close")
	}
}

func TestDispatchDiscoverNodesRespondsWithPeerList(t *testing.T) {
	s := newTestServer()
	s.peers = map[string]*PeerConn{"peer-a": {addr: "peer-a"}}

	client, server := net.Pipe()
	defer client.Close()
	errCh := make(chan error, 1)
	go func() { errCh <- func() error { s.dispatch(server, protocol.DiscoverNodes{}); return nil }() }()

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := protocol.ReadMessage(client)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	list, ok := resp.(protocol.NodeList)
	if !ok {
		t.Fatalf("response type = %T, want protocol.NodeList", resp)
	}
	if len(list.Addrs) != 1 || list.Addrs[0] != "peer-a" {
		t.Fatalf("Addrs = %v, want [peer-a]", list.Addrs)
	}
}

func TestDispatchAskDifferenceReportsDelta(t *testing.T) {
	s := newTestServer()

	client, server := net.Pipe()
	defer client.Close()
	go s.dispatch(server, protocol.AskDifference{Height: 5})

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := protocol.ReadMessage(client)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	diff, ok := resp.(protocol.Difference)
	if !ok {
		t.Fatalf("response type = %T, want protocol.Difference", resp)
	}
	if diff.Delta != -5 {
		t.Fatalf("Delta = %d, want -5 (empty local chain at height 0 asked against height 5)", diff.Delta)
	}
}

func TestDispatchFetchUTXOsForUnknownKeyReturnsEmptyList(t *testing.T) {
	s := newTestServer()
	var pubKey types.PublicKey

	client, server := net.Pipe()
	defer client.Close()
	go s.dispatch(server, protocol.FetchUTXOs{PubKey: pubKey})

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := protocol.ReadMessage(client)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	utxos, ok := resp.(protocol.UTXOs)
	if !ok {
		t.Fatalf("response type = %T, want protocol.UTXOs", resp)
	}
	if len(utxos.Entries) != 0 {
		t.Fatalf("expected no UTXOs for an untouched key, got %d", len(utxos.Entries))
	}
}

func TestDispatchUnsolicitedResponseClosesConnection(t *testing.T) {
	s := newTestServer()
	client, server := net.Pipe()
	defer client.Close()

	if closeConn := s.dispatch(server, protocol.NodeList{Addrs: nil}); !closeConn {
		t.Fatal("a response-class message arriving as a request should close the connection")
	}
}

func TestPeerAddrsAndCount(t *testing.T) {
	s := newTestServer()
	if s.PeerCount() != 0 {
		t.Fatalf("PeerCount() = %d, want 0", s.PeerCount())
	}
	s.AddPeer("peer-a", nil)
	if s.PeerCount() != 1 {
		t.Fatalf("PeerCount() = %d, want 1", s.PeerCount())
	}
	addrs := s.PeerAddrs()
	if len(addrs) != 1 || addrs[0] != "peer-a" {
		t.Fatalf("PeerAddrs() = %v, want [peer-a]", addrs)
	}
	s.RemovePeer("peer-a")
	if s.PeerCount() != 0 {
		t.Fatal("RemovePeer should drop the peer")
	}
}
