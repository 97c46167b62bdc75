package node

import (
	"context"
	"testing"
	"time"

	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/internal/storage"
	"github.com/tinychain-project/tinychain/pkg/chain"
)

func TestKnownPeerAddrsEmptyWithoutPeerStore(t *testing.T) {
	s := newTestServer()
	if addrs := s.KnownPeerAddrs(); addrs != nil {
		t.Fatalf("KnownPeerAddrs() = %v, want nil with no PeerStore attached", addrs)
	}
}

func TestConnectPeerPersistsToPeerStore(t *testing.T) {
	remoteHost, err := p2p.New(p2p.Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New remote host: %v", err)
	}
	defer remoteHost.Close()
	remoteSrv := New(chain.New(chain.MinTarget), remoteHost, "")
	remoteSrv.Listen()

	localHost, err := p2p.New(p2p.Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New local host: %v", err)
	}
	defer localHost.Close()

	localSrv := New(chain.New(chain.MinTarget), localHost, "")
	ps := p2p.NewPeerStore(storage.NewMemory())
	localSrv.SetPeerStore(ps)

	addrs := remoteHost.Addrs()
	if len(addrs) == 0 {
		t.Fatal("remote host advertised no addresses")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := localSrv.ConnectPeer(ctx, addrs[0]); err != nil {
		t.Fatalf("ConnectPeer: %v", err)
	}

	known := localSrv.KnownPeerAddrs()
	if len(known) != 1 || known[0] != addrs[0] {
		t.Fatalf("KnownPeerAddrs() = %v, want [%s]", known, addrs[0])
	}
}

func TestConnectPeerWithoutPeerStoreStillConnects(t *testing.T) {
	remoteHost, err := p2p.New(p2p.Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New remote host: %v", err)
	}
	defer remoteHost.Close()
	remoteSrv := New(chain.New(chain.MinTarget), remoteHost, "")
	remoteSrv.Listen()

	localHost, err := p2p.New(p2p.Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New local host: %v", err)
	}
	defer localHost.Close()
	localSrv := New(chain.New(chain.MinTarget), localHost, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := localSrv.ConnectPeer(ctx, remoteHost.Addrs()[0]); err != nil {
		t.Fatalf("ConnectPeer: %v", err)
	}
	if localSrv.PeerCount() != 1 {
		t.Fatalf("PeerCount() = %d, want 1", localSrv.PeerCount())
	}
}
