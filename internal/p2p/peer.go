package p2p

import (
	"time"
)

// Peer is a remote dial address plus the time it was connected.
// node.Server's PEERS map is keyed by the same dial address string but
// holds *node.PeerConn values, not Peer.
type Peer struct {
	Addr        string
	ConnectedAt time.Time
}
