package node

import (
	"context"
	"time"

	"github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/pkg/chain"
)

// MempoolMaxAge bounds how long an admitted transaction may sit unconfirmed
// before cleanup_mempool evicts it, per spec.md §6's named constant
// MAX_MEMPOOL_TRANSACTION_AGE.
const MempoolMaxAge = time.Duration(chain.MaxMempoolTransactionAgeSeconds) * time.Second

// RunMaintenance drives the two independent background tasks spec.md §4.9
// names — periodic mempool cleanup and periodic chain snapshotting — until
// ctx is canceled.
func (s *Server) RunMaintenance(ctx context.Context) {
	go s.runMempoolCleanup(ctx)
	go s.runSnapshotLoop(ctx)
	go s.runPeerStorePrune(ctx)
}

func (s *Server) runMempoolCleanup(ctx context.Context) {
	ticker := time.NewTicker(MempoolCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := s.Chain.Mempool().Cleanup(s.Chain, MempoolMaxAge, time.Now())
			if n > 0 {
				log.Mempool.Info().Int("dropped", n).Msg("cleaned up aged mempool entries")
			}
		}
	}
}

// runPeerStorePrune periodically drops persisted peer records older than
// p2p.StaleThreshold, so a node's address book doesn't grow unbounded with
// addresses that have long since gone quiet.
func (s *Server) runPeerStorePrune(ctx context.Context) {
	if s.peerStore == nil {
		return
	}
	ticker := time.NewTicker(p2p.PersistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.peerStore.PruneStale(p2p.StaleThreshold)
			if err != nil {
				log.P2P.Warn().Err(err).Msg("peer store prune failed")
				continue
			}
			if n > 0 {
				log.P2P.Info().Int("dropped", n).Msg("pruned stale peer records")
			}
		}
	}
}

func (s *Server) runSnapshotLoop(ctx context.Context) {
	if s.snapshotPath == "" {
		return
	}
	ticker := time.NewTicker(SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SaveSnapshot(); err != nil {
				log.Chain.Error().Err(err).Msg("snapshot save failed")
			}
		}
	}
}
