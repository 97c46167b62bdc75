// Command tinychaind runs a tinychain node: it serves the wire protocol to
// peers, miners, and wallets, and maintains the chain, mempool, and
// snapshot file described in spec.md.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tinychain-project/tinychain/config"
	"github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/internal/node"
	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/internal/storage"
	"github.com/tinychain-project/tinychain/pkg/chain"
)

func main() {
	if err := run(); err != nil {
		log.Node.Fatal().Err(err).Msg("tinychaind exiting")
	}
}

func run() error {
	cfg, err := config.ParseNodeFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	dataDir := filepath.Dir(cfg.BlockchainFile)

	bc, err := loadOrInitChain(cfg.BlockchainFile)
	if err != nil {
		return fmt.Errorf("load chain: %w", err)
	}

	host, err := p2p.New(p2p.Config{
		ListenAddr: "0.0.0.0",
		Port:       int(cfg.Port),
		DataDir:    dataDir,
	})
	if err != nil {
		return fmt.Errorf("start p2p host: %w", err)
	}
	defer host.Close()

	srv := node.New(bc, host, cfg.BlockchainFile)

	peerDB, err := storage.NewBadger(filepath.Join(dataDir, "peerstore"))
	if err != nil {
		log.Storage.Warn().Err(err).Msg("open peer store failed, peer list will not survive restarts")
	} else {
		defer peerDB.Close()
		srv.SetPeerStore(p2p.NewPeerStore(peerDB))
	}

	srv.Listen()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seeds := append([]string{}, cfg.SeedPeers...)
	if known := srv.KnownPeerAddrs(); len(known) > 0 {
		log.Storage.Info().Int("count", len(known)).Msg("loaded persisted peer addresses")
		seeds = append(seeds, known...)
	}
	if len(seeds) > 0 {
		if err := srv.Sync(ctx, seeds); err != nil {
			log.Node.Warn().Err(err).Msg("startup sync failed, continuing with local chain")
		}
	}

	srv.RunMaintenance(ctx)

	for _, addr := range host.Addrs() {
		log.Node.Info().Str("addr", addr).Msg("listening")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Node.Info().Msg("shutting down")
	if err := srv.SaveSnapshot(); err != nil {
		log.Node.Warn().Err(err).Msg("final snapshot save failed")
	}
	return nil
}

// loadOrInitChain loads the blockchain snapshot at path, or starts a fresh
// chain at the genesis target if none exists yet (spec.md §4.9 startup).
func loadOrInitChain(path string) (*chain.Blockchain, error) {
	bc, err := node.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if bc != nil {
		return bc, nil
	}
	return chain.New(chain.MinTarget), nil
}
