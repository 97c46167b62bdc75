// Command tinyminer is spec.md's external miner role: it repeatedly fetches
// a block template from a node, seals it, and submits the mined block.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/internal/miner"
	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/types"
)

func main() {
	if err := run(); err != nil {
		log.Miner.Fatal().Err(err).Msg("tinyminer exiting")
	}
}

func run() error {
	fs := flag.NewFlagSet("tinyminer", flag.ContinueOnError)
	node := fs.String("node", "", "node address to mine against (required)")
	pubKeyHex := fs.String("pubkey", "", "hex-encoded public key to receive block rewards (generates a fresh one if omitted)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *node == "" {
		return fmt.Errorf("--node is required")
	}

	pubKey, err := resolvePubKey(*pubKeyHex)
	if err != nil {
		return err
	}

	host, err := p2p.New(p2p.Config{ListenAddr: "127.0.0.1", Port: 0})
	if err != nil {
		return fmt.Errorf("start p2p host: %w", err)
	}
	defer host.Close()

	m := miner.New(host, *node, pubKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log.Miner.Info().Str("node", *node).Str("pubkey", pubKey.String()).Msg("mining")
	if err := m.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func resolvePubKey(hexKey string) (types.PublicKey, error) {
	var pk types.PublicKey
	if hexKey == "" {
		priv, err := crypto.GenerateKey()
		if err != nil {
			return pk, fmt.Errorf("generate coinbase key: %w", err)
		}
		return priv.PublicKey(), nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return pk, fmt.Errorf("decode --pubkey: %w", err)
	}
	if len(raw) != types.PublicKeySize {
		return pk, fmt.Errorf("--pubkey must be %d bytes, got %d", types.PublicKeySize, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}
