package config

import (
	"flag"
	"fmt"
)

// Node's default CLI values (spec.md §6's CLI surfaces).
const (
	DefaultPort           = 9000
	DefaultBlockchainFile = "./blockchain.cbor"
)

// NodeConfig is the node daemon's command-line configuration.
type NodeConfig struct {
	Port           uint16
	BlockchainFile string
	SeedPeers      []string // positional args: seed peer multiaddrs
}

// ParseNodeFlags parses a node's CLI arguments per spec.md §6:
// --port (u16, default 9000), --blockchain-file (default ./blockchain.cbor),
// and positional seed peers.
func ParseNodeFlags(args []string) (*NodeConfig, error) {
	fs := flag.NewFlagSet("tinychaind", flag.ContinueOnError)
	port := fs.Uint("port", DefaultPort, "P2P listen port")
	blockchainFile := fs.String("blockchain-file", DefaultBlockchainFile, "path to the blockchain snapshot file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *port > 0xFFFF {
		return nil, fmt.Errorf("--port out of range: %d", *port)
	}

	return &NodeConfig{
		Port:           uint16(*port),
		BlockchainFile: *blockchainFile,
		SeedPeers:      fs.Args(),
	}, nil
}
