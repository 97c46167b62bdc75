package config

import "testing"

func TestParseNodeFlagsDefaults(t *testing.T) {
	cfg, err := ParseNodeFlags(nil)
	if err != nil {
		t.Fatalf("ParseNodeFlags: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.BlockchainFile != DefaultBlockchainFile {
		t.Errorf("BlockchainFile = %q, want %q", cfg.BlockchainFile, DefaultBlockchainFile)
	}
	if len(cfg.SeedPeers) != 0 {
		t.Errorf("SeedPeers = %v, want empty", cfg.SeedPeers)
	}
}

func TestParseNodeFlagsOverridesAndSeeds(t *testing.T) {
	cfg, err := ParseNodeFlags([]string{
		"--port", "9100",
		"--blockchain-file", "/tmp/chain.cbor",
		"/ip4/1.2.3.4/tcp/9000/p2p/Qm1",
		"/ip4/5.6.7.8/tcp/9000/p2p/Qm2",
	})
	if err != nil {
		t.Fatalf("ParseNodeFlags: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
	if cfg.BlockchainFile != "/tmp/chain.cbor" {
		t.Errorf("BlockchainFile = %q", cfg.BlockchainFile)
	}
	if len(cfg.SeedPeers) != 2 {
		t.Fatalf("SeedPeers = %v, want 2 entries", cfg.SeedPeers)
	}
}

func TestParseNodeFlagsRejectsOutOfRangePort(t *testing.T) {
	if _, err := ParseNodeFlags([]string{"--port", "70000"}); err == nil {
		t.Fatal("expected error for a port above 65535")
	}
}
