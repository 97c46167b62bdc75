package node

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tinychain-project/tinychain/pkg/chain"
)

// SaveSnapshot atomically writes the chain's canonical-encoded state to
// s.snapshotPath: write to a temp file in the same directory, then rename
// over the target (spec.md §6: "atomic replacement preferred").
func (s *Server) SaveSnapshot() error {
	if s.snapshotPath == "" {
		return nil
	}
	data := s.Chain.EncodeSnapshot()

	dir := filepath.Dir(s.snapshotPath)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.snapshotPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// LoadSnapshot reads and decodes a previously saved chain snapshot. It
// returns (nil, nil) if no snapshot file exists at path.
func LoadSnapshot(path string) (*chain.Blockchain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	bc, err := chain.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return bc, nil
}
