package node

import (
	"context"
	"fmt"

	"github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/pkg/block"
	"github.com/tinychain-project/tinychain/pkg/protocol"
)

// Sync implements spec.md §4.9's startup procedure when no snapshot was
// loaded: discover nodes through every seed, ask each known peer how far
// ahead it is, pick the furthest-ahead peer, and download its chain block
// by block. Callers should follow a successful Sync with a RebuildUTXOs
// call (already done here) — try_adjust_target is evaluated automatically
// as each block is appended via AddBlock.
func (s *Server) Sync(ctx context.Context, seeds []string) error {
	known := make(map[string]bool)
	for _, addr := range seeds {
		known[addr] = true
	}

	for _, addr := range seeds {
		nodes, err := s.discover(ctx, addr)
		if err != nil {
			log.Node.Warn().Str("seed", addr).Err(err).Msg("discover_nodes failed")
			continue
		}
		for _, n := range nodes {
			known[n] = true
		}
	}

	bestAddr := ""
	bestDelta := int32(0)
	localHeight := uint32(s.Chain.Height())
	for addr := range known {
		delta, err := s.askDifference(ctx, addr, localHeight)
		if err != nil {
			log.Node.Debug().Str("peer", addr).Err(err).Msg("ask_difference failed")
			continue
		}
		if delta > bestDelta {
			bestDelta = delta
			bestAddr = addr
		}
		if err := s.ConnectPeer(ctx, addr); err != nil {
			log.Node.Debug().Str("peer", addr).Err(err).Msg("keep-alive connect failed")
		}
	}

	if bestAddr == "" || bestDelta <= 0 {
		return nil
	}

	log.Node.Info().Str("peer", bestAddr).Int32("blocks_behind", bestDelta).Msg("syncing chain from peer")
	for h := localHeight; h < localHeight+uint32(bestDelta); h++ {
		blk, err := s.fetchBlock(ctx, bestAddr, h)
		if err != nil {
			return fmt.Errorf("fetch block %d from %s: %w", h, bestAddr, err)
		}
		if err := s.Chain.AddBlock(blk); err != nil {
			return fmt.Errorf("add synced block %d: %w", h, err)
		}
	}

	s.Chain.RebuildUTXOs()
	return nil
}

func (s *Server) roundTrip(ctx context.Context, addr string, req protocol.Message) (protocol.Message, error) {
	stream, err := s.Host.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := protocol.WriteMessage(stream, req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	resp, err := protocol.ReadMessage(stream)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

func (s *Server) discover(ctx context.Context, addr string) ([]string, error) {
	resp, err := s.roundTrip(ctx, addr, protocol.DiscoverNodes{})
	if err != nil {
		return nil, err
	}
	list, ok := resp.(protocol.NodeList)
	if !ok {
		return nil, fmt.Errorf("unexpected response kind to discover_nodes")
	}
	return list.Addrs, nil
}

func (s *Server) askDifference(ctx context.Context, addr string, height uint32) (int32, error) {
	resp, err := s.roundTrip(ctx, addr, protocol.AskDifference{Height: height})
	if err != nil {
		return 0, err
	}
	diff, ok := resp.(protocol.Difference)
	if !ok {
		return 0, fmt.Errorf("unexpected response kind to ask_difference")
	}
	return diff.Delta, nil
}

func (s *Server) fetchBlock(ctx context.Context, addr string, height uint32) (*block.Block, error) {
	resp, err := s.roundTrip(ctx, addr, protocol.FetchBlock{Height: height})
	if err != nil {
		return nil, err
	}
	nb, ok := resp.(protocol.NewBlock)
	if !ok {
		return nil, fmt.Errorf("unexpected response kind to fetch_block")
	}
	return nb.Block, nil
}
