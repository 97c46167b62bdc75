// Package miner implements the external miner role of spec.md §4.8's wire
// protocol: fetch a block template from a node, seal it by varying the
// nonce, and submit the mined block back.
package miner

import (
	"context"
	"fmt"

	klog "github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/pkg/block"
	"github.com/tinychain-project/tinychain/pkg/protocol"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// StepsPerAttempt bounds how many nonce increments Header.Mine tries
// before giving up and fetching a fresh template, so a miner periodically
// re-syncs against the node's current mempool/target instead of grinding
// on a stale one forever.
const StepsPerAttempt = 1 << 20

// Miner drives spec.md's FetchTemplate/SubmitTemplate round trip against a
// single node endpoint, paying block rewards to PubKey.
type Miner struct {
	Host     *p2p.Host
	NodeAddr string
	PubKey   types.PublicKey
}

// New builds a Miner that rewards PubKey and mines against NodeAddr.
func New(host *p2p.Host, nodeAddr string, pubKey types.PublicKey) *Miner {
	return &Miner{Host: host, NodeAddr: nodeAddr, PubKey: pubKey}
}

// Run repeatedly fetches a template, mines it, and submits it until ctx is
// cancelled or a round trip fails.
func (m *Miner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		found, err := m.MineOnce(ctx)
		if err != nil {
			return err
		}
		if found {
			klog.Miner.Info().Msg("mined and submitted a block")
		}
	}
}

// MineOnce fetches one template, attempts to seal it within
// StepsPerAttempt nonce increments, and submits it if successful. Returns
// whether a block was found and submitted this round.
func (m *Miner) MineOnce(ctx context.Context) (bool, error) {
	tmpl, err := m.fetchTemplate(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch_template: %w", err)
	}

	if !tmpl.Header.Mine(StepsPerAttempt) {
		return false, nil
	}

	if err := m.submitTemplate(ctx, tmpl); err != nil {
		return false, fmt.Errorf("submit_template: %w", err)
	}
	return true, nil
}

func (m *Miner) roundTrip(ctx context.Context, req protocol.Message) (protocol.Message, error) {
	stream, err := m.Host.Dial(ctx, m.NodeAddr)
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

func (m *Miner) fetchTemplate(ctx context.Context) (*block.Block, error) {
	resp, err := m.roundTrip(ctx, protocol.FetchTemplate{PubKey: m.PubKey})
	if err != nil {
		return nil, err
	}
	tmpl, ok := resp.(protocol.Template)
	if !ok {
		return nil, fmt.Errorf("unexpected response kind to fetch_template")
	}
	return tmpl.Block, nil
}

func (m *Miner) submitTemplate(ctx context.Context, blk *block.Block) error {
	stream, err := m.Host.Dial(ctx, m.NodeAddr)
	if err != nil {
		return err
	}
	defer stream.Close()
	return protocol.WriteMessage(stream, protocol.SubmitTemplate{Block: blk})
}
