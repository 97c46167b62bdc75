package node

import (
	"io"

	"github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/pkg/block"
	"github.com/tinychain-project/tinychain/pkg/protocol"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// HandleStream runs the per-connection handler loop: receive a message,
// dispatch, repeat, until a read fails or a handler closes the
// connection (spec.md §4.9/§5 — processing within one stream is strictly
// sequential).
func (s *Server) HandleStream(stream io.ReadWriteCloser) {
	defer stream.Close()

	for {
		msg, err := protocol.ReadMessage(stream)
		if err != nil {
			return
		}
		if closeConn := s.dispatch(stream, msg); closeConn {
			return
		}
	}
}

// dispatch runs one message's action and reports whether the connection
// must now be closed.
func (s *Server) dispatch(stream io.ReadWriteCloser, msg protocol.Message) (closeConn bool) {
	switch m := msg.(type) {

	case protocol.FetchBlock:
		blk := s.Chain.BlockAt(uint64(m.Height))
		if blk == nil {
			return true
		}
		return s.send(stream, protocol.NewBlock{Block: blk})

	case protocol.DiscoverNodes:
		return s.send(stream, protocol.NodeList{Addrs: s.PeerAddrs()})

	case protocol.AskDifference:
		delta := int64(s.Chain.Height()) - int64(m.Height)
		return s.send(stream, protocol.Difference{Delta: int32(delta)})

	case protocol.FetchUTXOs:
		return s.send(stream, protocol.UTXOs{Entries: s.utxosForKey(m.PubKey)})

	case protocol.NewBlock:
		// Swallow errors: a rejected broadcast block does not punish
		// the peer (spec.md §7 propagation policy).
		if err := s.Chain.AddBlock(m.Block); err != nil {
			log.Chain.Debug().Err(err).Msg("rejected broadcast block")
			return false
		}
		s.Chain.RebuildUTXOs()
		return false

	case protocol.NewTransaction:
		if err := s.Chain.Mempool().Add(s.Chain, m.Tx); err != nil {
			log.Mempool.Debug().Err(err).Msg("rejected broadcast transaction")
			return true
		}
		return false

	case protocol.ValidateTemplate:
		return s.send(stream, protocol.TemplateValidity{Valid: s.validateTemplate(m.Block)})

	case protocol.SubmitTemplate:
		if err := s.Chain.AddBlock(m.Block); err != nil {
			log.Chain.Warn().Err(err).Msg("submitted template rejected")
			return false
		}
		s.Chain.RebuildUTXOs()
		s.broadcast(protocol.NewBlock{Block: m.Block})
		return false

	case protocol.SubmitTransaction:
		if err := s.Chain.Mempool().Add(s.Chain, m.Tx); err != nil {
			log.Mempool.Debug().Err(err).Msg("submitted transaction rejected")
			return false
		}
		s.broadcast(protocol.NewTransaction{Tx: m.Tx})
		return false

	case protocol.FetchTemplate:
		tmpl, err := s.buildTemplate(m.PubKey)
		if err != nil {
			log.Chain.Warn().Err(err).Msg("build template failed")
			return true
		}
		return s.send(stream, protocol.Template{Block: tmpl})

	default:
		// Response-class variants arriving unsolicited are a protocol
		// error: close the connection (spec.md §4.8).
		return true
	}
}

func (s *Server) send(stream io.Writer, m protocol.Message) bool {
	if err := protocol.WriteMessage(stream, m); err != nil {
		log.P2P.Warn().Err(err).Msg("write response failed")
		return true
	}
	return false
}

func (s *Server) utxosForKey(key types.PublicKey) []protocol.UTXORecord {
	entries := s.Chain.UTXOsForKey(key)
	out := make([]protocol.UTXORecord, len(entries))
	for i, e := range entries {
		out[i] = protocol.UTXORecord{Output: e.Output, Marked: e.Marked}
	}
	return out
}

func (s *Server) validateTemplate(b *block.Block) bool {
	tip := s.Chain.Tip()
	if tip == nil {
		return b.Header.PrevBlockHash.IsZero()
	}
	return b.Header.PrevBlockHash == tip.Header.Hash()
}

// buildTemplate implements FetchTemplate's candidate-block construction
// (spec.md §4.9).
func (s *Server) buildTemplate(pubKey types.PublicKey) (*block.Block, error) {
	return s.Chain.BuildTemplate(pubKey)
}
