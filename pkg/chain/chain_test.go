package chain

import (
	"errors"
	"testing"
	"time"

	"github.com/tinychain-project/tinychain/pkg/block"
	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/tx"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// easyTarget is a maximal target (every bit set) so any header hash meets
// it on the first attempt, whereas MinTarget takes tens of thousands of
// attempts on average.
var easyTarget = func() types.U256 {
	var max [32]byte
	for i := range max {
		max[i] = 0xff
	}
	return types.U256FromBytes(max[:])
}()

func coinbaseTx(t *testing.T, reward uint64, pub types.PublicKey) *tx.Transaction {
	t.Helper()
	b := tx.NewBuilder()
	b.AddOutput(reward, pub)
	return b.Build()
}

func mineBlock(t *testing.T, prev types.Hash, target types.U256, txs []*tx.Transaction, ts time.Time) *block.Block {
	t.Helper()
	h := &block.Header{
		Timestamp:     ts,
		PrevBlockHash: prev,
		MerkleRoot:    block.MerkleRoot(txs),
		Target:        target,
	}
	if !h.Mine(1_000_000) {
		t.Fatalf("failed to mine block within budget")
	}
	return &block.Block{Header: h, Transactions: txs}
}

func TestAddBlockGenesis(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pub := key.PublicKey()

	bc := New(easyTarget)
	cb := coinbaseTx(t, blockReward(0), pub)
	blk := mineBlock(t, types.Hash{}, easyTarget, []*tx.Transaction{cb}, time.Unix(1000, 0))

	if err := bc.AddBlock(blk); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if bc.Height() != 1 {
		t.Fatalf("height = %d, want 1", bc.Height())
	}

	bc.RebuildUTXOs()
	got, ok := bc.GetUTXO(cb.Outputs[0].Hash())
	if !ok {
		t.Fatalf("expected coinbase output in utxo set")
	}
	if got.Value != blockReward(0) {
		t.Fatalf("utxo value = %d, want %d", got.Value, blockReward(0))
	}
}

func TestAddBlockRejectsBadPrevHash(t *testing.T) {
	key, _ := crypto.GenerateKey()
	bc := New(easyTarget)
	cb := coinbaseTx(t, blockReward(0), key.PublicKey())
	blk := mineBlock(t, types.Hash{1, 2, 3}, easyTarget, []*tx.Transaction{cb}, time.Unix(1000, 0))

	err := bc.AddBlock(blk)
	if !errors.Is(err, ErrInvalidBlock) {
		t.Fatalf("err = %v, want ErrInvalidBlock", err)
	}
}

func TestAddBlockRejectsBadCoinbaseAmount(t *testing.T) {
	key, _ := crypto.GenerateKey()
	bc := New(easyTarget)
	cb := coinbaseTx(t, blockReward(0)+1, key.PublicKey())
	blk := mineBlock(t, types.Hash{}, easyTarget, []*tx.Transaction{cb}, time.Unix(1000, 0))

	err := bc.AddBlock(blk)
	if !errors.Is(err, ErrInvalidTransaction) {
		t.Fatalf("err = %v, want ErrInvalidTransaction", err)
	}
	if bc.Height() != 0 {
		t.Fatalf("block must not be appended on failure")
	}
}

func TestAddBlockSpendsUTXOAndPaysFee(t *testing.T) {
	minerKey, _ := crypto.GenerateKey()
	payeeKey, _ := crypto.GenerateKey()
	bc := New(easyTarget)

	cb := coinbaseTx(t, blockReward(0), minerKey.PublicKey())
	blk1 := mineBlock(t, types.Hash{}, easyTarget, []*tx.Transaction{cb}, time.Unix(1000, 0))
	if err := bc.AddBlock(blk1); err != nil {
		t.Fatalf("AddBlock 1: %v", err)
	}
	bc.RebuildUTXOs()

	spent := cb.Outputs[0]
	builder := tx.NewBuilder()
	if err := builder.AddSignedInput(spent, minerKey); err != nil {
		t.Fatalf("sign input: %v", err)
	}
	const fee = 10
	builder.AddOutput(spent.Value-fee, payeeKey.PublicKey())
	spendTx := builder.Build()

	cb2 := coinbaseTx(t, blockReward(1)+fee, minerKey.PublicKey())
	blk2 := mineBlock(t, blk1.Header.Hash(), easyTarget, []*tx.Transaction{cb2, spendTx}, time.Unix(2000, 0))
	if err := bc.AddBlock(blk2); err != nil {
		t.Fatalf("AddBlock 2: %v", err)
	}

	bc.RebuildUTXOs()
	if _, ok := bc.GetUTXO(spent.Hash()); ok {
		t.Fatalf("spent output must be removed from utxo set")
	}
	if _, ok := bc.GetUTXO(spendTx.Outputs[0].Hash()); !ok {
		t.Fatalf("new output must be present in utxo set")
	}
}

func TestBlockRewardHalving(t *testing.T) {
	cases := []struct {
		height uint64
		want   uint64
	}{
		{0, 50 * SatoshiFactor},
		{HalvingInterval - 1, 50 * SatoshiFactor},
		{HalvingInterval, 25 * SatoshiFactor},
		{HalvingInterval * 2, 1_250_000_000},
		{HalvingInterval * 64, 0},
	}
	for _, c := range cases {
		if got := blockReward(c.height); got != c.want {
			t.Errorf("blockReward(%d) = %d, want %d", c.height, got, c.want)
		}
	}
}
