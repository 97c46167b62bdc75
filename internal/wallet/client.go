package wallet

import (
	"context"
	"errors"
	"fmt"

	klog "github.com/tinychain-project/tinychain/internal/log"
	"github.com/tinychain-project/tinychain/internal/p2p"
	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/protocol"
	"github.com/tinychain-project/tinychain/pkg/tx"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// ErrUnknownKey is returned when a transfer is requested from a wallet
// that has no owned keypairs.
var ErrUnknownKey = errors.New("wallet: no owned key to sign from")

// Client drives the wallet core operations of spec.md §4.10 against a
// single node endpoint over a fresh p2p stream per request.
type Client struct {
	Host     *p2p.Host
	NodeAddr string
	Keys     []KeyPair
	Fees     FeePolicy

	// cache holds each owned key's locally cached UTXO set, keyed by the
	// key's public key, as replaced wholesale by FetchUTXOs.
	cache map[types.PublicKey][]CachedUTXO
}

// NewClient builds a wallet Client for the given owned keys, fee policy,
// and default node endpoint.
func NewClient(host *p2p.Host, nodeAddr string, keys []KeyPair, fees FeePolicy) *Client {
	return &Client{
		Host:     host,
		NodeAddr: nodeAddr,
		Keys:     keys,
		Fees:     fees,
		cache:    make(map[types.PublicKey][]CachedUTXO),
	}
}

// FetchUTXOs implements spec.md §4.10's fetch_utxos: for each owned key,
// send FetchUTXOs(pub), expect UTXOs(list), and replace the local per-key
// cache with the response.
func (c *Client) FetchUTXOs(ctx context.Context) error {
	for _, kp := range c.Keys {
		resp, err := c.roundTrip(ctx, protocol.FetchUTXOs{PubKey: kp.Public})
		if err != nil {
			return fmt.Errorf("fetch_utxos for %s: %w", kp.Name, err)
		}
		list, ok := resp.(protocol.UTXOs)
		if !ok {
			return fmt.Errorf("fetch_utxos for %s: unexpected response kind", kp.Name)
		}
		entries := make([]CachedUTXO, len(list.Entries))
		for i, e := range list.Entries {
			entries[i] = CachedUTXO{Output: e.Output, Marked: e.Marked}
		}
		c.cache[kp.Public] = entries
	}
	return nil
}

// Balance returns the combined spendable/reserved balance across every
// owned key's cached UTXOs.
func (c *Client) Balance() Balance {
	var total Balance
	for _, entries := range c.cache {
		b := BalanceOf(entries)
		total.Spendable += b.Spendable
		total.Reserved += b.Reserved
	}
	return total
}

// CreateTransaction implements spec.md §4.10's create_transaction: compute
// the fee from the policy, accumulate unmarked cached inputs across owned
// keys until their sum covers amount+fee, sign each with its owning key,
// and emit a payment output to recipient plus an optional change output
// back to the first owned key.
func (c *Client) CreateTransaction(recipient types.PublicKey, amount uint64) (*tx.Transaction, error) {
	if len(c.Keys) == 0 {
		return nil, ErrUnknownKey
	}
	fee := c.Fees.Fee(amount)
	total := amount + fee

	b := tx.NewBuilder()
	var sum uint64
	for _, kp := range c.Keys {
		if sum >= total {
			break
		}
		signer, err := crypto.PrivateKeyFromBytes(kp.Private[:])
		if err != nil {
			return nil, fmt.Errorf("load signer for %s: %w", kp.Name, err)
		}
		for _, u := range c.cache[kp.Public] {
			if sum >= total {
				break
			}
			if u.Marked {
				continue
			}
			if err := b.AddSignedInput(u.Output, signer); err != nil {
				return nil, fmt.Errorf("sign input for %s: %w", kp.Name, err)
			}
			sum += u.Output.Value
		}
	}
	if sum < total {
		return nil, ErrInsufficientFunds
	}

	b.AddOutput(amount, recipient)
	if change := sum - total; change > 0 {
		b.AddOutput(change, c.Keys[0].Public)
	}
	return b.Build(), nil
}

// SendTransaction implements spec.md §4.10's send_transaction: open a
// connection, send SubmitTransaction(tx), and close.
func (c *Client) SendTransaction(ctx context.Context, t *tx.Transaction) error {
	stream, err := c.Host.Dial(ctx, c.NodeAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.NodeAddr, err)
	}
	defer stream.Close()
	if err := protocol.WriteMessage(stream, protocol.SubmitTransaction{Tx: t}); err != nil {
		return fmt.Errorf("submit_transaction: %w", err)
	}
	klog.Wallet.Info().Str("node", c.NodeAddr).Msg("submitted transaction")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req protocol.Message) (protocol.Message, error) {
	stream, err := c.Host.Dial(ctx, c.NodeAddr)
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
