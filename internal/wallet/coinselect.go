package wallet

import (
	"errors"

	"github.com/tinychain-project/tinychain/pkg/tx"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// CachedUTXO is one entry of a key's locally cached unspent-output set,
// as returned by a FetchUTXOs round trip (spec.md §4.9/§4.10).
type CachedUTXO struct {
	Output tx.TransactionOutput
	Marked bool
}

// CoinSelection holds the result of coin selection.
type CoinSelection struct {
	Inputs []tx.TransactionOutput
	Total  uint64
}

// SelectCoins implements create_transaction step 2 (spec.md §4.10): walk
// the cache in order, skip marked entries, and accumulate inputs until
// their sum reaches total. Unlike a waste-minimizing selector, this is the
// literal first-fit accumulation order the spec names — no sorting, no
// alternate strategies.
func SelectCoins(cache []CachedUTXO, total uint64) (*CoinSelection, error) {
	sel := &CoinSelection{}
	for _, u := range cache {
		if u.Marked {
			continue
		}
		sel.Inputs = append(sel.Inputs, u.Output)
		sel.Total += u.Output.Value
		if sel.Total >= total {
			return sel, nil
		}
	}
	return nil, ErrInsufficientFunds
}
