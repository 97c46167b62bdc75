package wallet

// Balance summarizes a key's cached UTXOs: Spendable is the sum of
// unmarked entries (usable as create_transaction inputs); Reserved is the
// sum of entries already marked by a pending mempool spend.
type Balance struct {
	Spendable uint64
	Reserved  uint64
}

// BalanceOf sums a UTXO cache into a Balance.
func BalanceOf(cache []CachedUTXO) Balance {
	var b Balance
	for _, u := range cache {
		if u.Marked {
			b.Reserved += u.Output.Value
		} else {
			b.Spendable += u.Output.Value
		}
	}
	return b
}
