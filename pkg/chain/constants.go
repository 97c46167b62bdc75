package chain

import "github.com/tinychain-project/tinychain/pkg/types"

// Consensus-critical constants (spec.md §6). Every node must agree on these
// exact values.
const (
	// InitialReward is the base-unit block subsidy before any halving and
	// before the 10^8 satoshi-equivalent conversion.
	InitialReward = 50

	// SatoshiFactor converts InitialReward's base units into minor units.
	SatoshiFactor = 100_000_000

	// HalvingInterval is the number of blocks between reward halvings.
	HalvingInterval = 210

	// IdealBlockTime is the target seconds between blocks.
	IdealBlockTime = 10

	// DifficultyUpdateInterval is the number of blocks between difficulty
	// retargets.
	DifficultyUpdateInterval = 50

	// MaxMempoolTransactionAgeSeconds is how long a mempool entry may sit
	// before cleanup_mempool evicts it.
	MaxMempoolTransactionAgeSeconds = 14 * 24 * 3600

	// BlockTransactionCap is the maximum number of mempool transactions
	// (excluding the coinbase) a template may include.
	BlockTransactionCap = 20
)

// MinTarget is the maximum permitted target; try_adjust_target never raises
// the target above this ceiling.
var MinTarget = types.MinTarget
