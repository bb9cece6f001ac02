package core

import "math/big"

// ChainConfig holds chain-level configuration. This host targets a single
// post-Cancun ruleset, so forks that predate the merge (Homestead,
// Byzantium, London, ...) are assumed active unconditionally; only the
// fork boundaries that still matter for a running chain -- Shanghai
// withdrawals and Cancun blob-gas accounting -- are tracked.
type ChainConfig struct {
	ChainID      *big.Int
	ShanghaiTime *uint64
	CancunTime   *uint64
}

func isTimestampForked(forkTime *uint64, blockTime uint64) bool {
	if forkTime == nil {
		return false
	}
	return *forkTime <= blockTime
}

// IsShanghai returns whether the given block time is at or past Shanghai.
func (c *ChainConfig) IsShanghai(time uint64) bool {
	return isTimestampForked(c.ShanghaiTime, time)
}

// IsCancun returns whether the given block time is at or past Cancun.
func (c *ChainConfig) IsCancun(time uint64) bool {
	return isTimestampForked(c.CancunTime, time)
}

func newUint64(v uint64) *uint64 { return &v }

// MainnetConfig is the chain config for Ethereum mainnet.
var MainnetConfig = &ChainConfig{
	ChainID:      big.NewInt(1),
	ShanghaiTime: newUint64(1681338455),
	CancunTime:   newUint64(1710338135),
}

// TestConfig activates every tracked fork at genesis.
var TestConfig = &ChainConfig{
	ChainID:      big.NewInt(1337),
	ShanghaiTime: newUint64(0),
	CancunTime:   newUint64(0),
}
