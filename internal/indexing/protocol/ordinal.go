package protocol

const (
	satsPerBTC      = 100_000_000
	halvingInterval = 210_000
	initialSubsidy  = 50 * satsPerBTC
)

// subsidyAtHeight returns the coinbase subsidy in satoshis.
func subsidyAtHeight(height uint64) uint64 {
	epoch := height / halvingInterval
	if epoch >= 64 {
		return 0
	}
	return initialSubsidy >> epoch
}

// firstOrdinalOfHeight returns the ordinal of the first satoshi minted by the
// coinbase at the given height: the sum of all prior subsidies.
func firstOrdinalOfHeight(height uint64) uint64 {
	var ordinal uint64
	epoch := height / halvingInterval
	for e := uint64(0); e < epoch && e < 64; e++ {
		ordinal += (initialSubsidy >> e) * halvingInterval
	}
	ordinal += subsidyAtHeight(height) * (height % halvingInterval)
	return ordinal
}
