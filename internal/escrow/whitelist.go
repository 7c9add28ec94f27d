package escrow

import (
	"sort"

	"AgentEscrow/internal/model"
)

// Venues eligible as swap targets. Fixed at build time; no runtime
// registration path exists.
var whitelistedVenues = map[model.Identity]struct{}{
	// Jupiter Aggregator v6
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4": {},
	// Raydium AMM
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": {},
	// Raydium CLMM
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": {},
	// Orca Whirlpool
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc": {},
	// PumpSwap (Pump.fun AMM)
	"pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA": {},
}

// VenueWhitelisted reports whether venue may be the target of a swap.
func VenueWhitelisted(venue model.Identity) bool {
	_, ok := whitelistedVenues[venue]
	return ok
}

// Venues returns the whitelist in stable order, for display.
func Venues() []model.Identity {
	out := make([]model.Identity, 0, len(whitelistedVenues))
	for v := range whitelistedVenues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
