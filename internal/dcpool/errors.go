package dcpool

import "errors"

// Sentinel errors for Pool operations.
var (
	// ErrUnknownDC is returned when a DC id has no known address, neither
	// from the compiled-in bootstrap table (spec §6) nor from a prior
	// help.getConfig fetch.
	ErrUnknownDC = errors.New("dcpool: unknown datacenter id")
)
