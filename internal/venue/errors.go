package venue

import "errors"

// Sentinel errors every connector maps its transport/decode failures onto,
// so the scheduler and circuit manager can classify failures without
// depending on any one venue's error types.
var (
	// ErrNetworkTransient covers timeouts, connection resets and 5xx
	// responses — worth a circuit-breaker failure count and a retry.
	ErrNetworkTransient = errors.New("venue: transient network error")

	// ErrDecodeSchema covers a response that parsed as valid JSON/HTTP but
	// didn't match the expected shape — a venue API change, not a network
	// blip. Counted separately so schema drift doesn't masquerade as an
	// outage.
	ErrDecodeSchema = errors.New("venue: response schema mismatch")

	// ErrRateLimited covers 429 responses. The connectors' local
	// rate.Limiter blocks in Wait instead of returning it.
	ErrRateLimited = errors.New("venue: rate limited")
)
