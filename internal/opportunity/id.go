package opportunity

import (
	"fmt"

	"github.com/google/uuid"
)

// idNamespace scopes this service's content-derived opportunity IDs away
// from any other UUIDv5 namespace.
var idNamespace = uuid.MustParse("6f2f8f7e-6e41-4c4e-9c3c-2a6e9c6f0a11")

// StableID derives a content-addressed UUID from the opportunity's identity
// fields plus the detection tick timestamp, so re-detecting the same spread
// on consecutive ticks yields different IDs (opportunities are ephemeral,
// spec.md §3) while two detectors never collide.
func StableID(kind Kind, symbol string, legs []Leg, detectedAt int64) string {
	name := fmt.Sprintf("%s|%s|%s|%d", kind, symbol, VenueKey(legs), detectedAt)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}
