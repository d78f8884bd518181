package market

import "strings"

var symbolDelimiters = strings.NewReplacer("-", "", "_", "", "/", "", ":", "")

var perpSuffixes = []string{"-SWAP", "-PERP", "SWAP", "PERP"}

// NormalizeSymbol strips venue-specific delimiters and perp suffixes and
// upper-cases the result. It does not reorder quote-first pairs: "KRW-BTC"
// becomes "KRWBTC"; SplitKRWQuoted handles that ordering. Mirrors
// normalizers.go's per-venue ProductID/InstID cleanup, generalized into one
// rule table instead of one function per venue.
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, suf := range perpSuffixes {
		if strings.HasSuffix(s, "-"+strings.TrimPrefix(suf, "-")) {
			s = strings.TrimSuffix(s, suf)
		}
	}
	s = symbolDelimiters.Replace(s)
	return s
}

// SplitKRWQuoted handles Korean venues' "KRW-BTC" quote-first convention,
// returning (base, quote) = (BTC, KRW). Any other dash-delimited pair is
// read base-first ("BTC-USDT" -> (BTC, USDT)); input without a dash is
// rejected.
func SplitKRWQuoted(raw string) (base, quote string, ok bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	parts := strings.SplitN(upper, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	if parts[0] == "KRW" {
		return parts[1], "KRW", true
	}
	return parts[0], parts[1], true
}

// NewSpotInstrument builds a normalized spot Instrument from a base/quote
// pair already split by a connector.
func NewSpotInstrument(base, quote string) Instrument {
	return Instrument{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote), VenueKind: Spot}
}

// NewPerpInstrument builds a normalized perp Instrument from a base/quote
// pair already split by a connector.
func NewPerpInstrument(base, quote string) Instrument {
	return Instrument{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote), VenueKind: Perp}
}
