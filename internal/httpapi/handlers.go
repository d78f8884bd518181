package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/arbitrageur/internal/broadcast"
	"github.com/sawpanic/arbitrageur/internal/circuit"
	"github.com/sawpanic/arbitrageur/internal/opportunity"
)

// Handlers bundles every dependency the pull API reads from. Nothing here
// mutates state; every handler renders the hub's current last-good snapshot.
type Handlers struct {
	Hub     *broadcast.Hub
	Circuit *circuit.Manager
	Venues  []string
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode http response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(ctxRequestID).(string)
	if requestID == "" {
		requestID = "unknown"
	}
	h.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// currentOpportunities returns the hub's last-good list, setting
// X-Data-Stale when it has aged past last_good_ttl (spec.md §7).
func (h *Handlers) currentOpportunities(w http.ResponseWriter) []opportunity.Opportunity {
	opps, stale := h.Hub.Snapshot()
	if stale {
		w.Header().Set("X-Data-Stale", "true")
		return nil
	}
	return opps
}

// Opportunities handles GET /api/opportunities.
func (h *Handlers) Opportunities(w http.ResponseWriter, r *http.Request) {
	opps := h.currentOpportunities(w)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"opportunities": ToWireList(opps)})
}

// TetherBot handles GET /api/signals/tether-bot: the kimchi-premium subset.
func (h *Handlers) TetherBot(w http.ResponseWriter, r *http.Request) {
	opps := h.currentOpportunities(w)
	var kimchi []opportunity.Opportunity
	for _, o := range opps {
		if o.Kind == opportunity.KimchiPremium {
			kimchi = append(kimchi, o)
		}
	}
	h.writeJSON(w, http.StatusOK, TetherBotResponse{Opportunities: ToWireList(kimchi)})
}

// Spreads handles GET /api/monitor/spreads.
func (h *Handlers) Spreads(w http.ResponseWriter, r *http.Request) {
	opps := h.currentOpportunities(w)
	q := r.URL.Query()

	minGap := parseFloatQuery(q.Get("minGap"))
	minKimchi := parseFloatQuery(q.Get("minKimchi"))
	minFunding := parseFloatQuery(q.Get("minFunding"))
	minCex := parseFloatQuery(q.Get("minCex"))
	var wantTypes map[string]bool
	if t := q.Get("types"); t != "" {
		wantTypes = make(map[string]bool)
		for _, p := range strings.Split(t, ",") {
			wantTypes[strings.TrimSpace(p)] = true
		}
	}

	filtered := make([]opportunity.Opportunity, 0, len(opps))
	for _, o := range opps {
		wireType := kindToWire[o.Kind]
		if wantTypes != nil && !wantTypes[wireType] {
			continue
		}
		var floor float64
		switch o.Kind {
		case opportunity.KimchiPremium:
			floor = minKimchi
		case opportunity.FundingArb:
			floor = minFunding
		case opportunity.SpotCross, opportunity.PerpPerpSpread:
			floor = minCex
		default:
			floor = minGap
		}
		if absf(o.SpreadBps) < floor {
			continue
		}
		filtered = append(filtered, o)
	}

	byKind := make(map[string]SpreadSummaryByKind)
	exchangeCounts := make(map[string]int)
	sums := make(map[string]float64)
	for _, o := range filtered {
		wireType := kindToWire[o.Kind]
		s := byKind[wireType]
		s.Count++
		if absf(o.SpreadBps) > s.Max {
			s.Max = absf(o.SpreadBps)
		}
		sums[wireType] += absf(o.SpreadBps)
		byKind[wireType] = s
		for _, l := range o.Legs {
			exchangeCounts[l.Venue]++
		}
	}
	for k, s := range byKind {
		if s.Count > 0 {
			s.Avg = sums[k] / float64(s.Count)
		}
		byKind[k] = s
	}

	usdKrw := 0.0
	if v, ok := firstFxRate(opps); ok {
		usdKrw = v
	}

	h.writeJSON(w, http.StatusOK, SpreadsResponse{
		Total:          len(filtered),
		ByKind:         byKind,
		USDKRW:         usdKrw,
		ExchangeCounts: exchangeCounts,
		Opportunities:  ToWireList(filtered),
	})
}

func firstFxRate(opps []opportunity.Opportunity) (float64, bool) {
	for _, o := range opps {
		if v, ok := o.Metadata["fx_rate"].(float64); ok {
			return v, true
		}
	}
	return 0, false
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func parseFloatQuery(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	circuits := make(map[string]string, len(h.Venues))
	for _, v := range h.Venues {
		circuits[v] = h.Circuit.State(v).String()
	}
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Subscribers: h.Hub.SubscriberCount(),
		Circuits:    circuits,
	})
}

// NotFound handles unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}
