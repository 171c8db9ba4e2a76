package continuity

import (
	"math"

	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/lower"
	"github.com/waveline/strobe/internal/patch"
)

// DefaultRate is the per-second exponential approach rate of a gauge.
const DefaultRate = 12.0

// DefaultDecayTTL is how long (seconds) a decay-retired gauge survives
// unseen before it is dropped for good.
const DefaultDecayTTL = 2.0

type gauge struct {
	value []float64
	seen  bool
	idle  float64 // seconds since the element was last present
}

// Gauges holds every smoother of one session. Sets are keyed by the
// owning node plus instance; elements within a set by stable element
// identity.
type Gauges struct {
	Rate     float64
	DecayTTL float64

	sets map[string]map[string]*gauge
}

// NewGauges returns an empty gauge store with default tuning.
func NewGauges() *Gauges {
	return &Gauges{
		Rate:     DefaultRate,
		DecayTTL: DefaultDecayTTL,
		sets:     make(map[string]map[string]*gauge),
	}
}

// Apply smooths one instance-aligned buffer in place. buf holds
// count*stride lanes; owner identifies the producing node (stable
// across recompiles). Elements seen for the first time start at their
// target: continuity eases changes, it does not animate appearances.
// After smoothing, gauges of elements absent this frame retire per
// policy: immediately, or after DecayTTL seconds of absence.
func (g *Gauges) Apply(owner string, inst ctype.InstanceID, stride int, dt float64, policy lower.ContinuityPolicy, buf []float64) {
	setKey := owner + "/" + string(inst)
	set, ok := g.sets[setKey]
	if !ok {
		set = make(map[string]*gauge)
		g.sets[setKey] = set
	}

	alpha := 1 - math.Exp(-g.Rate*dt)
	count := len(buf) / stride

	for _, e := range set {
		e.seen = false
	}
	for i := 0; i < count; i++ {
		key := patch.StableElementID(inst, i)
		lanes := buf[i*stride : (i+1)*stride]
		e, ok := set[key]
		if !ok || len(e.value) != stride {
			// New element, or the producer changed width across a swap:
			// start at the target.
			e = &gauge{value: append([]float64(nil), lanes...)}
			set[key] = e
		} else {
			for l := range lanes {
				e.value[l] += (lanes[l] - e.value[l]) * alpha
			}
			copy(lanes, e.value)
		}
		e.seen = true
		e.idle = 0
	}

	for key, e := range set {
		if e.seen {
			continue
		}
		if policy == lower.RetireImmediate {
			delete(set, key)
			continue
		}
		e.idle += dt
		if e.idle > g.DecayTTL {
			delete(set, key)
		}
	}
}

// Reset drops every gauge. Used when a session restarts from scratch.
func (g *Gauges) Reset() {
	g.sets = make(map[string]map[string]*gauge)
}
