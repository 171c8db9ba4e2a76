package solve

import (
	"github.com/waveline/strobe/internal/ctype"
	"github.com/waveline/strobe/internal/patch"
)

// varID is a dense index into one domain's union-find arrays.
type varID int32

// conflict is an axis conflict with both ports attached. It becomes a
// patch.Diagnostic at the solver surface.
type conflict struct {
	axis ctype.AxisName
	a, b string
	atA  patch.PortRef
	atB  patch.PortRef
}

// domain is an array-backed union-find with path compression over one
// axis domain. Values attach to representatives; origin tracks which
// port contributed a value so conflicts can name both sides.
type domain[V comparable] struct {
	name   ctype.AxisName
	parent []varID
	rank   []uint8
	val    []ctype.Axis[V]
	origin []patch.PortRef
}

func newDomain[V comparable](name ctype.AxisName) *domain[V] {
	return &domain[V]{name: name}
}

// alloc creates a fresh variable, optionally pre-resolved.
func (d *domain[V]) alloc(at patch.PortRef, init ctype.Axis[V]) varID {
	id := varID(len(d.parent))
	d.parent = append(d.parent, id)
	d.rank = append(d.rank, 0)
	d.val = append(d.val, init)
	d.origin = append(d.origin, at)
	return id
}

// find returns the representative of x, compressing the path.
func (d *domain[V]) find(x varID) varID {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]] // halve the path
		x = d.parent[x]
	}
	return x
}

// union merges the classes of a and b, unifying their values. On a value
// conflict the classes still merge, keeping a's value, so later unions
// against the same class report against a stable value instead of
// cascading fresh conflicts.
func (d *domain[V]) union(a, b varID) *conflict {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return nil
	}

	merged, c := ctype.Unify(d.name, d.val[ra], d.val[rb])
	var out *conflict
	if c != nil {
		out = &conflict{axis: c.Axis, a: c.A, b: c.B, atA: d.origin[ra], atB: d.origin[rb]}
		merged = d.val[ra]
	}

	// The surviving origin is whichever side carried the surviving value.
	org := d.origin[ra]
	if !d.val[ra].Resolved() && d.val[rb].Resolved() {
		org = d.origin[rb]
	}

	// Union by rank.
	if d.rank[ra] < d.rank[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	if d.rank[ra] == d.rank[rb] {
		d.rank[ra]++
	}
	d.val[ra] = merged
	d.origin[ra] = org
	return out
}

// resolve pins the class of x to value v, attributed to port at.
func (d *domain[V]) resolve(x varID, v V, at patch.PortRef) *conflict {
	r := d.find(x)
	merged, c := ctype.Unify(d.name, d.val[r], ctype.Fixed(v))
	if c != nil {
		return &conflict{axis: c.Axis, a: c.A, b: c.B, atA: d.origin[r], atB: at}
	}
	if !d.val[r].Resolved() && merged.Resolved() {
		d.origin[r] = at
	}
	d.val[r] = merged
	return nil
}

// valueOf returns the resolved value of x's class, if any.
func (d *domain[V]) valueOf(x varID) (V, bool) {
	r := d.find(x)
	if !d.val[r].Resolved() {
		var zero V
		return zero, false
	}
	return d.val[r].Value(), true
}

// defaultUnresolved resolves every still-unresolved class to def. Called
// exactly once, after all unification requests have been processed.
func (d *domain[V]) defaultUnresolved(def V) {
	for i := range d.parent {
		r := d.find(varID(i))
		if !d.val[r].Resolved() {
			d.val[r] = ctype.Fixed(def)
		}
	}
}
