package patch

import (
	"fmt"

	"github.com/waveline/strobe/internal/ctype"
)

// StableStateID derives the hot-swap migration key for one persistent
// state cell of a node. The key depends on the node's role and derivation
// anchor, never on a positional slot number, so it survives recompiles
// that shuffle slot layout.
//
// User nodes key on their user-assigned id. Derived nodes key on their
// reason and anchor: the default source for osc.freq keeps the same
// stable identity however many other nodes are added around it.
func StableStateID(n *Node, state string) string {
	if n.Role == RoleUser {
		return fmt.Sprintf("state/u/%s/%s", n.ID, state)
	}
	return fmt.Sprintf("state/d/%s/%s/%s", n.Reason, n.Anchor, state)
}

// StableElementID derives the continuity-gauge key for one element of an
// instance. Element identity is the element's stable key within the
// instance (its index for plain arrays), never its current position in a
// frame buffer.
func StableElementID(inst ctype.InstanceID, elemKey int) string {
	return fmt.Sprintf("elem/%s/%d", inst, elemKey)
}
