package mesh

import "sync"

// DefaultRouteExpiry is the number of maintenance cycles a parent may stay
// silent before it is dropped.
const DefaultRouteExpiry = 3

// RouteTable tracks the parent of this node.
//
// Losing the parent starts a hold-down of Expiry+1 maintenance cycles.
// While holding down the node advertises Unreachable so its children drop
// it, and only adopts a neighbor strictly closer to the sink than the lost
// parent. Neighbors whose own parent is this node are never adopted.
type RouteTable struct {
	// Expiry is the number of silent maintenance cycles tolerated.
	Expiry int

	lock       sync.RWMutex
	self       NodeAddress
	sink       bool
	parent     NodeAddress
	parentHops byte
	silent     int
	holddown   int
	lostHops   byte
}

// NewRouteTable creates an empty table for the node self. A sink never has
// a parent and always reports zero hops.
func NewRouteTable(role Role, self NodeAddress) *RouteTable {
	return &RouteTable{
		Expiry: DefaultRouteExpiry,
		self:   self,
		sink:   role == RoleSink,
		parent: Unresolved,
	}
}

// Parent returns the current parent or Unresolved.
func (t *RouteTable) Parent() NodeAddress {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.parent
}

// Hops returns the distance of this node to the sink.
func (t *RouteTable) Hops() byte {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.hops()
}

func (t *RouteTable) hops() byte {
	switch {
	case t.sink:
		return 0
	case t.parent.IsResolved():
		return t.parentHops + 1
	default:
		return Unreachable
	}
}

// HoldingDown reports whether the node recently lost its parent.
func (t *RouteTable) HoldingDown() bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return !t.parent.IsResolved() && t.holddown > 0
}

// Advertisement returns what this node advertises, and false when it
// should stay quiet.
func (t *RouteTable) Advertisement() (Advertisement, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	adv := Advertisement{Addr: t.self, Hops: t.hops(), Parent: t.parent}
	if adv.Hops == Unreachable && t.holddown == 0 {
		return adv, false
	}
	return adv, true
}

// Heard records an advertisement from a neighbor and reports whether the
// neighbor became the new parent. Ties keep the current parent.
func (t *RouteTable) Heard(adv Advertisement) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.sink || !adv.Addr.IsResolved() || adv.Addr == t.self {
		return false
	}
	lost := adv.Hops >= Unreachable-1 || adv.Parent == t.self
	if adv.Addr == t.parent {
		if lost {
			// the parent lost its own route or now routes through us
			t.lose()
			return false
		}
		t.parentHops, t.silent = adv.Hops, 0
		return false
	}
	if lost {
		return false
	}
	if t.parent.IsResolved() {
		if adv.Hops >= t.parentHops {
			return false
		}
	} else if t.holddown > 0 && adv.Hops >= t.lostHops {
		return false
	}
	t.parent, t.parentHops, t.silent, t.holddown = adv.Addr, adv.Hops, 0, 0
	return true
}

// Expire counts one maintenance cycle and drops a parent not heard for
// Expiry cycles. It returns the dropped parent.
func (t *RouteTable) Expire() (NodeAddress, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.sink {
		return Unresolved, false
	}
	if !t.parent.IsResolved() {
		if t.holddown > 0 {
			t.holddown--
		}
		return Unresolved, false
	}
	t.silent++
	if t.Expiry <= 0 || t.silent < t.Expiry {
		return Unresolved, false
	}
	old := t.parent
	t.lose()
	return old, true
}

func (t *RouteTable) lose() {
	t.lostHops = t.parentHops
	t.parent, t.silent = Unresolved, 0
	t.holddown = t.Expiry + 1
}
