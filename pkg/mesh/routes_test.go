package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTableAdoption(t *testing.T) {
	rt := NewRouteTable(RoleNode, 0x0002)
	assert.Equal(t, Unreachable, rt.Hops())

	assert.True(t, rt.Heard(Advertisement{Addr: 0x0010, Hops: 2}))
	assert.Equal(t, NodeAddress(0x0010), rt.Parent())
	assert.Equal(t, byte(3), rt.Hops())

	// ties keep the current parent
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0011, Hops: 2}))
	assert.Equal(t, NodeAddress(0x0010), rt.Parent())

	assert.True(t, rt.Heard(Advertisement{Addr: 0x0012, Hops: 0}))
	assert.Equal(t, NodeAddress(0x0012), rt.Parent())
	assert.Equal(t, byte(1), rt.Hops())

	assert.False(t, rt.Heard(Advertisement{Addr: 0x0013, Hops: Unreachable}))
	assert.False(t, rt.Heard(Advertisement{Addr: Broadcast, Hops: 0}))
}

func TestRouteTableExpiry(t *testing.T) {
	rt := NewRouteTable(RoleNode, 0x0002)
	rt.Heard(Advertisement{Addr: 0x0010, Hops: 0})
	for i := 0; i < DefaultRouteExpiry-1; i++ {
		_, expired := rt.Expire()
		assert.False(t, expired)
	}
	// hearing the parent resets the count
	rt.Heard(Advertisement{Addr: 0x0010, Hops: 1})
	assert.Equal(t, byte(2), rt.Hops())
	for i := 0; i < DefaultRouteExpiry-1; i++ {
		_, expired := rt.Expire()
		assert.False(t, expired)
	}
	old, expired := rt.Expire()
	assert.True(t, expired)
	assert.Equal(t, NodeAddress(0x0010), old)
	assert.Equal(t, Unresolved, rt.Parent())
	_, expired = rt.Expire()
	assert.False(t, expired)
}

func TestRouteTableParentLosesRoute(t *testing.T) {
	rt := NewRouteTable(RoleNode, 0x0002)
	rt.Heard(Advertisement{Addr: 0x0010, Hops: 1})
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0010, Hops: Unreachable}))
	assert.Equal(t, Unresolved, rt.Parent())
}

func TestRouteTableSink(t *testing.T) {
	rt := NewRouteTable(RoleSink, 0x0001)
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0010, Hops: 0}))
	assert.Equal(t, Unresolved, rt.Parent())
	assert.Equal(t, byte(0), rt.Hops())
	_, expired := rt.Expire()
	assert.False(t, expired)
}

func TestRouteTableIgnoresOwnChildren(t *testing.T) {
	rt := NewRouteTable(RoleNode, 0x0002)
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0003, Hops: 0, Parent: 0x0002}))
	assert.Equal(t, Unresolved, rt.Parent())

	assert.True(t, rt.Heard(Advertisement{Addr: 0x0010, Hops: 1, Parent: 0x0001}))
	// the parent switched to routing through us
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0010, Hops: 3, Parent: 0x0002}))
	assert.Equal(t, Unresolved, rt.Parent())
	assert.True(t, rt.HoldingDown())
}

func TestRouteTableHoldDown(t *testing.T) {
	rt := NewRouteTable(RoleNode, 0x0002)
	_, ok := rt.Advertisement()
	assert.False(t, ok, "no route and no hold-down stays quiet")

	rt.Heard(Advertisement{Addr: 0x0001, Hops: 0, Parent: Unresolved})
	for i := 0; i < DefaultRouteExpiry; i++ {
		rt.Expire()
	}
	require.Equal(t, Unresolved, rt.Parent())
	require.True(t, rt.HoldingDown())

	adv, ok := rt.Advertisement()
	require.True(t, ok)
	assert.Equal(t, Advertisement{Addr: 0x0002, Hops: Unreachable, Parent: Unresolved}, adv)

	// a stale child claiming a route is refused while holding down
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0003, Hops: 2, Parent: 0x0004}))
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0005, Hops: 0, Parent: 0x0006}))

	for i := 0; i < DefaultRouteExpiry+1; i++ {
		rt.Expire()
	}
	assert.False(t, rt.HoldingDown())
	_, ok = rt.Advertisement()
	assert.False(t, ok)
	assert.True(t, rt.Heard(Advertisement{Addr: 0x0003, Hops: 2, Parent: 0x0004}))
	assert.Equal(t, byte(3), rt.Hops())
}

func TestRouteTableHoldDownAcceptsCloser(t *testing.T) {
	rt := NewRouteTable(RoleNode, 0x0002)
	rt.Heard(Advertisement{Addr: 0x0010, Hops: 2})
	rt.Heard(Advertisement{Addr: 0x0010, Hops: Unreachable})
	require.True(t, rt.HoldingDown())
	assert.False(t, rt.Heard(Advertisement{Addr: 0x0011, Hops: 2}))
	assert.True(t, rt.Heard(Advertisement{Addr: 0x0012, Hops: 1}))
	assert.False(t, rt.HoldingDown())
	assert.Equal(t, byte(2), rt.Hops())
}
