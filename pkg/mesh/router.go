package mesh

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/protocol"
)

// RadioSender transmits a radio window. uart.Port satisfies it.
type RadioSender interface {
	Write(p []byte) (int, error)
}

// TxSpace is implemented by radios that can report their free TX space.
// A window that does not fit entirely is not written.
type TxSpace interface {
	Free() int
}

// RouterStats counts router activity.
type RouterStats struct {
	Sent        uint64
	Uplinked    uint64
	Diagnostics uint64
}

// Router sends frames on behalf of one node.
type Router struct {
	Role   Role
	Radio  RadioSender
	Routes *RouteTable
	Layout protocol.Layout
	// Uplink is the secondary serial port of a sink.
	Uplink io.Writer
	// Diagnostics, when set, receives every non-fatal condition.
	Diagnostics DiagnosticFunc

	self AddressSource

	sent, uplinked, diags atomic.Uint64
}

// NewRouter creates a Router with an empty route table.
func NewRouter(role Role, self AddressSource, radio RadioSender) *Router {
	return &Router{
		Role:   role,
		Radio:  radio,
		Routes: NewRouteTable(role, self.Address()),
		self:   self,
	}
}

// Address returns the address of this node.
func (r *Router) Address() NodeAddress {
	return r.self.Address()
}

// ParentAddress returns the parent or Unresolved.
func (r *Router) ParentAddress() NodeAddress {
	return r.Routes.Parent()
}

// Stats returns a snapshot of the counters.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		Sent:        r.sent.Load(),
		Uplinked:    r.uplinked.Load(),
		Diagnostics: r.diags.Load(),
	}
}

// SendAck sends a DATA frame to an explicit destination.
func (r *Router) SendAck(destHigh, destLow, channel byte, msg []byte) (int, error) {
	return r.send(AddressFromBytes(destHigh, destLow), channel, protocol.TypeData, msg)
}

// SendRouteAdvertisement broadcasts a ROUTE frame on the route channel.
func (r *Router) SendRouteAdvertisement(payload []byte) (int, error) {
	return r.send(Broadcast, protocol.RouteChannel, protocol.TypeRoute, payload)
}

// SendToParent sends data to the parent on DataChannel. Payloads longer
// than PayloadMax are truncated and reported with ErrPayloadTruncated.
// Without a parent nothing is sent and ErrNoRoute is returned.
func (r *Router) SendToParent(p []byte) (int, error) {
	return r.RelayToParent(DataChannel, p)
}

// RelayToParent sends data to the parent on channel.
func (r *Router) RelayToParent(channel byte, p []byte) (int, error) {
	parent := r.ParentAddress()
	if !parent.IsResolved() {
		r.diagnose(fmt.Errorf("%s: send to parent: %w", r.Address(), ErrNoRoute))
		return 0, ErrNoRoute
	}
	return r.send(parent, channel, protocol.TypeData, p)
}

// SendToUplink writes data to the uplink of a sink on DataChannel.
func (r *Router) SendToUplink(p []byte) (int, error) {
	return r.RelayToUplink(DataChannel, p)
}

// RelayToUplink writes [channel][type][payload][checksum] to the uplink.
func (r *Router) RelayToUplink(channel byte, p []byte) (int, error) {
	if r.Uplink == nil {
		r.diagnose(fmt.Errorf("%s: send to uplink: %w", r.Address(), ErrNoRoute))
		return 0, ErrNoRoute
	}
	p, truncErr := r.truncate(p)
	f, err := protocol.Encode(protocol.TypeData, p)
	if err != nil {
		return 0, err
	}
	if _, err := r.Uplink.Write(append([]byte{channel}, f.Bytes()...)); err != nil {
		r.diagnose(fmt.Errorf("%s: uplink write: %w", r.Address(), err))
		return 0, err
	}
	r.uplinked.Add(1)
	return len(p), truncErr
}

// Maintain runs one route maintenance cycle: expire a silent parent, then
// advertise the current hop count. A node without a route stays quiet
// once its hold-down is over.
func (r *Router) Maintain() {
	if old, expired := r.Routes.Expire(); expired {
		r.diagnose(fmt.Errorf("%s: parent %s expired: %w", r.Address(), old, ErrNoRoute))
	}
	adv, ok := r.Routes.Advertisement()
	if !ok {
		glog.V(2).Infof("%s: no route, skip advertisement", r.Address())
		return
	}
	r.SendRouteAdvertisement(adv.Bytes())
}

func (r *Router) send(dest NodeAddress, channel byte, t protocol.PacketType, p []byte) (int, error) {
	p, truncErr := r.truncate(p)
	f, err := protocol.Encode(t, p)
	if err != nil {
		return 0, err
	}
	w := protocol.NewEnvelope(uint16(dest), channel, f).Window(r.Layout)
	if space, ok := r.Radio.(TxSpace); ok && space.Free() < len(w) {
		r.diagnose(fmt.Errorf("%s: radio send %s to %s: %w", r.Address(), t, dest, ErrRadioBusy))
		return 0, ErrRadioBusy
	}
	if _, err := r.Radio.Write(w); err != nil {
		r.diagnose(fmt.Errorf("%s: radio send %s to %s: %w", r.Address(), t, dest, err))
		return 0, err
	}
	r.sent.Add(1)
	glog.V(2).Infof("%s: sent %s to %s ch %d, %d bytes", r.Address(), t, dest, channel, len(p))
	return len(p), truncErr
}

func (r *Router) truncate(p []byte) ([]byte, error) {
	if len(p) <= protocol.PayloadMax {
		return p, nil
	}
	glog.V(1).Infof("%s: payload of %d bytes truncated", r.Address(), len(p))
	return p[:protocol.PayloadMax], ErrPayloadTruncated
}

func (r *Router) diagnose(err error) {
	r.diags.Add(1)
	glog.Warning(err)
	if r.Diagnostics != nil {
		r.Diagnostics(err)
	}
}
