package mesh

import (
	"fmt"

	"github.com/golang/glog"
)

// Forwarder moves data one step up the tree.
type Forwarder interface {
	Forward(channel byte, payload []byte) (int, error)
}

// Publisher receives every DATA payload a sink hands to its uplink.
type Publisher interface {
	Publish(channel byte, payload []byte) error
}

// ForwardToParent forwards over the radio to the parent.
type ForwardToParent struct {
	Router *Router
}

// Forward implements Forwarder.
func (f *ForwardToParent) Forward(channel byte, payload []byte) (int, error) {
	return f.Router.RelayToParent(channel, payload)
}

// ForwardToUplink writes to the uplink serial port of a sink and then
// publishes the payload. A failing publisher does not fail the forward.
// Oversized payloads are cut to PayloadMax on both paths and reported with
// ErrPayloadTruncated.
type ForwardToUplink struct {
	Router    *Router
	Publisher Publisher
}

// Forward implements Forwarder.
func (f *ForwardToUplink) Forward(channel byte, payload []byte) (n int, err error) {
	payload, truncErr := f.Router.truncate(payload)
	if f.Router.Uplink != nil || f.Publisher == nil {
		n, err = f.Router.RelayToUplink(channel, payload)
	} else {
		n = len(payload)
	}
	if f.Publisher != nil {
		if perr := f.Publisher.Publish(channel, payload); perr != nil {
			glog.Warningf("%s: publish: %v", f.Router.Address(), perr)
		}
	}
	if err == nil {
		err = truncErr
	}
	return
}

// NewForwarder selects the Forwarder for the router's role.
func NewForwarder(r *Router, pub Publisher) Forwarder {
	switch r.Role {
	case RoleSink:
		return &ForwardToUplink{Router: r, Publisher: pub}
	case RoleNode:
		return &ForwardToParent{Router: r}
	}
	panic(fmt.Sprintf("unknown role %d", r.Role))
}
