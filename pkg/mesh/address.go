package mesh

import (
	"fmt"
	"strings"

	"github.com/robotalks/meshnode/pkg/protocol"
)

// NodeAddress is a 16-bit node identifier.
type NodeAddress uint16

const (
	// Unresolved is the parent address before any route is known.
	Unresolved NodeAddress = NodeAddress(protocol.Broadcast)
	// Broadcast addresses every neighbor. It shares its value with
	// Unresolved.
	Broadcast NodeAddress = NodeAddress(protocol.Broadcast)
)

// High returns the high byte.
func (a NodeAddress) High() byte {
	return byte(a >> 8)
}

// Low returns the low byte.
func (a NodeAddress) Low() byte {
	return byte(a)
}

// IsResolved reports whether a is a real node address.
func (a NodeAddress) IsResolved() bool {
	return a != Unresolved
}

func (a NodeAddress) String() string {
	return fmt.Sprintf("0x%04x", uint16(a))
}

// AddressFromBytes assembles an address from its high and low bytes.
func AddressFromBytes(high, low byte) NodeAddress {
	return NodeAddress(uint16(high)<<8 | uint16(low))
}

// AddressSource provides the address of this node.
type AddressSource interface {
	Address() NodeAddress
}

// StaticAddress is an AddressSource with a fixed value.
type StaticAddress NodeAddress

// Address implements AddressSource.
func (a StaticAddress) Address() NodeAddress {
	return NodeAddress(a)
}

// Role selects how a node moves data up the tree.
type Role int

const (
	// RoleNode forwards data to its parent over the radio.
	RoleNode Role = iota
	// RoleSink hands data to the uplink and has no parent.
	RoleSink
)

func (r Role) String() string {
	if r == RoleSink {
		return "sink"
	}
	return "node"
}

// ParseRole parses "node" or "sink".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "", "node":
		return RoleNode, nil
	case "sink":
		return RoleSink, nil
	}
	return RoleNode, fmt.Errorf("unknown role %q", s)
}
