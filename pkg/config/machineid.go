package config

import (
	"fmt"
	"strconv"

	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/meshnode/pkg/mesh"
)

const appID = "meshnode"

// MachineAddress derives a node address from the machine ID.
func MachineAddress() (mesh.NodeAddress, error) {
	id, err := machineid.ProtectedID(appID)
	if err != nil {
		return 0, fmt.Errorf("machine id: %w", err)
	}
	return AddressFromID(id)
}

// AddressFromID derives a node address from a hex ID, avoiding zero and
// the broadcast address.
func AddressFromID(id string) (mesh.NodeAddress, error) {
	if len(id) < 4 {
		return 0, fmt.Errorf("machine id %q too short", id)
	}
	v, err := strconv.ParseUint(id[:4], 16, 16)
	if err != nil {
		return 0, fmt.Errorf("machine id: %w", err)
	}
	switch addr := mesh.NodeAddress(v); addr {
	case 0:
		return 1, nil
	case mesh.Broadcast:
		return mesh.Broadcast - 1, nil
	default:
		return addr, nil
	}
}
