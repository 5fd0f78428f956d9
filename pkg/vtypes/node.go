package vtypes

import "fmt"

// Node identifies a single cluster member by its address, metadata-group
// port and integer id. Node ids form the sort key over the wrap-around
// consistent-hash ring each partition group is laid out on.
type Node struct {
	Address  string `json:"address"`
	MetaPort int    `json:"metaPort"`
	ID       int64  `json:"id"`
}

func (n Node) String() string {
	return fmt.Sprintf("%s:%d#%d", n.Address, n.MetaPort, n.ID)
}

// Equal compares nodes by id; two nodes with the same id are the same
// cluster member regardless of address bookkeeping drift.
func (n Node) Equal(other Node) bool {
	return n.ID == other.ID
}

// Slot is an integer in [0, S) identifying one unit of the partitioned key
// space. S is fixed cluster-wide.
type Slot int32

// PartitionGroup is the ordered sequence of replicas owning a set of slots.
// Members[0] is the header: the stable identity of the group for the
// lifetime of the group, even as the remaining members are replaced.
type PartitionGroup struct {
	Members []Node
}

// Header returns the group's distinguishing first member. Callers must not
// invoke Header on an empty group; a freshly constructed Data Group Member
// always has at least itself as a member.
func (g PartitionGroup) Header() Node {
	return g.Members[0]
}

// HeaderKey returns a stable string key for the group, suitable for use as a
// map key identifying the group across the cluster.
func (g PartitionGroup) HeaderKey() string {
	return fmt.Sprintf("%d", g.Header().ID)
}

// ReplicationFactor is the configured number of replicas per partition
// group. Membership insertion truncates the sequence to this length.
type ReplicationFactor int

// PartitionTable maps each slot to the header of the group that currently
// owns it. It is owned and mutated by the Metadata Group Member; the Data
// Group Member only ever reads it through this interface (see
// MetaCapability), never constructs or persists it.
type PartitionTable interface {
	// HeaderOf returns the header node-id owning slot, and whether the slot
	// is currently assigned at all.
	HeaderOf(slot Slot) (headerID int64, ok bool)
	// SlotsOwnedBy returns every slot currently assigned to headerID.
	SlotsOwnedBy(headerID int64) []Slot
}
