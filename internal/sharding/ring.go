package sharding

import (
	"hash/fnv"
	"sort"
)

// FlinkOperatorRole is the node role name associated with tracker
// hosting. NewRing does not check roles: every address passed to it
// enters the ring.
const FlinkOperatorRole = "FlinkOperator"

// Ring is a consistent-hash ring over node addresses, mapping a
// marshaled entity key to the node that owns it. Proxy does not consult
// it: a Proxy spawns locally every key it is asked to route. A
// single-node Ring resolves every key to that node.
type Ring struct {
	vnodesPerNode int
	points        []uint32
	owners        map[uint32]string
}

// NewRing builds a ring over nodeAddrs, each replicated vnodesPerNode
// times to smooth load distribution. vnodesPerNode <= 0 defaults to 64.
func NewRing(nodeAddrs []string, vnodesPerNode int) *Ring {
	if vnodesPerNode <= 0 {
		vnodesPerNode = 64
	}
	r := &Ring{vnodesPerNode: vnodesPerNode, owners: make(map[uint32]string)}
	for _, addr := range nodeAddrs {
		for i := 0; i < vnodesPerNode; i++ {
			h := hashString(addr, i)
			r.points = append(r.points, h)
			r.owners[h] = addr
		}
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i] < r.points[j] })
	return r
}

// Owner returns the node address that owns marshaledKey, or "" if the
// ring has no nodes.
func (r *Ring) Owner(marshaledKey string) string {
	if len(r.points) == 0 {
		return ""
	}
	h := hashString(marshaledKey, 0)
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i] >= h })
	if idx == len(r.points) {
		idx = 0
	}
	return r.owners[r.points[idx]]
}

func hashString(s string, salt int) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	if salt != 0 {
		_, _ = h.Write([]byte{byte(salt), byte(salt >> 8)})
	}
	return h.Sum32()
}
