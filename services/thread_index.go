package services

// ThreadIndex is an adjacency index from parent id to child ids.
type ThreadIndex struct {
	children map[uint][]uint
}

// NewThreadIndex returns an empty index.
func NewThreadIndex() *ThreadIndex {
	return &ThreadIndex{children: make(map[uint][]uint)}
}

// Add records that id is a child of parentID.
func (ix *ThreadIndex) Add(id, parentID uint) {
	ix.children[parentID] = append(ix.children[parentID], id)
}

// Children returns the direct children of id in insertion order.
func (ix *ThreadIndex) Children(id uint) []uint {
	return ix.children[id]
}

// Subtree returns id followed by all of its descendants in breadth-first order.
// Every id appears once even if the index contains a cycle.
func (ix *ThreadIndex) Subtree(id uint) []uint {
	visited := map[uint]struct{}{id: {}}
	out := []uint{id}
	for i := 0; i < len(out); i++ {
		for _, c := range ix.Children(out[i]) {
			if _, seen := visited[c]; seen {
				continue
			}
			visited[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
