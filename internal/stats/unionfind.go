package stats

import "sort"

// unionFind tracks connected components with path compression and
// union by size.
type unionFind struct {
	parent map[string]string
	size   map[string]int
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{
		parent: make(map[string]string, len(ids)),
		size:   make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		uf.parent[id] = id
		uf.size[id] = 1
	}
	return uf
}

func (uf *unionFind) find(id string) string {
	p, ok := uf.parent[id]
	if !ok {
		return id
	}
	if p != id {
		root := uf.find(p)
		uf.parent[id] = root
		return root
	}
	return id
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}

// componentSizes returns the size of each component, largest first.
func (uf *unionFind) componentSizes() []int {
	bySize := make(map[string]int)
	for id := range uf.parent {
		bySize[uf.find(id)]++
	}
	sizes := make([]int, 0, len(bySize))
	for _, n := range bySize {
		sizes = append(sizes, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}
