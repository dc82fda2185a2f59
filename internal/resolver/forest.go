package resolver

// forest is a disjoint-set arena with union by rank and path compression.
type forest struct {
	parent []int
	rank   []uint8
}

func (f *forest) add() int {
	n := len(f.parent)
	f.parent = append(f.parent, n)
	f.rank = append(f.rank, 0)
	return n
}

func (f *forest) find(x int) int {
	root := x
	for f.parent[root] != root {
		root = f.parent[root]
	}
	for f.parent[x] != root {
		f.parent[x], x = root, f.parent[x]
	}
	return root
}

func (f *forest) union(a, b int) {
	ra, rb := f.find(a), f.find(b)
	if ra == rb {
		return
	}
	switch {
	case f.rank[ra] < f.rank[rb]:
		f.parent[ra] = rb
	case f.rank[ra] > f.rank[rb]:
		f.parent[rb] = ra
	default:
		f.parent[rb] = ra
		f.rank[ra]++
	}
}
