package engine

// frontierEntry is one pending expansion. The heap has no decrease-key, so an
// improved cell gets a new entry and older ones go stale; g records the score
// the entry was pushed with so stale entries can be recognised on pop.
type frontierEntry struct {
	coord Coordinate
	f     float64
	g     float64
	seq   uint64
}

// frontier is a container/heap min-heap ordered by f, then larger g, then
// insertion order.
type frontier []*frontierEntry

func (q frontier) Len() int { return len(q) }

func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		return q[i].g > q[j].g
	}
	return q[i].seq < q[j].seq
}

func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier) Push(x any) {
	*q = append(*q, x.(*frontierEntry))
}

func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
