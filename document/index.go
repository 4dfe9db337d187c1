package document

// quadIndex is a quadtree over annotation bounds, serving the editor's
// annotation-at-point hit tests. Entries store indices into the page's
// annotation slice; the index is rebuilt lazily after any mutation.
type quadIndex struct {
	bounds   Rect
	capacity int
	entries  []quadEntry
	nodes    []*quadIndex
}

type quadEntry struct {
	rect  Rect
	index int
}

func newQuadIndex(bounds Rect, capacity int) *quadIndex {
	return &quadIndex{
		bounds:   bounds,
		capacity: capacity,
		entries:  make([]quadEntry, 0, capacity),
	}
}

func (q *quadIndex) insert(r Rect, index int) bool {
	if !q.bounds.Intersects(r) {
		return false
	}

	if q.nodes != nil {
		for _, node := range q.nodes {
			if rectWithin(node.bounds, r) {
				if node.insert(r, index) {
					return true
				}
			}
		}
	}

	if q.nodes == nil {
		if len(q.entries) < q.capacity {
			q.entries = append(q.entries, quadEntry{rect: r, index: index})
			return true
		}
		q.subdivide()
		old := q.entries
		q.entries = make([]quadEntry, 0, q.capacity)
		for _, e := range old {
			q.insert(e.rect, e.index)
		}
		return q.insert(r, index)
	}

	// Straddles child boundaries; keep it at this level.
	q.entries = append(q.entries, quadEntry{rect: r, index: index})
	return true
}

func (q *quadIndex) subdivide() {
	xMid := (q.bounds.LLX + q.bounds.URX) / 2
	yMid := (q.bounds.LLY + q.bounds.URY) / 2

	q.nodes = []*quadIndex{
		newQuadIndex(Rect{LLX: q.bounds.LLX, LLY: yMid, URX: xMid, URY: q.bounds.URY}, q.capacity),
		newQuadIndex(Rect{LLX: xMid, LLY: yMid, URX: q.bounds.URX, URY: q.bounds.URY}, q.capacity),
		newQuadIndex(Rect{LLX: q.bounds.LLX, LLY: q.bounds.LLY, URX: xMid, URY: yMid}, q.capacity),
		newQuadIndex(Rect{LLX: xMid, LLY: q.bounds.LLY, URX: q.bounds.URX, URY: yMid}, q.capacity),
	}
}

func (q *quadIndex) query(r Rect) []int {
	var found []int
	if !q.bounds.Intersects(r) {
		return found
	}
	for _, e := range q.entries {
		if e.rect.Intersects(r) {
			found = append(found, e.index)
		}
	}
	if q.nodes != nil {
		for _, node := range q.nodes {
			found = append(found, node.query(r)...)
		}
	}
	return found
}

func rectWithin(outer, inner Rect) bool {
	return inner.LLX >= outer.LLX && inner.URX <= outer.URX &&
		inner.LLY >= outer.LLY && inner.URY <= outer.URY
}
