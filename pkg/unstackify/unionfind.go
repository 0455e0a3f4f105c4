package unstackify

// unionFind groups value tokens into classes. A class is poisoned as soon as
// any of its members is.
type unionFind struct {
	parent   []int
	rank     []int
	poisoned []bool
}

func (u *unionFind) add() int {
	id := len(u.parent)
	u.parent = append(u.parent, id)
	u.rank = append(u.rank, 0)
	u.poisoned = append(u.poisoned, false)
	return id
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
	u.poisoned[ra] = u.poisoned[ra] || u.poisoned[rb]
}

func (u *unionFind) poison(x int) {
	u.poisoned[u.find(x)] = true
}

func (u *unionFind) isPoisoned(x int) bool {
	return u.poisoned[u.find(x)]
}
