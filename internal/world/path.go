package world

// ShortestPath finds a 4-directional route from start to end using
// breadth-first search. Mountains and lakes are impassable. The result
// includes both endpoints. It returns nil when no route exists or either
// endpoint is impassable, and [start] when start == end.
func ShortestPath(m *Map, start, end Pos) []Pos {
	if !m.IsPassable(start) || !m.IsPassable(end) {
		return nil
	}
	if start == end {
		return []Pos{start}
	}
	path, ok := search(m, start, func(p Pos) bool { return p == end })
	if !ok {
		return nil
	}
	return path
}

// Nearest runs a single breadth-first search from start and returns the path
// to the first cell (other than start) for which match returns true.
// Cells are visited in BFS order with neighbors expanded up, right, down, left.
func Nearest(m *Map, start Pos, match func(Cell) bool) ([]Pos, bool) {
	if !m.IsPassable(start) {
		return nil, false
	}
	return search(m, start, func(p Pos) bool {
		if p == start {
			return false
		}
		c, _ := m.Get(p)
		return match(c)
	})
}

// Distances returns the BFS hop count from start to every reachable cell.
// Unreachable and impassable cells hold -1.
func Distances(m *Map, start Pos) []int {
	dist := make([]int, m.CellCount())
	for i := range dist {
		dist[i] = -1
	}
	if !m.IsPassable(start) {
		return dist
	}
	dist[m.idx(start)] = 0
	queue := []Pos{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range Directions {
			n := cur.Add(d)
			if !m.IsPassable(n) || dist[m.idx(n)] >= 0 {
				continue
			}
			dist[m.idx(n)] = dist[m.idx(cur)] + 1
			queue = append(queue, n)
		}
	}
	return dist
}

func search(m *Map, start Pos, goal func(Pos) bool) ([]Pos, bool) {
	prev := make([]int, m.CellCount())
	for i := range prev {
		prev[i] = -1
	}
	visited := make([]bool, m.CellCount())
	visited[m.idx(start)] = true

	queue := []Pos{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if goal(cur) {
			return backtrack(m, prev, start, cur), true
		}

		for _, d := range Directions {
			n := cur.Add(d)
			if !m.IsPassable(n) || visited[m.idx(n)] {
				continue
			}
			visited[m.idx(n)] = true
			prev[m.idx(n)] = m.idx(cur)
			queue = append(queue, n)
		}
	}
	return nil, false
}

func backtrack(m *Map, prev []int, start, end Pos) []Pos {
	var rev []Pos
	for cur := m.idx(end); ; cur = prev[cur] {
		rev = append(rev, Pos{X: cur % m.Width, Y: cur / m.Width})
		if cur == m.idx(start) {
			break
		}
	}
	path := make([]Pos, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}

// ValidPath reports whether every position of path is passable and each
// consecutive pair is adjacent.
func ValidPath(m *Map, path []Pos) bool {
	for i, p := range path {
		if !m.IsPassable(p) {
			return false
		}
		if i > 0 && !IsAdjacent(path[i-1], p) {
			return false
		}
	}
	return true
}

// JoinPath builds one continuous path from start through each waypoint in
// turn, linking them with shortest-path segments. Waypoints that cannot be
// reached from the previous point are skipped, and consecutive duplicates
// are dropped. The result starts at start; it has length 1 when no waypoint
// could be reached.
func JoinPath(m *Map, start Pos, waypoints []Pos) []Pos {
	path := []Pos{start}
	cur := start
	for _, wp := range waypoints {
		if wp == cur {
			continue
		}
		seg := ShortestPath(m, cur, wp)
		if len(seg) < 2 {
			continue
		}
		path = append(path, seg[1:]...)
		cur = wp
	}
	return path
}
