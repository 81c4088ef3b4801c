package navmesh

import (
	"container/heap"
	"math"
)

// astar returns the cells from start to goal inclusive, or nil if goal is
// unreachable. Moves are 4-connected with unit cost.
func (m *Mesh) astar(start, goal cell) []cell {
	n := m.gridW * m.gridH
	startIdx, goalIdx := m.index(start), m.index(goal)
	if startIdx == goalIdx {
		return []cell{start}
	}

	cameFrom := make([]int, n)
	gScore := make([]float64, n)
	for i := range cameFrom {
		cameFrom[i] = -1
		gScore[i] = math.Inf(1)
	}
	gScore[startIdx] = 0

	open := &openSet{}
	heap.Init(open)
	heap.Push(open, &openItem{pos: start, f: heuristic(start, goal)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openItem).pos
		curIdx := m.index(cur)
		if curIdx == goalIdx {
			return m.reconstruct(cameFrom, startIdx, goalIdx)
		}
		for _, nb := range m.neighbors(cur) {
			idx := m.index(nb)
			if !m.walk[idx] {
				continue
			}
			g := gScore[curIdx] + 1
			if g < gScore[idx] {
				cameFrom[idx] = curIdx
				gScore[idx] = g
				heap.Push(open, &openItem{pos: nb, f: g + heuristic(nb, goal)})
			}
		}
	}
	return nil
}

func (m *Mesh) reconstruct(cameFrom []int, startIdx, goalIdx int) []cell {
	path := make([]cell, 0, 16)
	for cur := goalIdx; cur != -1; cur = cameFrom[cur] {
		path = append(path, cell{x: cur % m.gridW, z: cur / m.gridW})
		if cur == startIdx {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (m *Mesh) neighbors(c cell) []cell {
	out := make([]cell, 0, 4)
	if c.x > 0 {
		out = append(out, cell{x: c.x - 1, z: c.z})
	}
	if c.x < m.gridW-1 {
		out = append(out, cell{x: c.x + 1, z: c.z})
	}
	if c.z > 0 {
		out = append(out, cell{x: c.x, z: c.z - 1})
	}
	if c.z < m.gridH-1 {
		out = append(out, cell{x: c.x, z: c.z + 1})
	}
	return out
}

func heuristic(a, b cell) float64 {
	return math.Abs(float64(a.x-b.x)) + math.Abs(float64(a.z-b.z))
}

type openItem struct {
	pos   cell
	f     float64
	index int
}

type openSet []*openItem

func (o openSet) Len() int           { return len(o) }
func (o openSet) Less(i, j int) bool { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}

func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
