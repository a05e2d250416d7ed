package algo

import (
	"container/heap"
	"sort"

	"git.fiblab.net/sim/reachability/router/geo"
	"github.com/samber/lo"
)

type node[NT any] struct {
	p    geo.Point
	attr NT
	hub  bool // 是否是换乘枢纽站
}

type outEdge[ET any] struct {
	to      int
	minutes float64
	attr    ET
}

// 单源预算剪枝搜索图
// 构建完成后节点与边不再变化，搜索期间只读，无并发问题
type SearchGraph[NT any, ET any] struct {
	// 邻接表，按插入顺序存储出边，保证搜索结果确定
	edges [][]outEdge[ET]
	// 节点坐标与属性
	nodes []node[NT]
	// 边权提取函数（含换乘罚时计算）
	w IEdgeWeight[ET]
}

type IEdgeWeight[ET any] interface {
	// 根据边属性计算进入该边的实际cost
	// prevLine为到达边起点所乘线路（空串表示从起点首次上车），atHub为边起点是否是枢纽站
	GetRuntimeEdgeWeight(attr ET, minutes float64, prevLine string, atHub bool) float64
	// 边所属线路
	GetEdgeLine(attr ET) string
}

func NewSearchGraph[NT any, ET any](w IEdgeWeight[ET]) *SearchGraph[NT, ET] {
	return &SearchGraph[NT, ET]{
		edges: make([][]outEdge[ET], 0),
		nodes: make([]node[NT], 0),
		w:     w,
	}
}

func (g *SearchGraph[NT, ET]) InitNode(p geo.Point, attr NT, hub bool) int {
	g.nodes = append(g.nodes, node[NT]{p: p, attr: attr, hub: hub})
	g.edges = append(g.edges, make([]outEdge[ET], 0))
	return len(g.nodes) - 1
}

func (g *SearchGraph[NT, ET]) InitEdge(from, to int, minutes float64, attr ET) {
	if from >= len(g.edges) {
		log.Panicf("from node %d >= len(g.edges) %d", from, len(g.edges))
	}
	if to >= len(g.nodes) {
		log.Panicf("to node %d >= len(g.nodes) %d", to, len(g.nodes))
	}
	if minutes < 0 {
		log.Panicf("negative edge minutes %v from %d to %d", minutes, from, to)
	}
	g.edges[from] = append(g.edges[from], outEdge[ET]{to: to, minutes: minutes, attr: attr})
}

func (g *SearchGraph[NT, ET]) NodeCount() int {
	return len(g.nodes)
}

func (g *SearchGraph[NT, ET]) NodeAttr(i int) NT {
	return g.nodes[i].attr
}

func (g *SearchGraph[NT, ET]) NodePoint(i int) geo.Point {
	return g.nodes[i].p
}

type PathItem[NT any, ET any] struct {
	NodeAttr NT
	EdgeAttr ET // 离开该节点所走的边，终点节点为零值
}

// 单源搜索结果
type ReachResult[NT any, ET any] struct {
	g        *SearchGraph[NT, ET]
	start    int
	cost     map[int]float64
	line     map[int]string // 到达该节点所乘线路
	cameFrom map[int]int
	viaAttr  map[int]ET // cameFrom[n]->n的边属性
}

// 预算内到达的节点下标（不含起点），升序
func (r *ReachResult[NT, ET]) Reached() []int {
	out := make([]int, 0, len(r.cost))
	for n := range r.cost {
		if n != r.start {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func (r *ReachResult[NT, ET]) Cost(n int) (float64, bool) {
	c, ok := r.cost[n]
	return c, ok
}

// 起点到n的路径，n不可达返回nil
func (r *ReachResult[NT, ET]) PathTo(n int) []PathItem[NT, ET] {
	if _, ok := r.cost[n]; !ok {
		return nil
	}
	pathBeforeReversed := []PathItem[NT, ET]{{NodeAttr: r.g.nodes[n].attr}}
	cur := n
	for cur != r.start {
		from := r.cameFrom[cur]
		pathBeforeReversed = append(pathBeforeReversed, PathItem[NT, ET]{
			NodeAttr: r.g.nodes[from].attr,
			EdgeAttr: r.viaAttr[cur],
		})
		cur = from
	}
	return lo.Reverse(pathBeforeReversed)
}

// Dijkstra单源最短路，累计cost超过maxCost的松弛在入堆前丢弃
// 搜索范围被限制在预算内子图，预算即终止保证
func (g *SearchGraph[NT, ET]) ReachableWithin(start int, maxCost float64) (*ReachResult[NT, ET], error) {
	if start < 0 || start >= len(g.nodes) {
		return nil, ErrNodeNotExists
	}
	res := &ReachResult[NT, ET]{
		g:        g,
		start:    start,
		cost:     make(map[int]float64),
		line:     make(map[int]string),
		cameFrom: make(map[int]int),
		viaAttr:  make(map[int]ET),
	}
	if maxCost < 0 {
		// 非法预算，返回空结果
		return res, nil
	}
	res.cost[start] = 0
	openSet := make(PriorityQueue, 1)
	openSetMap := make(map[int]*Item, 1) // node -> openSet item
	openSet[0] = &Item{Value: start, Priority: 0, Index: 0}
	openSetMap[start] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		item := heap.Pop(&openSet).(*Item)
		cur := item.Value
		delete(openSetMap, cur)
		if item.Priority > res.cost[cur] {
			// 过期的堆元素
			continue
		}
		curCost := res.cost[cur]
		curLine := res.line[cur]
		atHub := g.nodes[cur].hub
		for _, e := range g.edges[cur] {
			costTentative := curCost + g.w.GetRuntimeEdgeWeight(e.attr, e.minutes, curLine, atHub)
			if costTentative > maxCost {
				// 超出预算，剪枝
				continue
			}
			costNeighbor, visited := res.cost[e.to]
			if !visited || costTentative < costNeighbor {
				res.cost[e.to] = costTentative
				res.line[e.to] = g.w.GetEdgeLine(e.attr)
				res.cameFrom[e.to] = cur
				res.viaAttr[e.to] = e.attr
				if existing, ok := openSetMap[e.to]; ok {
					// 已在堆中，修改优先级
					existing.Priority = costTentative
					heap.Fix(&openSet, existing.Index)
				} else {
					newItem := &Item{Value: e.to, Priority: costTentative}
					heap.Push(&openSet, newItem)
					openSetMap[e.to] = newItem
				}
			}
		}
	}
	return res, nil
}
