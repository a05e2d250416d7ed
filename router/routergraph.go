package router

import (
	"sort"

	"git.fiblab.net/sim/reachability/router/algo"
	"git.fiblab.net/sim/reachability/router/geo"
)

const MINUTES_PER_HOUR = 60.0

// 构建好的车站图，构建后只读
type stationGraph struct {
	// 车站id -> 出边，对调用方只读
	adjacency map[string][]GraphEdge
	search    *algo.SearchGraph[string, GraphEdge]
	// 车站id -> search图中的节点下标
	nodeOf map[string]int
}

// 边权模型：边的运行时长加上线路变化产生的罚时
// prevLine为空表示从起点首次上车，只加上车等待
// 换线时加上车等待+换乘步行，枢纽站额外加枢纽步行
type stationEdgeWeight struct {
	params Params
}

func (w stationEdgeWeight) GetRuntimeEdgeWeight(e GraphEdge, minutes float64, prevLine string, atHub bool) float64 {
	cost := minutes
	if prevLine == "" {
		cost += w.params.BoardingWaitMin
	} else if prevLine != e.Line {
		cost += w.params.BoardingWaitMin + w.params.TransferWalkMin
		if atHub {
			cost += w.params.HubWalkMin
		}
	}
	return cost
}

func (w stationEdgeWeight) GetEdgeLine(e GraphEdge) string {
	return e.Line
}

// 惰性获取图，相同版本只构建一次
func (r *Router) graph() *stationGraph {
	g, _ := r.graphs.LoadOrCompute(r.version, func() *stationGraph {
		return r.buildStationGraph()
	})
	return g
}

// 启发式边权：测地距离按均速换算，加每站停靠
func (r *Router) heuristicMinutes(from, to *Station) float64 {
	return geo.Distance(from.Point, to.Point)/r.params.AvgSpeedMPH*MINUTES_PER_HOUR + r.params.StopDwellMin
}

// StationGraph 车站邻接图
// 优先使用预计算时刻表边，没有时刻表数据的出发站回退到距离+均速估计
func (r *Router) buildStationGraph() *stationGraph {
	adjacency := make(map[string][]GraphEdge)
	// (from,to,line)去重
	type edgeKey struct {
		from, to, line string
	}
	seen := make(map[edgeKey]int) // 在adjacency[from]中的下标
	addEdge := func(from string, e GraphEdge) {
		key := edgeKey{from, e.To, e.Line}
		if i, ok := seen[key]; ok {
			// 重复边保留用时更短者
			if e.Minutes < adjacency[from][i].Minutes {
				adjacency[from][i] = e
			}
			return
		}
		seen[key] = len(adjacency[from])
		adjacency[from] = append(adjacency[from], e)
	}

	// 预计算时刻表边，按出发站id排序保证构建顺序确定
	timetableOrigins := make(map[string]bool)
	if len(r.timetable) > 0 {
		origins := make([]string, 0, len(r.timetable))
		for origin := range r.timetable {
			origins = append(origins, origin)
		}
		sort.Strings(origins)
		for _, origin := range origins {
			from, ok := r.stations[origin]
			if !ok {
				r.stats.SkippedEdges += len(r.timetable[origin])
				log.Warnf("timetable origin %s is not a known station, skipped", origin)
				continue
			}
			timetableOrigins[origin] = true
			for _, raw := range r.timetable[origin] {
				to, ok := r.stations[raw.To]
				if !ok || raw.Line == "" || raw.Minutes < 0 {
					r.stats.SkippedEdges++
					log.Warnf("skip malformed timetable edge %s -> %+v", origin, raw)
					continue
				}
				addEdge(origin, GraphEdge{
					To:      raw.To,
					Line:    raw.Line,
					Minutes: raw.Minutes,
					Meters:  geo.DistanceMeters(from.Point, to.Point),
				})
			}
		}
	}

	// 启发式回退：沿线路拓扑逐站连边，双向
	for _, line := range r.lines {
		for i := 0; i+1 < len(line.Stations); i++ {
			u := r.stations[line.Stations[i]]
			v := r.stations[line.Stations[i+1]]
			minutes := r.heuristicMinutes(u, v)
			meters := geo.DistanceMeters(u.Point, v.Point)
			if !timetableOrigins[u.ID] {
				addEdge(u.ID, GraphEdge{To: v.ID, Line: line.Code, Minutes: minutes, Meters: meters})
			}
			if !timetableOrigins[v.ID] {
				addEdge(v.ID, GraphEdge{To: u.ID, Line: line.Code, Minutes: minutes, Meters: meters})
			}
		}
	}

	// 对称补全：A->B存在而B->A缺失时按同权合成反向边
	for _, from := range r.stationIDs {
		for _, e := range adjacency[from] {
			key := edgeKey{e.To, from, e.Line}
			if _, ok := seen[key]; !ok {
				seen[key] = len(adjacency[e.To])
				adjacency[e.To] = append(adjacency[e.To], GraphEdge{
					To:      from,
					Line:    e.Line,
					Minutes: e.Minutes,
					Meters:  e.Meters,
				})
			}
		}
	}

	// 构建搜索图
	search := algo.NewSearchGraph[string, GraphEdge](stationEdgeWeight{params: r.params})
	nodeOf := make(map[string]int, len(r.stationIDs))
	for _, id := range r.stationIDs {
		s := r.stations[id]
		nodeOf[id] = search.InitNode(s.Point, id, s.Hub)
	}
	edgeCount := 0
	for _, from := range r.stationIDs {
		for _, e := range adjacency[from] {
			search.InitEdge(nodeOf[from], nodeOf[e.To], e.Minutes, e)
			edgeCount++
		}
	}
	log.Debugf("station graph built: %d nodes, %d edges, %d timetable origins",
		len(r.stationIDs), edgeCount, len(timetableOrigins))
	return &stationGraph{adjacency: adjacency, search: search, nodeOf: nodeOf}
}

// 邻接表（车站id -> 出边），调用方只读
func (r *Router) Adjacency() map[string][]GraphEdge {
	return r.graph().adjacency
}
