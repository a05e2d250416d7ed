package router

import (
	"fmt"
)

// 从origin出发在maxMinutes预算内可达的全部车站（不含origin）
// 结果按车站id升序，相同输入输出完全一致
func (r *Router) ReachableFrom(originID string, maxMinutes float64) (results []PathResult, err error) {
	// panic recover
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("panic: ReachableFrom %v with input origin=%v, maxMinutes=%v", e, originID, maxMinutes)
			log.Errorln(err)
		}
	}()
	if _, ok := r.stations[originID]; !ok {
		return nil, fmt.Errorf("no origin station id: %v", originID)
	}
	g := r.graph()
	res, err := g.search.ReachableWithin(g.nodeOf[originID], maxMinutes)
	if err != nil {
		return nil, err
	}
	reached := res.Reached()
	results = make([]PathResult, 0, len(reached))
	for _, n := range reached {
		minutes, _ := res.Cost(n)
		path := res.PathTo(n)
		via := make([]string, 0, len(path))
		lines := make([]string, 0)
		for _, item := range path {
			via = append(via, item.NodeAttr)
			// 连续重复线路合并
			if item.EdgeAttr.Line != "" &&
				(len(lines) == 0 || lines[len(lines)-1] != item.EdgeAttr.Line) {
				lines = append(lines, item.EdgeAttr.Line)
			}
		}
		results = append(results, PathResult{
			StationID: g.search.NodeAttr(n),
			Minutes:   minutes,
			Via:       via,
			Lines:     lines,
		})
	}
	return results, nil
}
