package router

import (
	"sort"

	"git.fiblab.net/sim/reachability/router/geo"
	"github.com/samber/lo"
)

// ingestion阶段的跳过计数
type IngestStats struct {
	SkippedStations int // 非法车站记录
	SkippedLineRefs int // 线路引用未知车站
	SkippedEdges    int // 时刻表边引用未知车站
}

// 将Dataset转换为内部结构，非法记录跳过并计数，不作为错误传播
func initDataset(ds *Dataset) (
	stations map[string]*Station,
	stationIDs []string,
	lines []*Line,
	stats IngestStats,
) {
	stations = make(map[string]*Station)
	for _, raw := range ds.Stations {
		p := geo.Point{Lon: raw.Lon, Lat: raw.Lat}
		if raw.ID == "" || !geo.Valid(p) {
			stats.SkippedStations++
			log.Warnf("skip malformed station record %+v", raw)
			continue
		}
		if _, ok := stations[raw.ID]; ok {
			// 重复id，保留先到者
			stats.SkippedStations++
			log.Warnf("skip duplicated station id %s", raw.ID)
			continue
		}
		stations[raw.ID] = &Station{
			ID:    raw.ID,
			Point: p,
			Lines: append([]string(nil), raw.Lines...),
			Hub:   raw.Hub,
		}
	}

	lines = make([]*Line, 0, len(ds.Lines))
	for _, raw := range ds.Lines {
		if raw.Code == "" {
			stats.SkippedLineRefs += len(raw.Stations)
			log.Warnf("skip line record without code")
			continue
		}
		l := &Line{Code: raw.Code, Stations: make([]string, 0, len(raw.Stations))}
		for _, id := range raw.Stations {
			if _, ok := stations[id]; !ok {
				stats.SkippedLineRefs++
				log.Warnf("line %s references unknown station %s, skipped", raw.Code, id)
				continue
			}
			l.Stations = append(l.Stations, id)
		}
		lines = append(lines, l)
		// 车站服务线路补全拓扑中出现的线路
		for _, id := range l.Stations {
			stations[id].Lines = append(stations[id].Lines, l.Code)
		}
	}
	for _, s := range stations {
		s.Lines = lo.Uniq(s.Lines)
		sort.Strings(s.Lines)
	}

	stationIDs = lo.Keys(stations)
	sort.Strings(stationIDs)
	if stats.SkippedStations > 0 || stats.SkippedLineRefs > 0 {
		log.Warnf("dataset ingested with %d stations skipped, %d line refs skipped",
			stats.SkippedStations, stats.SkippedLineRefs)
	}
	return
}
