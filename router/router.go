package router

import (
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/rtree"
)

var log = logrus.WithField("module", "router")

// 可达性查询引擎
// 图按数据集版本惰性构建一次，之后只读，数据集更换时整体重建（由调用方换新Router）
type Router struct {
	stations   map[string]*Station
	stationIDs []string // 排序后的车站id，保证遍历顺序确定
	lines      []*Line
	timetable  map[string][]RawTimetableEdge
	version    string
	params     Params
	stats      IngestStats

	// version -> 构建好的图，LoadOrCompute保证并发下只构建一次
	graphs *xsync.MapOf[string, *stationGraph]
	// 车站空间索引
	tree *rtree.RTree
}

func New(ds *Dataset, params Params) *Router {
	stations, stationIDs, lines, stats := initDataset(ds)
	r := &Router{
		stations:   stations,
		stationIDs: stationIDs,
		lines:      lines,
		timetable:  ds.Timetable,
		version:    ds.Version,
		params:     params,
		stats:      stats,
		graphs:     xsync.NewMapOf[string, *stationGraph](),
		tree:       &rtree.RTree{},
	}
	for _, id := range stationIDs {
		s := stations[id]
		r.tree.Insert(
			[2]float64{s.Point.Lon, s.Point.Lat},
			[2]float64{s.Point.Lon, s.Point.Lat},
			s,
		)
	}
	log.Infof("router created: %d stations, %d lines, dataset version %q",
		len(stationIDs), len(lines), ds.Version)
	return r
}

// getter

func (r *Router) Version() string {
	return r.version
}

func (r *Router) Params() Params {
	return r.params
}

func (r *Router) Stats() IngestStats {
	return r.stats
}

func (r *Router) HasStationID(id string) bool {
	_, ok := r.stations[id]
	return ok
}

func (r *Router) StationIDs() []string {
	return r.stationIDs
}

func (r *Router) Station(id string) (*Station, bool) {
	s, ok := r.stations[id]
	return s, ok
}

func (r *Router) Lines() []*Line {
	return r.lines
}

// close
func (r *Router) Close() {}
