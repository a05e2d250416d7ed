package router

import (
	"time"

	"git.fiblab.net/sim/reachability/router/geo"
)

// 原始输入数据，在ingestion边界做校验，非法记录跳过不传播

// 原始车站记录
type RawStation struct {
	ID    string   `json:"id" bson:"id"`
	Lon   float64  `json:"lon" bson:"lon"`
	Lat   float64  `json:"lat" bson:"lat"`
	Lines []string `json:"lines" bson:"lines"`
	// 是否是多站换乘枢纽，由数据源显式标注
	Hub bool `json:"hub" bson:"hub"`
}

// 原始线路记录，站点顺序即拓扑
type RawLine struct {
	Code     string   `json:"code" bson:"code"`
	Stations []string `json:"stations" bson:"stations"`
}

// 预计算时刻表边（按出发站组织），缺失时退化为测地距离+均速估计
type RawTimetableEdge struct {
	To      string  `json:"to" bson:"to"`
	Line    string  `json:"line" bson:"line"`
	Minutes float64 `json:"minutes" bson:"minutes"`
}

// 完整数据集
type Dataset struct {
	Version   string                        `json:"version" bson:"version"`
	Stations  []RawStation                  `json:"stations" bson:"stations"`
	Lines     []RawLine                     `json:"lines" bson:"lines"`
	Timetable map[string][]RawTimetableEdge `json:"timetable,omitempty" bson:"timetable,omitempty"`
}

type Station struct {
	ID    string
	Point geo.Point
	// 服务线路（去重排序）
	Lines []string
	Hub   bool
}

type Line struct {
	Code string
	// 过滤未知车站后的有序站点
	Stations []string
}

// 有向图边，构建时保证对称补全：存在A->B则必有B->A
type GraphEdge struct {
	To      string  `json:"to" bson:"to"`
	Line    string  `json:"line" bson:"line"`
	Minutes float64 `json:"minutes" bson:"minutes"`
	Meters  float64 `json:"meters" bson:"meters"`
}

// 单个可达车站的最短路结果
type PathResult struct {
	StationID string   `json:"stationId"`
	Minutes   float64  `json:"minutes"`
	Via       []string `json:"via"`
	// 途经线路（有序去重，连续重复合并）
	Lines []string `json:"lines"`
}

// 可达性过滤结果
type ProximityResult struct {
	StationIDs []string `json:"stationIds"`
	LineCodes  []string `json:"lineCodes"`
}

// 离线预计算的点对点行程
type StaticJourney struct {
	From    string  `json:"from" bson:"from"`
	To      string  `json:"to" bson:"to"`
	Minutes float64 `json:"minutes" bson:"minutes"`
	// 数据来源标签（timetable/heuristic/self/reverse）
	Source string `json:"source" bson:"source"`
}

// 持久化的静态行程缓存产物
type JourneyArtifact struct {
	GeneratedAt time.Time       `json:"generatedAt" bson:"generatedAt"`
	Tag         string          `json:"tag" bson:"tag"`
	Edges       []EdgeRecord    `json:"edges" bson:"edges"`
	Journeys    []StaticJourney `json:"journeys" bson:"journeys"`
}

// 产物中的扁平边记录
type EdgeRecord struct {
	From    string  `json:"from" bson:"from"`
	To      string  `json:"to" bson:"to"`
	Line    string  `json:"line" bson:"line"`
	Minutes float64 `json:"minutes" bson:"minutes"`
}

// 模型参数
type Params struct {
	// 均速（mph），启发式边权退化用
	AvgSpeedMPH float64
	// 每站停靠时间（分钟）
	StopDwellMin float64
	// 首次上车等待罚时（分钟）
	BoardingWaitMin float64
	// 换线步行罚时（分钟）
	TransferWalkMin float64
	// 枢纽站换线额外步行罚时（分钟）
	HubWalkMin float64
}

// 默认参数，除均速外都是拍脑袋定的
func DefaultParams() Params {
	return Params{
		AvgSpeedMPH:     22,
		StopDwellMin:    0.5,
		BoardingWaitMin: 3,
		TransferWalkMin: 5,
		HubWalkMin:      2,
	}
}
