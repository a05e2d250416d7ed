package router

import (
	"math"
	"sort"

	"git.fiblab.net/sim/reachability/router/geo"
	"github.com/samber/lo"
)

const (
	// 每纬度英里数（略取小，保证包围盒不漏候选）
	MILES_PER_DEG = 69.0
	// 接近极点时经度包围盒退化为全范围的阈值
	MIN_COS_LAT = 0.01
)

// 匹配车站集合服务的线路并集，去重排序
func (r *Router) linesOf(stationIDs []string) []string {
	lines := make([]string, 0)
	for _, id := range stationIDs {
		lines = append(lines, r.stations[id].Lines...)
	}
	lines = lo.Uniq(lines)
	sort.Strings(lines)
	return lines
}

// 半径模式：到origin测地距离不超过radiusMiles（含边界）的车站
// 先用空间索引取包围盒候选，再用haversine精确校验
func (r *Router) FilterByRadius(origin geo.Point, radiusMiles float64) ProximityResult {
	result := ProximityResult{StationIDs: []string{}, LineCodes: []string{}}
	if radiusMiles <= 0 || !geo.Valid(origin) {
		// 非法输入，返回空结果
		return result
	}
	latDelta := radiusMiles / MILES_PER_DEG
	lonDelta := 180.0
	if cosLat := math.Cos(origin.Lat * math.Pi / 180); cosLat > MIN_COS_LAT {
		lonDelta = radiusMiles / (MILES_PER_DEG * cosLat)
	}
	r.tree.Search(
		[2]float64{origin.Lon - lonDelta, origin.Lat - latDelta},
		[2]float64{origin.Lon + lonDelta, origin.Lat + latDelta},
		func(min, max [2]float64, data interface{}) bool {
			s := data.(*Station)
			if geo.Distance(origin, s.Point) <= radiusMiles {
				result.StationIDs = append(result.StationIDs, s.ID)
			}
			return true
		},
	)
	sort.Strings(result.StationIDs)
	result.LineCodes = r.linesOf(result.StationIDs)
	return result
}

// 时间模式：从origin车站出发maxMinutes内可达的车站
func (r *Router) FilterByDuration(originID string, maxMinutes float64) (ProximityResult, error) {
	result := ProximityResult{StationIDs: []string{}, LineCodes: []string{}}
	if maxMinutes <= 0 {
		return result, nil
	}
	paths, err := r.ReachableFrom(originID, maxMinutes)
	if err != nil {
		return result, err
	}
	for _, p := range paths {
		result.StationIDs = append(result.StationIDs, p.StationID)
	}
	sort.Strings(result.StationIDs)
	result.LineCodes = r.linesOf(result.StationIDs)
	return result, nil
}

// 时间模式（自由坐标）：以最近入口车站为起点
func (r *Router) FilterByDurationAt(origin geo.Point, maxMinutes float64) (ProximityResult, error) {
	result := ProximityResult{StationIDs: []string{}, LineCodes: []string{}}
	if !geo.Valid(origin) || maxMinutes <= 0 {
		return result, nil
	}
	entry, ok := r.NearestStation(origin)
	if !ok {
		// 空网络
		return result, nil
	}
	return r.FilterByDuration(entry.ID, maxMinutes)
}

// 距离p最近的车站，包围盒逐级扩大，距离相同按id取小保证确定
func (r *Router) NearestStation(p geo.Point) (*Station, bool) {
	if len(r.stationIDs) == 0 || !geo.Valid(p) {
		return nil, false
	}
	var best *Station
	bestDistance := math.Inf(0)
	scan := func(radiusMiles float64) {
		candidates := r.FilterByRadius(p, radiusMiles)
		for _, id := range candidates.StationIDs {
			s := r.stations[id]
			if d := geo.Distance(p, s.Point); d < bestDistance {
				best = s
				bestDistance = d
			}
		}
	}
	for radius := 0.5; radius <= 64; radius *= 2 {
		scan(radius)
		if best != nil {
			return best, true
		}
	}
	// 包围盒内没有车站，退化为全量扫描
	for _, id := range r.stationIDs {
		s := r.stations[id]
		if d := geo.Distance(p, s.Point); d < bestDistance {
			best = s
			bestDistance = d
		}
	}
	return best, best != nil
}
