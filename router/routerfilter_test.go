package router_test

import (
	"fmt"
	"testing"

	"git.fiblab.net/sim/reachability/router"
	"git.fiblab.net/sim/reachability/router/geo"
	"github.com/stretchr/testify/assert"
)

func TestFilterByRadiusBoundary(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())
	origin := geo.Point{Lon: 0, Lat: 0}
	b, _ := r.Station("B")
	d := geo.Distance(origin, b.Point) // 约1英里处的B站

	// 半径恰好等于距离，含边界
	included := r.FilterByRadius(origin, d)
	assert.Contains(t, included.StationIDs, "B")
	// 半径略小则排除
	excluded := r.FilterByRadius(origin, d*0.98)
	assert.NotContains(t, excluded.StationIDs, "B")
}

func TestFilterByRadiusLines(t *testing.T) {
	r := router.New(twoLineDataset(), noPenaltyParams())

	// 覆盖全网，线路并集去重排序
	all := r.FilterByRadius(geo.Point{Lon: 0, Lat: 0}, 100)
	assert.Equal(t, []string{"A", "B", "C"}, all.StationIDs)
	assert.Equal(t, []string{"X", "Y"}, all.LineCodes)
}

func TestFilterByRadiusDegenerate(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	// 非法输入返回空结果而非错误
	assert.Empty(t, r.FilterByRadius(geo.Point{Lon: 0, Lat: 0}, 0).StationIDs)
	assert.Empty(t, r.FilterByRadius(geo.Point{Lon: 0, Lat: 0}, -1).StationIDs)
	assert.Empty(t, r.FilterByRadius(geo.Point{Lon: 500, Lat: 0}, 10).StationIDs)
}

func TestFilterByRadiusMonotonicity(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())
	origin := geo.Point{Lon: 0, Lat: 0}

	// 半径增大结果集合只增不减
	prev := []string{}
	for _, radius := range []float64{0.5, 1.2, 2.5, 50} {
		cur := r.FilterByRadius(origin, radius)
		assert.Subset(t, cur.StationIDs, prev, fmt.Sprintf("radius %v", radius))
		prev = cur.StationIDs
	}
	assert.Equal(t, []string{"A", "B", "C"}, prev)
}

func TestFilterByDurationDegenerate(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	res, err := r.FilterByDuration("A", 0)
	assert.NoError(t, err)
	assert.Empty(t, res.StationIDs)
	res, err = r.FilterByDuration("A", -5)
	assert.NoError(t, err)
	assert.Empty(t, res.StationIDs)

	// 未知起点车站是硬错误
	_, err = r.FilterByDuration("ZZZ", 10)
	assert.Error(t, err)
}

func TestFilterByDurationAt(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	// 自由坐标取最近入口车站（A附近）
	res, err := r.FilterByDurationAt(geo.Point{Lon: 0.001, Lat: 0.001}, 1000)
	assert.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, res.StationIDs)
	assert.Equal(t, []string{"X"}, res.LineCodes)

	// 非法坐标返回空
	res, err = r.FilterByDurationAt(geo.Point{Lon: 700, Lat: 0}, 1000)
	assert.NoError(t, err)
	assert.Empty(t, res.StationIDs)
}

func TestNearestStation(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	s, ok := r.NearestStation(geo.Point{Lon: mileDeg*2 + 0.001, Lat: 0})
	assert.True(t, ok)
	assert.Equal(t, "C", s.ID)

	// 远离所有包围盒时退化为全量扫描
	s, ok = r.NearestStation(geo.Point{Lon: 120, Lat: 45})
	assert.True(t, ok)
	assert.NotNil(t, s)

	// 空网络
	empty := router.New(&router.Dataset{Version: "empty"}, noPenaltyParams())
	_, ok = empty.NearestStation(geo.Point{Lon: 0, Lat: 0})
	assert.False(t, ok)
}
