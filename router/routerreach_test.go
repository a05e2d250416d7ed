package router_test

import (
	"testing"

	"git.fiblab.net/sim/reachability/router"
	"github.com/stretchr/testify/assert"
)

// 赤道上经度差约0.01447度对应1英里
const mileDeg = 0.01447

// 无罚时参数，只保留启发式边权本身
func noPenaltyParams() router.Params {
	return router.Params{AvgSpeedMPH: 22, StopDwellMin: 0.5}
}

// 一条线路上等距的三个车站A-B-C
func singleLineDataset() *router.Dataset {
	return &router.Dataset{
		Version: "test-v1",
		Stations: []router.RawStation{
			{ID: "A", Lon: 0, Lat: 0},
			{ID: "B", Lon: mileDeg, Lat: 0},
			{ID: "C", Lon: 2 * mileDeg, Lat: 0},
		},
		Lines: []router.RawLine{
			{Code: "X", Stations: []string{"A", "B", "C"}},
		},
	}
}

// A-B在X线，B-C在Y线，B为换乘点
func twoLineDataset() *router.Dataset {
	return &router.Dataset{
		Version: "test-v2",
		Stations: []router.RawStation{
			{ID: "A", Lon: 0, Lat: 0},
			{ID: "B", Lon: mileDeg, Lat: 0},
			{ID: "C", Lon: 2 * mileDeg, Lat: 0},
		},
		Lines: []router.RawLine{
			{Code: "X", Stations: []string{"A", "B"}},
			{Code: "Y", Stations: []string{"B", "C"}},
		},
	}
}

func minutesTo(t *testing.T, results []router.PathResult, stationID string) float64 {
	t.Helper()
	for _, r := range results {
		if r.StationID == stationID {
			return r.Minutes
		}
	}
	t.Fatalf("station %s not reached", stationID)
	return 0
}

func TestSameLineAdditivity(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	fromA, err := r.ReachableFrom("A", 1000)
	assert.NoError(t, err)
	fromB, err := r.ReachableFrom("B", 1000)
	assert.NoError(t, err)

	// 同线路无换乘罚时，用时严格可加
	ab := minutesTo(t, fromA, "B")
	bc := minutesTo(t, fromB, "C")
	ac := minutesTo(t, fromA, "C")
	assert.Equal(t, ab+bc, ac)
	// 启发式边权约为 1mi/22mph*60 + 0.5min停靠
	assert.InDelta(t, 1.0/22*60+0.5, ab, 0.01)

	// 途径路径与线路
	for _, p := range fromA {
		if p.StationID == "C" {
			assert.Equal(t, []string{"A", "B", "C"}, p.Via)
			assert.Equal(t, []string{"X"}, p.Lines)
		}
	}
}

func TestTransferPenaltyAtLineChange(t *testing.T) {
	params := noPenaltyParams()
	params.TransferWalkMin = 5
	r := router.New(twoLineDataset(), params)

	fromA, err := r.ReachableFrom("A", 1000)
	assert.NoError(t, err)
	fromB, err := r.ReachableFrom("B", 1000)
	assert.NoError(t, err)

	// B处换线，恰好多出换乘步行罚时
	ab := minutesTo(t, fromA, "B")
	bc := minutesTo(t, fromB, "C")
	ac := minutesTo(t, fromA, "C")
	assert.InDelta(t, ab+bc+5, ac, 1e-9)

	// 线路序列为换线后的两条
	for _, p := range fromA {
		if p.StationID == "C" {
			assert.Equal(t, []string{"X", "Y"}, p.Lines)
		}
	}
}

func TestBoardingAndHubPenalty(t *testing.T) {
	params := noPenaltyParams()
	params.BoardingWaitMin = 3
	params.TransferWalkMin = 5
	params.HubWalkMin = 2
	ds := twoLineDataset()
	// B标注为枢纽站
	ds.Stations[1].Hub = true
	r := router.New(ds, params)

	fromA, err := r.ReachableFrom("A", 1000)
	assert.NoError(t, err)

	rNoPenalty := router.New(twoLineDataset(), noPenaltyParams())
	plain, err := rNoPenalty.ReachableFrom("A", 1000)
	assert.NoError(t, err)

	// 首次上车只加上车等待
	assert.InDelta(t, minutesTo(t, plain, "B")+3, minutesTo(t, fromA, "B"), 1e-9)
	// B处换线：第二次上车等待+换乘步行+枢纽步行
	assert.InDelta(t, minutesTo(t, plain, "C")+3+(3+5+2), minutesTo(t, fromA, "C"), 1e-9)
}

func TestZeroBudgetYieldsEmpty(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	results, err := r.ReachableFrom("A", 0)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestBudgetBoundsReportedMinutes(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	// 预算恰好容纳A->B
	budget := 1.0/22*60 + 0.6
	results, err := r.ReachableFrom("A", budget)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	for _, p := range results {
		assert.LessOrEqual(t, p.Minutes, budget)
	}
}

func TestDurationMonotonicity(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	small, err := r.FilterByDuration("A", 4)
	assert.NoError(t, err)
	large, err := r.FilterByDuration("A", 1000)
	assert.NoError(t, err)

	// 预算增大可达集合只增不减
	assert.Subset(t, large.StationIDs, small.StationIDs)
	assert.Equal(t, []string{"B", "C"}, large.StationIDs)
}

func TestUnknownOriginIsError(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	_, err := r.ReachableFrom("ZZZ", 10)
	assert.Error(t, err)
}

func TestDeterministicResults(t *testing.T) {
	first, err := router.New(twoLineDataset(), noPenaltyParams()).ReachableFrom("A", 1000)
	assert.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := router.New(twoLineDataset(), noPenaltyParams()).ReachableFrom("A", 1000)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
