package router_test

import (
	"testing"
	"time"

	"git.fiblab.net/sim/reachability/router"
	"github.com/stretchr/testify/assert"
)

func TestJourneyTableLookup(t *testing.T) {
	table := router.NewJourneyTable(&router.JourneyArtifact{
		GeneratedAt: time.Now(),
		Tag:         "test",
		Journeys: []router.StaticJourney{
			{From: "A", To: "B", Minutes: 7, Source: router.SOURCE_TIMETABLE},
		},
	})

	// 正向命中
	j, ok := table.Lookup("A", "B")
	assert.True(t, ok)
	assert.Equal(t, 7.0, j.Minutes)
	assert.Equal(t, router.SOURCE_TIMETABLE, j.Source)

	// 反向缺失时按对称假设合成
	j, ok = table.Lookup("B", "A")
	assert.True(t, ok)
	assert.Equal(t, 7.0, j.Minutes)
	assert.Equal(t, router.SOURCE_REVERSE, j.Source)

	// 缺失表示为absence
	_, ok = table.Lookup("A", "Z")
	assert.False(t, ok)
}

func TestJourneyTableSelfLookup(t *testing.T) {
	// 空表也恒定返回0
	table := router.NewJourneyTable(&router.JourneyArtifact{Tag: "empty"})

	j, ok := table.Lookup("X", "X")
	assert.True(t, ok)
	assert.Equal(t, 0.0, j.Minutes)
	assert.Equal(t, router.SOURCE_SELF, j.Source)
}

func TestBuildJourneyArtifact(t *testing.T) {
	r := router.New(singleLineDataset(), noPenaltyParams())

	artifact, err := r.BuildJourneyArtifact(1000, "run-1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "run-1", artifact.Tag)
	assert.False(t, artifact.GeneratedAt.IsZero())
	// 3站全联通：3*2个有序对
	assert.Len(t, artifact.Journeys, 6)
	// 边表与邻接表一致（A-B、B-C双向）
	assert.Len(t, artifact.Edges, 4)

	table := router.NewJourneyTable(artifact)
	j, ok := table.Lookup("A", "C")
	assert.True(t, ok)
	assert.Equal(t, router.SOURCE_HEURISTIC, j.Source)

	// 行程用时与在线solver一致
	paths, err := r.ReachableFrom("A", 1000)
	assert.NoError(t, err)
	for _, p := range paths {
		j, ok := table.Lookup("A", p.StationID)
		assert.True(t, ok)
		assert.Equal(t, p.Minutes, j.Minutes)
	}
}

func TestBuildJourneyArtifactSourceLabels(t *testing.T) {
	ds := singleLineDataset()
	ds.Timetable = map[string][]router.RawTimetableEdge{
		"A": {{To: "B", Line: "X", Minutes: 2}},
	}
	r := router.New(ds, noPenaltyParams())

	artifact, err := r.BuildJourneyArtifact(1000, "run-2", func(originID string) string {
		if originID == "A" {
			return router.SOURCE_TIMETABLE
		}
		return router.SOURCE_HEURISTIC
	})
	assert.NoError(t, err)

	table := router.NewJourneyTable(artifact)
	j, _ := table.Lookup("A", "C")
	assert.Equal(t, router.SOURCE_TIMETABLE, j.Source)
	j, _ = table.Lookup("B", "C")
	assert.Equal(t, router.SOURCE_HEURISTIC, j.Source)
}
