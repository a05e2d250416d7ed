package router

import (
	"sort"
	"time"
)

const (
	// 行程来源标签
	SOURCE_TIMETABLE = "timetable"
	SOURCE_HEURISTIC = "heuristic"
	SOURCE_SELF      = "self"
	SOURCE_REVERSE   = "reverse"
)

type journeyKey struct {
	from, to string
}

// 静态行程缓存，启动时加载一次，之后只读
type JourneyTable struct {
	journeys    map[journeyKey]StaticJourney
	generatedAt time.Time
	tag         string
}

func NewJourneyTable(artifact *JourneyArtifact) *JourneyTable {
	t := &JourneyTable{
		journeys:    make(map[journeyKey]StaticJourney, len(artifact.Journeys)),
		generatedAt: artifact.GeneratedAt,
		tag:         artifact.Tag,
	}
	for _, j := range artifact.Journeys {
		t.journeys[journeyKey{j.From, j.To}] = j
	}
	log.Infof("journey table loaded: %d journeys, tag %s, generated at %s",
		len(t.journeys), t.tag, t.generatedAt.Format(time.RFC3339))
	return t
}

func (t *JourneyTable) GeneratedAt() time.Time {
	return t.generatedAt
}

func (t *JourneyTable) Tag() string {
	return t.tag
}

func (t *JourneyTable) Len() int {
	return len(t.journeys)
}

// O(1)查找，起终点相同恒返回0，正向缺失时按对称假设合成反向
func (t *JourneyTable) Lookup(fromID, toID string) (StaticJourney, bool) {
	if fromID == toID {
		return StaticJourney{From: fromID, To: toID, Minutes: 0, Source: SOURCE_SELF}, true
	}
	if j, ok := t.journeys[journeyKey{fromID, toID}]; ok {
		return j, true
	}
	if j, ok := t.journeys[journeyKey{toID, fromID}]; ok {
		return StaticJourney{From: fromID, To: toID, Minutes: j.Minutes, Source: SOURCE_REVERSE}, true
	}
	return StaticJourney{}, false
}

// 以每个车站为起点跑预算上限内的单源最短路，生成静态行程缓存产物
// sourceOf返回该出发站行程的来源标签（时刻表或启发式回退）
func (r *Router) BuildJourneyArtifact(ceilingMinutes float64, tag string, sourceOf func(originID string) string) (*JourneyArtifact, error) {
	artifact := &JourneyArtifact{
		GeneratedAt: time.Now().UTC(),
		Tag:         tag,
		Edges:       make([]EdgeRecord, 0),
		Journeys:    make([]StaticJourney, 0),
	}
	adjacency := r.Adjacency()
	for _, from := range r.stationIDs {
		for _, e := range adjacency[from] {
			artifact.Edges = append(artifact.Edges, EdgeRecord{
				From: from, To: e.To, Line: e.Line, Minutes: e.Minutes,
			})
		}
	}
	for _, origin := range r.stationIDs {
		source := SOURCE_HEURISTIC
		if sourceOf != nil {
			source = sourceOf(origin)
		}
		paths, err := r.ReachableFrom(origin, ceilingMinutes)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			artifact.Journeys = append(artifact.Journeys, StaticJourney{
				From: origin, To: p.StationID, Minutes: p.Minutes, Source: source,
			})
		}
	}
	sort.Slice(artifact.Journeys, func(i, j int) bool {
		if artifact.Journeys[i].From == artifact.Journeys[j].From {
			return artifact.Journeys[i].To < artifact.Journeys[j].To
		}
		return artifact.Journeys[i].From < artifact.Journeys[j].From
	})
	return artifact, nil
}
