package main

import (
	"flag"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"git.fiblab.net/sim/reachability/router/geo"
	"github.com/sirupsen/logrus"
)

var (
	benchmarkCount      = flag.Int("benchmark.count", 1000, "the random reachability query count for benchmark")
	benchmarkMaxMinutes = flag.Float64("benchmark.max_minutes", 60, "the max duration budget for benchmark queries")
	benchmarkSeed       = flag.Int64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkCPU        = flag.Int("benchmark.cpu", 1, "the cpu count for benchmark")
)

type benchmarkQuery struct {
	originID string
	minutes  float64
	radius   float64
	point    geo.Point
}

func runBenchmark(server *ReachabilityServer) {
	log.Logger.SetLevel(logrus.WarnLevel)
	// 设置随机种子
	e := rand.New(rand.NewSource(*benchmarkSeed))
	r := server.router
	stationIDs := r.StationIDs()
	if len(stationIDs) == 0 {
		log.Fatalf("benchmark needs a non-empty dataset")
	}
	// 随机生成查询，起点与预算都是随机的
	queries := make([]benchmarkQuery, *benchmarkCount)
	for i := range queries {
		origin := stationIDs[e.Intn(len(stationIDs))]
		station, _ := r.Station(origin)
		queries[i] = benchmarkQuery{
			originID: origin,
			minutes:  e.Float64() * *benchmarkMaxMinutes,
			radius:   e.Float64() * 10,
			point:    station.Point,
		}
	}

	runOne := func(q benchmarkQuery) bool {
		duration, err := r.FilterByDuration(q.originID, q.minutes)
		if err != nil {
			log.Error("benchmark failed, err:", err)
			return false
		}
		radius := r.FilterByRadius(q.point, q.radius)
		return len(duration.StationIDs) > 0 || len(radius.StationIDs) > 0
	}

	// 开始benchmark
	start := time.Now()
	var wg sync.WaitGroup
	var success atomic.Int32
	if *benchmarkCPU == 1 {
		for _, q := range queries {
			if runOne(q) {
				success.Add(1)
			}
		}
	} else {
		// 设置cpu数量
		runtime.GOMAXPROCS(*benchmarkCPU)
		wg.Add(len(queries))
		for _, q := range queries {
			go func(q benchmarkQuery) {
				defer wg.Done()
				if runOne(q) {
					success.Add(1)
				}
			}(q)
		}
		wg.Wait()
	}
	timeCost := time.Since(start) * time.Duration(*benchmarkCPU)
	log.Error(
		"benchmark finished", "\n",
		"count:", *benchmarkCount, "\n",
		"time:", timeCost, "\n",
		"avg:", timeCost/time.Duration(*benchmarkCount), "\n",
		"success:", success.Load(), "\n",
	)
}
