package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"git.fiblab.net/sim/reachability/config"
	"git.fiblab.net/sim/reachability/router"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	generateOut = flag.String("generate.out", "", "journey artifact output [format: {fspath} or {db}.{col}]")

	HTTP_TIMEOUT = 15 * time.Second
)

// 上游时刻表API客户端，凭据来自环境变量
type timetableClient struct {
	base    string
	key     string
	client  *http.Client
	retries int
	backoff time.Duration
}

func newTimetableClient(gen config.GenerateConfig) *timetableClient {
	base := os.Getenv("TIMETABLE_API_BASE")
	if base == "" {
		return nil
	}
	return &timetableClient{
		base:    base,
		key:     os.Getenv("TIMETABLE_API_KEY"),
		client:  &http.Client{Timeout: HTTP_TIMEOUT},
		retries: gen.Retries,
		backoff: time.Duration(gen.BackoffMS) * time.Millisecond,
	}
}

func (c *timetableClient) fetchOnce(originID string) ([]router.RawTimetableEdge, error) {
	url := fmt.Sprintf("%s/timetable/%s", c.base, originID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned %s for %s", resp.Status, url)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var edges []router.RawTimetableEdge
	if err := json.Unmarshal(data, &edges); err != nil {
		return nil, err
	}
	return edges, nil
}

// 带指数退避的重试
func (c *timetableClient) Fetch(originID string) ([]router.RawTimetableEdge, error) {
	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		edges, err := c.fetchOnce(originID)
		if err == nil {
			return edges, nil
		}
		lastErr = err
		log.Debugf("fetch timetable for %s failed (attempt %d): %v", originID, attempt+1, err)
	}
	return nil, lastErr
}

// 离线批量生成静态行程缓存：
// 1. 有限并发拉取每个车站的时刻表边，失败重试后回退启发式并计数
// 2. 构建全图，从每个车站跑预算上限内的单源最短路
// 3. 产物写入文件或mongo
func runGenerate(cfg config.AppConfig, mongoURI string, datasetPath *Path, cacheDir string) {
	outPath, err := NewPath(*generateOut)
	if err != nil || outPath == nil {
		log.Fatalf("invalid generate output path %q: %v", *generateOut, err)
	}
	ds, err := LoadDataset(mongoURI, datasetPath, cacheDir)
	if err != nil {
		log.Fatalf("failed to load dataset from %s: %v", datasetPath, err)
	}
	params := paramsFromConfig(cfg.Model)
	base := router.New(ds, params)
	stationIDs := base.StationIDs()

	client := newTimetableClient(cfg.Generate)
	var fallbacks atomic.Int64
	if client == nil {
		// 无上游配置，整体启发式合成
		log.Warnf("TIMETABLE_API_BASE not set, all edges fall back to heuristic synthesis")
		fallbacks.Store(int64(len(stationIDs)))
	} else {
		fetched := make([][]router.RawTimetableEdge, len(stationIDs))
		g := &errgroup.Group{}
		g.SetLimit(cfg.Generate.Workers)
		for i, originID := range stationIDs {
			i, originID := i, originID
			g.Go(func() error {
				edges, err := client.Fetch(originID)
				if err != nil {
					// 重试耗尽，该站回退启发式，不中断批处理
					fallbacks.Add(1)
					log.Warnf("timetable fetch for %s failed after retries, falling back to heuristic: %v", originID, err)
					return nil
				}
				fetched[i] = edges
				return nil
			})
		}
		g.Wait()
		timetable := make(map[string][]router.RawTimetableEdge)
		for i, originID := range stationIDs {
			if fetched[i] != nil {
				timetable[originID] = fetched[i]
			}
		}
		if len(timetable) > 0 {
			ds.Timetable = timetable
		}
	}

	r := router.New(ds, params)
	tag := uuid.NewString()
	start := time.Now()
	artifact, err := r.BuildJourneyArtifact(cfg.Generate.CeilingMinutes, tag, func(originID string) string {
		if ds.Timetable != nil {
			if _, ok := ds.Timetable[originID]; ok {
				return router.SOURCE_TIMETABLE
			}
		}
		return router.SOURCE_HEURISTIC
	})
	if err != nil {
		log.Fatalf("failed to build journey artifact: %v", err)
	}
	if err := SaveArtifact(mongoURI, outPath, artifact); err != nil {
		log.Fatalf("failed to save journey artifact to %s: %v", outPath, err)
	}
	log.Infof("journey artifact generated: tag %s, %d journeys, %d edges, %d heuristic fallbacks, took %v",
		tag, len(artifact.Journeys), len(artifact.Edges), fallbacks.Load(), time.Since(start))
}
