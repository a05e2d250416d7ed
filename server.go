package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"git.fiblab.net/sim/reachability/config"
	"git.fiblab.net/sim/reachability/router"
	"git.fiblab.net/sim/reachability/router/geo"
	"github.com/bluele/gcache"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type ReachabilityServer struct {
	router   *router.Router
	journeys *router.JourneyTable // 可为空，此时不提供行程预览

	cfg          config.AppConfig
	mongoURI     string
	datasetPath  *Path
	journeysPath *Path
	cacheDir     string

	// 可达性响应缓存
	respCache gcache.Cache

	// 接口开启true或关闭false
	ok bool
	// 条件变量
	cond *sync.Cond
}

func paramsFromConfig(m config.ModelConfig) router.Params {
	return router.Params{
		AvgSpeedMPH:     m.AvgSpeedMPH,
		StopDwellMin:    m.StopDwellMin,
		BoardingWaitMin: m.BoardingWaitMin,
		TransferWalkMin: m.TransferWalkMin,
		HubWalkMin:      m.HubWalkMin,
	}
}

func NewReachabilityServer(
	cfg config.AppConfig,
	mongoURI string,
	datasetPath, journeysPath *Path,
	cacheDir string,
) *ReachabilityServer {
	s := &ReachabilityServer{
		cfg:          cfg,
		mongoURI:     mongoURI,
		datasetPath:  datasetPath,
		journeysPath: journeysPath,
		cacheDir:     cacheDir,
		ok:           true, cond: sync.NewCond(&sync.Mutex{}),
	}
	if cfg.Cache.ResponseSize > 0 {
		s.respCache = gcache.New(cfg.Cache.ResponseSize).
			LRU().
			Expiration(time.Duration(cfg.Cache.ResponseTTLSeconds) * time.Second).
			Build()
	}
	if err := s.load(); err != nil {
		log.Panicf("failed to load data: %v", err)
	}
	return s
}

func (s *ReachabilityServer) load() error {
	ds, err := LoadDataset(s.mongoURI, s.datasetPath, s.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to load dataset from %s: %w", s.datasetPath, err)
	}
	s.router = router.New(ds, paramsFromConfig(s.cfg.Model))
	if s.journeysPath != nil {
		artifact, err := LoadArtifact(s.mongoURI, s.journeysPath, s.cacheDir)
		if err != nil {
			// 静态缓存缺失只降级，不影响在线计算
			log.Warnf("journey artifact unavailable, journey lookups disabled: %v", err)
			s.journeys = nil
		} else {
			s.journeys = router.NewJourneyTable(artifact)
		}
	}
	return nil
}

func (s *ReachabilityServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/stations", s.handleStations)
	r.Get("/api/stations/{station}", s.handleStation)
	r.Get("/api/lines", s.handleLines)
	r.Get("/api/reachable/radius", s.handleRadius)
	r.Get("/api/reachable/time", s.handleTime)
	r.Get("/api/paths/{station}", s.handlePaths)
	r.Get("/api/journeys/{from}/{to}", s.handleJourney)

	r.Post("/admin/suspend", func(w http.ResponseWriter, req *http.Request) {
		s.Suspend()
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/admin/resume", func(w http.ResponseWriter, req *http.Request) {
		s.Resume()
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/admin/reload", func(w http.ResponseWriter, req *http.Request) {
		if err := s.Reload(); err != nil {
			httpError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// 暂停-恢复机制
func (s *ReachabilityServer) waitReady() {
	s.cond.L.Lock()
	for !s.ok {
		// 暂停中
		s.cond.Wait()
	}
	s.cond.L.Unlock()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func parseFloat(req *http.Request, name string) (float64, error) {
	v := req.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid query parameter %q: %s", name, v)
	}
	return f, nil
}

// 坐标量化到1e-4度（约11米）作为缓存key
func quantize(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func (s *ReachabilityServer) cached(key string, compute func() any) any {
	if s.respCache == nil {
		return compute()
	}
	if v, err := s.respCache.Get(key); err == nil {
		return v
	}
	v := compute()
	s.respCache.Set(key, v)
	return v
}

func (s *ReachabilityServer) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"version":  s.router.Version(),
		"stations": len(s.router.StationIDs()),
		"journeys": s.journeys != nil,
	})
}

type stationView struct {
	ID    string   `json:"id"`
	Lon   float64  `json:"lon"`
	Lat   float64  `json:"lat"`
	Lines []string `json:"lines"`
	Hub   bool     `json:"hub"`
}

func viewOf(s *router.Station) stationView {
	return stationView{ID: s.ID, Lon: s.Point.Lon, Lat: s.Point.Lat, Lines: s.Lines, Hub: s.Hub}
}

func (s *ReachabilityServer) handleStations(w http.ResponseWriter, req *http.Request) {
	s.waitReady()
	out := make([]stationView, 0, len(s.router.StationIDs()))
	for _, id := range s.router.StationIDs() {
		st, _ := s.router.Station(id)
		out = append(out, viewOf(st))
	}
	writeJSON(w, out)
}

func (s *ReachabilityServer) handleStation(w http.ResponseWriter, req *http.Request) {
	s.waitReady()
	id := chi.URLParam(req, "station")
	st, ok := s.router.Station(id)
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Sprintf("no station id: %v", id))
		return
	}
	writeJSON(w, viewOf(st))
}

type lineView struct {
	Code     string   `json:"code"`
	Stations []string `json:"stations"`
}

func (s *ReachabilityServer) handleLines(w http.ResponseWriter, req *http.Request) {
	s.waitReady()
	out := make([]lineView, 0, len(s.router.Lines()))
	for _, l := range s.router.Lines() {
		out = append(out, lineView{Code: l.Code, Stations: l.Stations})
	}
	writeJSON(w, out)
}

func (s *ReachabilityServer) handleRadius(w http.ResponseWriter, req *http.Request) {
	s.waitReady()
	lon, err := parseFloat(req, "lon")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	lat, err := parseFloat(req, "lat")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := parseFloat(req, "radius")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Debugf("filter by radius %v around (%v,%v)", radius, lon, lat)
	key := fmt.Sprintf("radius|%s|%.4f,%.4f,%.4f", s.router.Version(), quantize(lon), quantize(lat), radius)
	writeJSON(w, s.cached(key, func() any {
		return s.router.FilterByRadius(geo.Point{Lon: lon, Lat: lat}, radius)
	}))
}

func (s *ReachabilityServer) handleTime(w http.ResponseWriter, req *http.Request) {
	s.waitReady()
	minutes, err := parseFloat(req, "minutes")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if stationID := req.URL.Query().Get("station"); stationID != "" {
		if !s.router.HasStationID(stationID) {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("no station id: %v", stationID))
			return
		}
		log.Debugf("filter by duration %v from station %v", minutes, stationID)
		key := fmt.Sprintf("time|%s|%s|%.4f", s.router.Version(), stationID, minutes)
		writeJSON(w, s.cached(key, func() any {
			res, _ := s.router.FilterByDuration(stationID, minutes)
			return res
		}))
		return
	}
	lon, err := parseFloat(req, "lon")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	lat, err := parseFloat(req, "lat")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Debugf("filter by duration %v around (%v,%v)", minutes, lon, lat)
	key := fmt.Sprintf("timeAt|%s|%.4f,%.4f|%.4f", s.router.Version(), quantize(lon), quantize(lat), minutes)
	writeJSON(w, s.cached(key, func() any {
		res, _ := s.router.FilterByDurationAt(geo.Point{Lon: lon, Lat: lat}, minutes)
		return res
	}))
}

func (s *ReachabilityServer) handlePaths(w http.ResponseWriter, req *http.Request) {
	s.waitReady()
	originID := chi.URLParam(req, "station")
	minutes, err := parseFloat(req, "maxMinutes")
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.router.HasStationID(originID) {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("no origin station id: %v", originID))
		return
	}
	log.Debugf("search paths from %v within %v minutes", originID, minutes)
	key := fmt.Sprintf("paths|%s|%s|%.4f", s.router.Version(), originID, minutes)
	writeJSON(w, s.cached(key, func() any {
		results, err := s.router.ReachableFrom(originID, minutes)
		if err != nil {
			// 起点已校验，这里只可能是panic恢复
			log.Errorf("search failed: %v", err)
			return []router.PathResult{}
		}
		return results
	}))
}

func (s *ReachabilityServer) handleJourney(w http.ResponseWriter, req *http.Request) {
	s.waitReady()
	if s.journeys == nil {
		httpError(w, http.StatusServiceUnavailable, "journey table not loaded")
		return
	}
	from := chi.URLParam(req, "from")
	to := chi.URLParam(req, "to")
	j, ok := s.journeys.Lookup(from, to)
	if !ok {
		// 预算内不可达的行程表示为absence
		httpError(w, http.StatusNotFound, fmt.Sprintf("no journey from %v to %v", from, to))
		return
	}
	writeJSON(w, j)
}

// 暂停可达性服务
func (s *ReachabilityServer) Suspend() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = false
}

// 恢复可达性服务
func (s *ReachabilityServer) Resume() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = true
	s.cond.Broadcast()
}

// 重新加载数据集并整体重建图，期间接口暂停
func (s *ReachabilityServer) Reload() error {
	s.Suspend()
	defer s.Resume()
	if err := s.load(); err != nil {
		return err
	}
	if s.respCache != nil {
		s.respCache.Purge()
	}
	log.Infof("dataset reloaded, version %q", s.router.Version())
	return nil
}

// 关闭可达性服务
func (s *ReachabilityServer) Close() {
	s.router.Close()
}
