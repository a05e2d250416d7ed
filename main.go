package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"git.fiblab.net/sim/reachability/config"
)

var (
	// 配置信息
	mongoURI       = flag.String("mongo_uri", "", "mongo db uri")
	datasetPathStr = flag.String("dataset", "", "station network dataset [format: {fspath} or {db}.{col}]")
	journeyPathStr = flag.String("journeys", "", "static journey artifact, can be empty [format: {fspath} or {db}.{col}]")
	configPath     = flag.String("config", "", "model parameter config file (empty means defaults)")
	cacheDir       = flag.String("cache", "", "input cache dir path (empty means disable cache)")
	listenAddr     = flag.String("listen", "localhost:52111", "HTTP listening address")
	logLevel       = flag.String("log-level", "info", "log level [debug, info, warn, error, fatal, panic]")

	// 离线生成与性能测试
	generate  = flag.Bool("generate", false, "generate static journey artifact and exit")
	benchmark = flag.Bool("benchmark", false, "benchmark mode")
	pprofAddr = flag.String("pprof", "localhost:52112", "pprof listening address")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// 上游API凭据
	_ = godotenv.Load()
	flag.Parse()
	if level, ok := LOG_LEVELS[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", *logLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("invalid config: %s", err)
	}
	datasetPath, err := NewPath(*datasetPathStr)
	if err != nil {
		logrus.Fatalf("invalid dataset path: %s", err)
	}
	if datasetPath == nil {
		logrus.Fatalf("dataset path is required")
	}
	journeyPath, err := NewPath(*journeyPathStr)
	if err != nil {
		logrus.Fatalf("invalid journey artifact path: %s", err)
	}

	if *generate {
		// 离线生成静态行程缓存
		runGenerate(cfg, *mongoURI, datasetPath, *cacheDir)
		return
	}

	// 启动可达性服务
	server := NewReachabilityServer(cfg, *mongoURI, datasetPath, journeyPath, *cacheDir)

	if *pprofAddr != "" {
		// 启动pprof
		startHTTPDebugger(*pprofAddr)
	}

	if *benchmark {
		// 性能测试
		runBenchmark(server)
		return
	}

	// 使用HTTP/2 w.o. TLS
	s := &http.Server{
		Addr:    *listenAddr,
		Handler: h2c.NewHandler(server.Handler(), &http2.Server{}),
	}

	// 优雅退出
	// 创建监听退出chan
	signalCh := make(chan os.Signal, 1)
	//监听指定信号 ctrl+c kill
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Info("stopping...")
		go func() {
			<-signalCh
			os.Exit(1) // 强制结束
		}()
		// 退出HTTP服务
		s.Close()
		// 退出可达性服务
		server.Close()
		os.Exit(0)
	}()

	// 启动HTTP server
	log.Infof("server listening at %v", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to serve: %v", err)
	}
	time.Sleep(1 * time.Second) // 延迟等待"优雅退出"
	log.Info("reachability closes")
}
