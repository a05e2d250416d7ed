package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.fiblab.net/sim/reachability/router"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MONGO_TIMEOUT = 30 * time.Second

func newMongoClient(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), MONGO_TIMEOUT)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	return client, nil
}

func getMongoColl(client *mongo.Client, path *Path) *mongo.Collection {
	return client.Database(path.DB).Collection(path.Coll)
}

// 带磁盘缓存加载：文件地址直接读，mongo地址优先读缓存，未命中下载后写缓存
func loadWithCache[T any](cacheDir string, path *Path, download func() (*T, error)) (*T, error) {
	if path.IsFile() {
		data, err := os.ReadFile(path.File)
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path.File, err)
		}
		return &v, nil
	}
	var cacheFile string
	if cacheDir != "" {
		cacheFile = filepath.Join(cacheDir, path.GetCachePath())
		if data, err := os.ReadFile(cacheFile); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				log.Debugf("loaded %s from cache %s", path, cacheFile)
				return &v, nil
			}
			// 缓存损坏，重新下载
			log.Warnf("broken cache %s, re-downloading", cacheFile)
		}
	}
	v, err := download()
	if err != nil {
		return nil, err
	}
	if cacheFile != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(cacheFile, data, 0o644); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// mongo中按class标注的数据集文档
type classDoc struct {
	Class string   `bson:"class"`
	Data  bson.Raw `bson:"data"`
}

type metaDoc struct {
	Version string `bson:"version"`
}

type timetableDoc struct {
	Origin string                    `bson:"origin"`
	Edges  []router.RawTimetableEdge `bson:"edges"`
}

func downloadDatasetFromMongo(client *mongo.Client, path *Path) (*router.Dataset, error) {
	ctx, cancel := context.WithTimeout(context.Background(), MONGO_TIMEOUT)
	defer cancel()
	cur, err := getMongoColl(client, path).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	ds := &router.Dataset{Timetable: make(map[string][]router.RawTimetableEdge)}
	for cur.Next(ctx) {
		var doc classDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		// 非法文档跳过，与ingestion边界同策略
		switch doc.Class {
		case "meta":
			var meta metaDoc
			if err := bson.Unmarshal(doc.Data, &meta); err != nil {
				log.Warnf("skip malformed meta doc: %v", err)
				continue
			}
			ds.Version = meta.Version
		case "station":
			var s router.RawStation
			if err := bson.Unmarshal(doc.Data, &s); err != nil {
				log.Warnf("skip malformed station doc: %v", err)
				continue
			}
			ds.Stations = append(ds.Stations, s)
		case "line":
			var l router.RawLine
			if err := bson.Unmarshal(doc.Data, &l); err != nil {
				log.Warnf("skip malformed line doc: %v", err)
				continue
			}
			ds.Lines = append(ds.Lines, l)
		case "timetable":
			var tt timetableDoc
			if err := bson.Unmarshal(doc.Data, &tt); err != nil {
				log.Warnf("skip malformed timetable doc: %v", err)
				continue
			}
			ds.Timetable[tt.Origin] = append(ds.Timetable[tt.Origin], tt.Edges...)
		default:
			log.Warnf("skip doc with unknown class %q", doc.Class)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(ds.Timetable) == 0 {
		ds.Timetable = nil
	}
	return ds, nil
}

// 加载数据集，地址为{fspath}或{db}.{col}
func LoadDataset(mongoURI string, path *Path, cacheDir string) (*router.Dataset, error) {
	if path == nil {
		return nil, fmt.Errorf("dataset path is empty")
	}
	return loadWithCache(cacheDir, path, func() (*router.Dataset, error) {
		client, err := newMongoClient(mongoURI)
		if err != nil {
			return nil, err
		}
		defer client.Disconnect(context.Background())
		return downloadDatasetFromMongo(client, path)
	})
}

// 加载静态行程缓存产物，mongo中为单文档
func LoadArtifact(mongoURI string, path *Path, cacheDir string) (*router.JourneyArtifact, error) {
	if path == nil {
		return nil, fmt.Errorf("artifact path is empty")
	}
	return loadWithCache(cacheDir, path, func() (*router.JourneyArtifact, error) {
		client, err := newMongoClient(mongoURI)
		if err != nil {
			return nil, err
		}
		defer client.Disconnect(context.Background())
		ctx, cancel := context.WithTimeout(context.Background(), MONGO_TIMEOUT)
		defer cancel()
		var artifact router.JourneyArtifact
		if err := getMongoColl(client, path).FindOne(ctx, bson.M{}).Decode(&artifact); err != nil {
			return nil, fmt.Errorf("failed to load artifact from %s: %w", path, err)
		}
		return &artifact, nil
	})
}

// 写出静态行程缓存产物，文件地址写JSON，mongo地址整体替换单文档
func SaveArtifact(mongoURI string, path *Path, artifact *router.JourneyArtifact) error {
	if path == nil {
		return fmt.Errorf("artifact path is empty")
	}
	if path.IsFile() {
		data, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path.File, data, 0o644)
	}
	client, err := newMongoClient(mongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), MONGO_TIMEOUT)
	defer cancel()
	coll := getMongoColl(client, path)
	if err := coll.Drop(ctx); err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, artifact); err != nil {
		return err
	}
	return nil
}
