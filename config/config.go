// 模型参数配置，YAML文件缺省时使用默认值
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// 可达性模型参数
type ModelConfig struct {
	// 启发式回退均速（mph）
	AvgSpeedMPH float64 `yaml:"averageSpeedMPH" validate:"gt=0"`
	// 每站停靠时间（分钟）
	StopDwellMin float64 `yaml:"stopDwellMinutes" validate:"gte=0"`
	// 上车等待罚时（分钟）
	BoardingWaitMin float64 `yaml:"boardingWaitMinutes" validate:"gte=0"`
	// 换乘步行罚时（分钟）
	TransferWalkMin float64 `yaml:"transferWalkMinutes" validate:"gte=0"`
	// 枢纽站换乘额外罚时（分钟）
	HubWalkMin float64 `yaml:"hubWalkMinutes" validate:"gte=0"`
}

// 响应缓存参数
type CacheConfig struct {
	// LRU缓存条目数，0为禁用
	ResponseSize int `yaml:"responseSize" validate:"gte=0"`
	// 缓存过期时间（秒）
	ResponseTTLSeconds int `yaml:"responseTTLSeconds" validate:"gte=0"`
}

// 离线生成参数
type GenerateConfig struct {
	// 上游请求并发数
	Workers int `yaml:"workers" validate:"gte=1"`
	// 单个请求的重试次数
	Retries int `yaml:"retries" validate:"gte=0"`
	// 重试初始退避（毫秒），指数增长
	BackoffMS int `yaml:"backoffMS" validate:"gte=0"`
	// 单源搜索预算上限（分钟）
	CeilingMinutes float64 `yaml:"ceilingMinutes" validate:"gt=0"`
}

type AppConfig struct {
	Model    ModelConfig    `yaml:"model"`
	Cache    CacheConfig    `yaml:"cache"`
	Generate GenerateConfig `yaml:"generate"`
}

// 默认配置，罚时数值是拍脑袋定的
func Default() AppConfig {
	return AppConfig{
		Model: ModelConfig{
			AvgSpeedMPH:     22,
			StopDwellMin:    0.5,
			BoardingWaitMin: 3,
			TransferWalkMin: 5,
			HubWalkMin:      2,
		},
		Cache: CacheConfig{
			ResponseSize:       10000,
			ResponseTTLSeconds: 300,
		},
		Generate: GenerateConfig{
			Workers:        4,
			Retries:        3,
			BackoffMS:      500,
			CeilingMinutes: 360,
		},
	}
}

// 加载配置文件并校验，path为空直接使用默认值
// 文件只覆盖出现的字段，其余保持默认
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	v := validator.New()
	if err := v.Struct(cfg.Model); err != nil {
		return cfg, fmt.Errorf("invalid model config: %w", err)
	}
	if err := v.Struct(cfg.Cache); err != nil {
		return cfg, fmt.Errorf("invalid cache config: %w", err)
	}
	if err := v.Struct(cfg.Generate); err != nil {
		return cfg, fmt.Errorf("invalid generate config: %w", err)
	}
	return cfg, nil
}
