package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/yaml"
)

// Load 从文件加载配置
//
// 文件可以是 YAML 或 JSON，未出现的字段保留默认值，未知字段报错。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FromYAML 从 YAML（或 JSON）数据创建配置
//
// 示例:
//
//	probe:
//	  network: tls
//	scheduler:
//	  timeout: 1500ms
//	  concurrency: 200
//	candidates:
//	  exclude: ["104.16.0.0/24"]
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Marshal 将配置序列化为 YAML
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// ============================================================================
//                              预设
// ============================================================================

// 预设名称
const (
	PresetDefault = "default"
	PresetFast    = "fast"
	PresetGentle  = "gentle"
	PresetAuto    = "auto"
)

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "default": 默认值
//   - "fast": 短超时、高并发，适合大列表初筛
//   - "gentle": 低并发并限速，适合受限网络或避免触发风控
//   - "auto": 默认超时，并发上限按本机内存推算
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "", PresetDefault:
		cfg.Scheduler = DefaultSchedulerConfig()
	case PresetFast:
		cfg.Scheduler.Timeout = Duration(time.Second)
		cfg.Scheduler.Concurrency = 512
		cfg.Scheduler.DispatchRate = 0
	case PresetGentle:
		cfg.Scheduler.Timeout = Duration(DefaultTimeout)
		cfg.Scheduler.Concurrency = 16
		cfg.Scheduler.DispatchRate = 20
		cfg.Scheduler.DispatchBurst = 5
	case PresetAuto:
		cfg.Scheduler.Timeout = Duration(DefaultTimeout)
		cfg.Scheduler.Concurrency = AutoConcurrency()
		cfg.Scheduler.DispatchRate = 0
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}

// CloneConfig 深拷贝配置
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	out := *cfg
	out.Probe.ALPN = append([]string(nil), cfg.Probe.ALPN...)
	out.Candidates.Exclude = append([]string(nil), cfg.Candidates.Exclude...)
	return &out
}
