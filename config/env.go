package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// ============================================================================
//                              环境变量
// ============================================================================

// EnvPrefix 环境变量前缀
const EnvPrefix = "CDNOPT_"

// 环境变量名（不含前缀）
const (
	EnvPreset       = "PRESET"
	EnvTimeoutMS    = "TIMEOUT_MS"
	EnvConcurrency  = "CONCURRENCY"
	EnvNetwork      = "NETWORK"
	EnvPort         = "PORT"
	EnvServerName   = "SERVER_NAME"
	EnvDispatchRate = "DISPATCH_RATE"
	EnvTopN         = "TOP"
	EnvLinksFile    = "OUTPUT_FILE"
	EnvFormat       = "FORMAT"
	EnvExclude      = "EXCLUDE"
	EnvMetricsFile  = "METRICS_FILE"
	EnvLogFile      = "LOG_FILE"
)

// ApplyEnv 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// 支持的环境变量（均使用 CDNOPT_ 前缀）：
//   - CDNOPT_PRESET: 预设名称（在其余变量之前应用）
//   - CDNOPT_TIMEOUT_MS: 单次探测超时（毫秒）
//   - CDNOPT_CONCURRENCY: 并发上限
//   - CDNOPT_NETWORK: 探测网络
//   - CDNOPT_PORT: 默认端口
//   - CDNOPT_SERVER_NAME: TLS 服务器名
//   - CDNOPT_DISPATCH_RATE: 每秒派发数
//   - CDNOPT_TOP: 输出链接数
//   - CDNOPT_OUTPUT_FILE: 链接输出文件
//   - CDNOPT_FORMAT: 报告格式
//   - CDNOPT_EXCLUDE: 排除的地址或 CIDR（逗号分隔）
//   - CDNOPT_METRICS_FILE: 指标 textfile 路径
//   - CDNOPT_LOG_FILE: 日志文件
//
// 无法解析的值一并返回错误。
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	get := func(name string) string {
		return strings.TrimSpace(getenv(EnvPrefix + name))
	}
	var err error

	if v := get(EnvPreset); v != "" {
		err = multierr.Append(err, ApplyPreset(cfg, v))
	}

	if v := get(EnvTimeoutMS); v != "" {
		if ms, perr := strconv.Atoi(v); perr == nil {
			cfg.Scheduler.Timeout = Duration(time.Duration(ms) * time.Millisecond)
		} else {
			err = multierr.Append(err, envError(EnvTimeoutMS, v))
		}
	}
	if v := get(EnvConcurrency); v != "" {
		if n, perr := strconv.Atoi(v); perr == nil {
			cfg.Scheduler.Concurrency = n
		} else {
			err = multierr.Append(err, envError(EnvConcurrency, v))
		}
	}
	if v := get(EnvDispatchRate); v != "" {
		if r, perr := strconv.ParseFloat(v, 64); perr == nil {
			cfg.Scheduler.DispatchRate = r
		} else {
			err = multierr.Append(err, envError(EnvDispatchRate, v))
		}
	}

	if v := get(EnvNetwork); v != "" {
		cfg.Probe.Network = v
	}
	if v := get(EnvPort); v != "" {
		if p, perr := strconv.Atoi(v); perr == nil {
			cfg.Probe.Port = p
		} else {
			err = multierr.Append(err, envError(EnvPort, v))
		}
	}
	if v := get(EnvServerName); v != "" {
		cfg.Probe.ServerName = v
	}

	if v := get(EnvTopN); v != "" {
		if n, perr := strconv.Atoi(v); perr == nil {
			cfg.Output.TopN = n
		} else {
			err = multierr.Append(err, envError(EnvTopN, v))
		}
	}
	if v := get(EnvLinksFile); v != "" {
		cfg.Output.LinksFile = v
	}
	if v := get(EnvFormat); v != "" {
		cfg.Output.Format = v
	}
	if v := get(EnvExclude); v != "" {
		cfg.Candidates.Exclude = SplitAndTrim(v, ",")
	}
	if v := get(EnvMetricsFile); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := get(EnvLogFile); v != "" {
		cfg.Log.File = v
	}

	return err
}

func envError(name, value string) error {
	return fmt.Errorf("invalid %s%s=%q", EnvPrefix, name, value)
}

// SplitAndTrim 分割字符串并去除空白
func SplitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
