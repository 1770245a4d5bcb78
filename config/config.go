// Package config 提供 cdnopt 的统一配置
//
// 本包采用与组件对应的分段配置：
//   - Probe: 探测网络、默认端口与 TLS/QUIC 参数
//   - Scheduler: 超时、并发上限与派发限速
//   - Candidates: 候选列表加载选项
//   - Output: 报告与链接输出
//   - Metrics: Prometheus textfile 导出
//   - Log: 日志级别与格式
//
// 配置来源的优先级从低到高：默认值 < 预设 < 配置文件 < 环境变量 < 命令行参数。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	if err := config.ApplyPreset(cfg, "fast"); err != nil { ... }
//
//	// 从 YAML 或 JSON 文件加载
//	cfg, err := config.Load("cdnopt.yaml")
//
//	// 环境变量覆盖
//	err = config.ApplyEnv(cfg, os.Getenv)
package config

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// ============================================================================
//                              默认值
// ============================================================================

const (
	// DefaultTimeout 单次探测默认超时
	DefaultTimeout = 3 * time.Second

	// DefaultConcurrency 默认并发上限
	DefaultConcurrency = 100

	// DefaultTopN 默认输出的链接数
	DefaultTopN = 10

	// DefaultLinksFile 默认链接输出文件
	DefaultLinksFile = "optimized_nodes.txt"

	// DefaultMaxPerPrefix 每个 CIDR 默认展开的地址数
	DefaultMaxPerPrefix = 256
)

// ============================================================================
//                              Config
// ============================================================================

// Config 是 cdnopt 的完整配置结构
type Config struct {
	// Probe 探测配置
	Probe ProbeConfig `json:"probe"`

	// Scheduler 调度配置
	Scheduler SchedulerConfig `json:"scheduler"`

	// Candidates 候选列表配置
	Candidates CandidatesConfig `json:"candidates"`

	// Output 输出配置
	Output OutputConfig `json:"output"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Probe:      DefaultProbeConfig(),
		Scheduler:  DefaultSchedulerConfig(),
		Candidates: DefaultCandidatesConfig(),
		Output:     DefaultOutputConfig(),
		Metrics:    DefaultMetricsConfig(),
		Log:        DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 所有子配置的问题一并返回。
func (c *Config) Validate() error {
	return multierr.Combine(
		prefixed("probe", c.Probe.Validate()),
		prefixed("scheduler", c.Scheduler.Validate()),
		prefixed("candidates", c.Candidates.Validate()),
		prefixed("output", c.Output.Validate()),
		prefixed("log", c.Log.Validate()),
	)
}

func prefixed(section string, err error) error {
	if err == nil {
		return nil
	}
	var out error
	for _, e := range multierr.Errors(err) {
		out = multierr.Append(out, fmt.Errorf("%s: %w", section, e))
	}
	return out
}

// ============================================================================
//                              ProbeConfig
// ============================================================================

// ProbeConfig 探测配置
type ProbeConfig struct {
	// Network 探测网络：tcp、tls、quic；为空时由分享链接推断
	Network string `json:"network,omitempty"`

	// Port 默认端口，0 表示使用分享链接中的端口
	Port int `json:"port,omitempty"`

	// ServerName TLS 服务器名，为空时由分享链接推断
	ServerName string `json:"server_name,omitempty"`

	// InsecureSkipVerify 跳过证书校验
	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty"`

	// ALPN 协议列表
	ALPN []string `json:"alpn,omitempty"`

	// QUICHandshakeIdleTimeout QUIC 握手空闲超时，0 表示由探测超时控制
	QUICHandshakeIdleTimeout Duration `json:"quic_handshake_idle_timeout,omitempty"`
}

// DefaultProbeConfig 返回默认探测配置
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{}
}

// Validate 验证探测配置
func (c ProbeConfig) Validate() error {
	var err error
	switch strings.ToLower(c.Network) {
	case "", "tcp", "tls", "quic":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown network %q", c.Network))
	}
	if c.Port < 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.QUICHandshakeIdleTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("negative quic handshake idle timeout"))
	}
	return err
}

// ============================================================================
//                              SchedulerConfig
// ============================================================================

// SchedulerConfig 调度配置
type SchedulerConfig struct {
	// Timeout 单次探测超时
	Timeout Duration `json:"timeout"`

	// Concurrency 并发上限
	Concurrency int `json:"concurrency"`

	// DispatchRate 每秒最多新建的探测数，0 表示不限
	DispatchRate float64 `json:"dispatch_rate,omitempty"`

	// DispatchBurst 限速令牌桶容量
	DispatchBurst int `json:"dispatch_burst,omitempty"`
}

// DefaultSchedulerConfig 返回默认调度配置
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Timeout:     Duration(DefaultTimeout),
		Concurrency: DefaultConcurrency,
	}
}

// Validate 验证调度配置
func (c SchedulerConfig) Validate() error {
	var err error
	if c.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Concurrency <= 0 {
		err = multierr.Append(err, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.DispatchRate < 0 {
		err = multierr.Append(err, fmt.Errorf("negative dispatch rate %v", c.DispatchRate))
	}
	if c.DispatchBurst < 0 {
		err = multierr.Append(err, fmt.Errorf("negative dispatch burst %d", c.DispatchBurst))
	}
	return err
}

// ============================================================================
//                              CandidatesConfig
// ============================================================================

// CandidatesConfig 候选列表配置
type CandidatesConfig struct {
	// MaxPerPrefix 每个 CIDR 展开的地址数上限
	MaxPerPrefix int `json:"max_per_prefix"`

	// IPv4 是否接受 IPv4
	IPv4 bool `json:"ipv4"`

	// IPv6 是否接受 IPv6
	IPv6 bool `json:"ipv6"`

	// Exclude 排除的地址或 CIDR
	Exclude []string `json:"exclude,omitempty"`

	// Limit 最多探测的候选数，0 表示不限
	Limit int `json:"limit,omitempty"`
}

// DefaultCandidatesConfig 返回默认候选配置
func DefaultCandidatesConfig() CandidatesConfig {
	return CandidatesConfig{
		MaxPerPrefix: DefaultMaxPerPrefix,
		IPv4:         true,
		IPv6:         true,
	}
}

// Validate 验证候选配置
func (c CandidatesConfig) Validate() error {
	var err error
	if !c.IPv4 && !c.IPv6 {
		err = multierr.Append(err, fmt.Errorf("both ipv4 and ipv6 disabled"))
	}
	if c.MaxPerPrefix < 0 {
		err = multierr.Append(err, fmt.Errorf("negative max_per_prefix %d", c.MaxPerPrefix))
	}
	if c.Limit < 0 {
		err = multierr.Append(err, fmt.Errorf("negative limit %d", c.Limit))
	}
	return err
}

// ============================================================================
//                              OutputConfig
// ============================================================================

// OutputConfig 输出配置
type OutputConfig struct {
	// LinksFile 替换后的分享链接输出文件，为空则不写
	LinksFile string `json:"links_file"`

	// TopN 输出的链接数
	TopN int `json:"top_n"`

	// Format 报告格式：text 或 json
	Format string `json:"format"`

	// ReportFile 报告输出文件，为空时写到标准输出
	ReportFile string `json:"report_file,omitempty"`
}

// DefaultOutputConfig 返回默认输出配置
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		LinksFile: DefaultLinksFile,
		TopN:      DefaultTopN,
		Format:    "text",
	}
}

// Validate 验证输出配置
func (c OutputConfig) Validate() error {
	var err error
	if c.TopN < 0 {
		err = multierr.Append(err, fmt.Errorf("negative top_n %d", c.TopN))
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown format %q", c.Format))
	}
	return err
}

// ============================================================================
//                              MetricsConfig / LogConfig
// ============================================================================

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Textfile node_exporter textfile 输出路径，为空时不启用指标
	Textfile string `json:"textfile,omitempty"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{}
}

// Enabled 是否启用指标
func (c MetricsConfig) Enabled() bool {
	return c.Textfile != ""
}

// LogConfig 日志配置
//
// 环境变量 CDNOPT_LOG_LEVEL 等仍然生效，此处的值作为其默认。
type LogConfig struct {
	// Level 日志级别：debug、info、warn、error
	Level string `json:"level,omitempty"`

	// Format 日志格式：text 或 json
	Format string `json:"format,omitempty"`

	// File 日志文件，为空时写到标准错误
	File string `json:"file,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	var err error
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown level %q", c.Level))
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown format %q", c.Format))
	}
	return err
}
