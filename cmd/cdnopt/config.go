package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dep2p/go-cdnopt"
	"github.com/dep2p/go-cdnopt/config"
	"github.com/dep2p/go-cdnopt/internal/candidate"
	"github.com/dep2p/go-cdnopt/internal/nodelink"
	logutil "github.com/dep2p/go-cdnopt/internal/util/logger"
)

// ============================================================================
//                              配置构建（CLI 专用）
// ============================================================================

// buildConfig 构建最终配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数与位置参数 timeout_ms
//  2. 环境变量（CDNOPT_* 前缀）
//  3. 配置文件
//  4. 默认值
//
// 预设在其来源的优先级上应用，之后同级及更高级的值仍可覆盖。
func buildConfig(args []string) (*config.Config, error) {
	var cfg *config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	} else {
		cfg = config.NewConfig()
	}

	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}

	if err := applyFlags(cfg); err != nil {
		return nil, err
	}

	if len(args) >= 3 {
		ms, err := strconv.Atoi(args[2])
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("无效的超时毫秒数: %q", args[2])
		}
		cfg.Scheduler.Timeout = config.Duration(time.Duration(ms) * time.Millisecond)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags 应用显式设置的命令行参数
func applyFlags(cfg *config.Config) error {
	if isFlagSet("preset") {
		if err := config.ApplyPreset(cfg, *preset); err != nil {
			return err
		}
	}

	// 探测
	if isFlagSet("concurrency") {
		cfg.Scheduler.Concurrency = *concurrency
	}
	if isFlagSet("rate") {
		cfg.Scheduler.DispatchRate = *rate
	}
	if isFlagSet("network") {
		cfg.Probe.Network = strings.ToLower(*network)
	}
	if isFlagSet("port") {
		cfg.Probe.Port = *port
	}
	if isFlagSet("sni") {
		cfg.Probe.ServerName = *sni
	}
	if isFlagSet("insecure") {
		cfg.Probe.InsecureSkipVerify = *insecure
	}

	// 候选
	if isFlagSet("exclude") {
		cfg.Candidates.Exclude = config.SplitAndTrim(*exclude, ",")
	}
	if *onlyIPv4 {
		cfg.Candidates.IPv6 = false
	}
	if *onlyIPv6 {
		cfg.Candidates.IPv4 = false
	}
	if isFlagSet("limit") {
		cfg.Candidates.Limit = *limit
	}
	if isFlagSet("max-per-prefix") {
		cfg.Candidates.MaxPerPrefix = *maxPerPrefix
	}

	// 输出
	if isFlagSet("top") {
		cfg.Output.TopN = *top
	}
	if isFlagSet("o") {
		cfg.Output.LinksFile = *outputFile
	}
	if isFlagSet("format") {
		cfg.Output.Format = *format
	}
	if isFlagSet("report") {
		cfg.Output.ReportFile = *reportFile
	}
	if isFlagSet("metrics-file") {
		cfg.Metrics.Textfile = *metricsFile
	}
	if isFlagSet("log") {
		cfg.Log.File = *logFile
	}
	return nil
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// loaderOptions 将候选配置转换为加载选项
//
// probePort 为不带端口的候选实际探测的端口。
func loaderOptions(c config.CandidatesConfig, probePort int) candidate.Options {
	opts := candidate.DefaultOptions()
	if c.MaxPerPrefix > 0 {
		opts.MaxPerPrefix = c.MaxPerPrefix
	}
	opts.IPv4 = c.IPv4
	opts.IPv6 = c.IPv6
	opts.Exclude = c.Exclude
	opts.Limit = c.Limit
	opts.DefaultPort = probePort
	return opts
}

// engineOptions 构建引擎选项
//
// 配置未指定的探测网络、端口与服务器名由分享链接推断。
func engineOptions(cfg *config.Config, link *nodelink.Link) ([]cdnopt.Option, error) {
	opts := []cdnopt.Option{cdnopt.WithConfig(cfg)}

	if cfg.Probe.Network == "" {
		opts = append(opts, cdnopt.WithNetwork(link.Network()))
	}
	if cfg.Probe.Port == 0 {
		opts = append(opts, cdnopt.WithPort(link.Port()))
	}

	alpn := cfg.Probe.ALPN
	if len(alpn) == 0 {
		if v := link.Param("alpn"); v != "" {
			alpn = config.SplitAndTrim(v, ",")
		}
	}
	serverName := cfg.Probe.ServerName
	if serverName == "" {
		serverName = link.ServerName()
	}
	opts = append(opts, cdnopt.WithTLS(serverName, cfg.Probe.InsecureSkipVerify, alpn...))

	logger.Debug("引擎选项",
		"network", firstNonEmpty(cfg.Probe.Network, link.Network()),
		"serverName", serverName,
		"alpn", alpn)
	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// setupLogging 安装全局日志 Handler
//
// 配置中的级别与格式在对应环境变量未设置时生效。返回的函数关闭日志文件。
func setupLogging(c config.LogConfig) (func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}

	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0750); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		w = f
		closer = func() { _ = f.Close() }
	}

	lc := logutil.ConfigFromEnv()
	if os.Getenv(logutil.EnvLevel) == "" && c.Level != "" {
		if level, ok := logutil.ParseLevel(c.Level); ok {
			lc.DefaultLevel = level
		}
	}
	if os.Getenv(logutil.EnvFormat) == "" && strings.EqualFold(c.Format, "json") {
		lc.Format = logutil.FormatJSON
	}
	logutil.SetupWithConfig(w, lc)
	return closer, nil
}
