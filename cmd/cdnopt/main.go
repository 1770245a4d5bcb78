// Package main 提供 cdnopt 命令行入口
//
// 用法:
//
//	cdnopt [flags] <node_link> <ip_list_file> [timeout_ms]
//
// 探测 ip_list_file 中的候选地址，按连接质量输出报告，并将延迟最低的
// 若干地址代入 node_link 后写入 optimized_nodes.txt。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-cdnopt"
	"github.com/dep2p/go-cdnopt/config"
	"github.com/dep2p/go-cdnopt/internal/candidate"
	"github.com/dep2p/go-cdnopt/internal/core/metrics"
	"github.com/dep2p/go-cdnopt/internal/nodelink"
	"github.com/dep2p/go-cdnopt/internal/output"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("cdnopt/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
// 位置参数描述「这次要优化什么」，配置文件描述「通常怎么探测」，
// 命令行参数用于临时覆盖。
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 配置来源
	// ─────────────────────────────────────────────────────────────────────
	configFile = flag.String("config", "", "配置文件路径（YAML 或 JSON）")
	preset     = flag.String("preset", "", "预设配置 (default/fast/gentle/auto)")

	// ─────────────────────────────────────────────────────────────────────
	// 探测参数
	// ─────────────────────────────────────────────────────────────────────
	concurrency = flag.Int("concurrency", 0, "并发上限（默认 100）")
	network     = flag.String("network", "", "探测方式 tcp/tls/quic（默认由分享链接推断）")
	port        = flag.Int("port", 0, "候选未带端口时使用的端口（默认取分享链接端口）")
	sni         = flag.String("sni", "", "TLS 服务器名（默认由分享链接推断）")
	insecure    = flag.Bool("insecure", false, "跳过证书校验")
	rate        = flag.Float64("rate", 0, "每秒最多新建的探测数（0 = 不限）")

	// ─────────────────────────────────────────────────────────────────────
	// 候选列表
	// ─────────────────────────────────────────────────────────────────────
	exclude      = flag.String("exclude", "", "排除的地址或 CIDR（逗号分隔）")
	onlyIPv4     = flag.Bool("4", false, "只探测 IPv4")
	onlyIPv6     = flag.Bool("6", false, "只探测 IPv6")
	limit        = flag.Int("limit", 0, "最多探测的候选数（0 = 不限）")
	maxPerPrefix = flag.Int("max-per-prefix", 0, "每个 CIDR 展开的地址数上限")

	// ─────────────────────────────────────────────────────────────────────
	// 输出
	// ─────────────────────────────────────────────────────────────────────
	top         = flag.Int("top", 0, "写入链接文件的地址数（默认 10）")
	outputFile  = flag.String("o", "", "链接输出文件（默认 optimized_nodes.txt）")
	format      = flag.String("format", "", "报告格式 text/json")
	reportFile  = flag.String("report", "", "报告输出文件（默认标准输出）")
	metricsFile = flag.String("metrics-file", "", "Prometheus textfile 输出路径")
	progress    = flag.Bool("progress", true, "显示进度条")

	// ─────────────────────────────────────────────────────────────────────
	// 日志与信息
	// ─────────────────────────────────────────────────────────────────────
	logFile     = flag.String("log", "", "日志文件路径")
	printConfig = flag.Bool("print-config", false, "打印最终生效的配置后退出")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	flag.Usage = usage
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "用法: %s [flags] <node_link> <ip_list_file> [timeout_ms]\n\n", os.Args[0])
	flag.PrintDefaults()
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(cdnopt.VersionInfo())
		return nil
	}

	// ═══════════════════════════════════════════════════════════════════
	// 1. 配置
	// ═══════════════════════════════════════════════════════════════════
	cfg, err := buildConfig(flag.Args())
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if *printConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	args := flag.Args()
	if len(args) < 2 || len(args) > 3 {
		usage()
		return errors.New("需要 <node_link> 和 <ip_list_file> 两个参数")
	}

	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	// ═══════════════════════════════════════════════════════════════════
	// 2. 分享链接与候选列表
	// ═══════════════════════════════════════════════════════════════════
	link, err := nodelink.Parse(args[0])
	if err != nil {
		return err
	}

	probePort := cfg.Probe.Port
	if probePort == 0 {
		probePort = link.Port()
	}
	loader, err := candidate.NewLoader(loaderOptions(cfg.Candidates, probePort))
	if err != nil {
		return err
	}
	loaded, err := loader.LoadFile(args[1])
	if err != nil {
		return err
	}
	candidates := loaded.Candidates()
	logger.Info("候选加载完成",
		"file", args[1],
		"candidates", len(candidates),
		"skipped", len(loaded.Skipped),
		"duplicates", loaded.Duplicates,
		"excluded", loaded.Excluded)

	// ═══════════════════════════════════════════════════════════════════
	// 3. 引擎
	// ═══════════════════════════════════════════════════════════════════
	opts, err := engineOptions(cfg, link)
	if err != nil {
		return err
	}
	if !*progress && !cfg.Metrics.Enabled() {
		// 快照日志需要 Recorder
		opts = append(opts, cdnopt.WithMetrics(nil))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := cdnopt.New(opts...)
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := engine.Stop(stopCtx); err != nil {
			logger.Warn("停止引擎失败", "err", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "📦 %s\n", cdnopt.VersionInfo())
	fmt.Fprintf(os.Stderr, "探测 %d 个候选（超时 %s，并发 %d）\n",
		len(candidates), engine.Timeout(), engine.Concurrency())

	var extra []pkgif.SampleObserver
	var bar *progressBar
	var snapshots *metrics.SnapshotLogger
	if *progress {
		bar = newProgressBar(len(candidates), os.Stderr)
		extra = append(extra, bar)
	} else if rec := engine.Metrics(); rec != nil {
		snapshots = metrics.NewSnapshotLogger(rec, clock.New(), len(candidates))
		snapshots.Start(5 * time.Second)
	}

	report, runErr := engine.Run(ctx, candidates, extra...)
	if bar != nil {
		bar.Finish()
	}
	if snapshots != nil {
		snapshots.Stop()
	}
	if report == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("运行被中断，输出部分结果", "err", runErr)
	}

	// ═══════════════════════════════════════════════════════════════════
	// 4. 输出
	// ═══════════════════════════════════════════════════════════════════
	if err := writeReport(cfg.Output, report); err != nil {
		return err
	}

	if cfg.Output.LinksFile != "" && cfg.Output.TopN > 0 {
		n, err := output.WriteLinksFile(cfg.Output.LinksFile, link, report, cfg.Output.TopN)
		if err != nil {
			return fmt.Errorf("写入链接文件失败: %w", err)
		}
		if n == 0 {
			fmt.Fprintln(os.Stderr, "没有可用的地址")
		} else {
			fmt.Fprintf(os.Stderr, "已将 %d 个优选链接写入 %s\n", n, cfg.Output.LinksFile)
		}
	}
	return runErr
}

// writeReport 输出报告到文件或标准输出
func writeReport(cfg config.OutputConfig, report *types.Report) error {
	f, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if cfg.ReportFile != "" {
		file, err := os.Create(cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("创建报告文件失败: %w", err)
		}
		defer func() { _ = file.Close() }()
		w = file
	}
	return output.Write(w, f, report)
}
