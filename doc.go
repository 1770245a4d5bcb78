// Package cdnopt 从候选 IP 中挑选到共享 CDN 入口延迟最低的地址
//
// 给定一组候选地址与单次探测超时，cdnopt 在并发上限内对每个候选发起一次
// 连接（TCP，或 TLS/QUIC 握手），严格执行超时，最后生成确定性的排序报告：
// 成功（延迟升序）< 失败 < 超时，同组内按输入顺序。
//
// # 快速开始
//
//	report, err := cdnopt.Run(ctx, []string{"104.16.1.1", "104.16.1.2:8443"},
//	    cdnopt.WithTimeout(3*time.Second),
//	    cdnopt.WithConcurrency(64),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	best, _ := report.Best()
//
// 多次运行复用同一个 Engine：
//
//	engine, err := cdnopt.New(cdnopt.WithConfig(cfg))
//	if err := engine.Start(ctx); err != nil { ... }
//	defer engine.Stop(context.Background())
//	report, err := engine.RunAddresses(ctx, addrs)
//
// # 组件
//
//	┌──────────────────────────────────────────────────────────┐
//	│  Engine       cdnopt.New() / engine.Run()                │
//	├──────────────────────────────────────────────────────────┤
//	│  Scheduler    许可池 + 工作池 + 派发限速                 │
//	│  Governor     单次探测超时，取消落败的尝试               │
//	│  Probe        tcp / tls / quic 连接尝试                  │
//	│  Aggregator   样本归约为排序报告                         │
//	│  Metrics      Prometheus 指标（可选）                    │
//	└──────────────────────────────────────────────────────────┘
//
// # 文件组织
//
//	cdnopt/
//	├── doc.go       # 包文档
//	├── version.go   # 版本信息
//	├── engine.go    # Engine 结构、Start、Stop、Run
//	├── options.go   # Option 函数
//	├── fx.go        # Fx 应用组装
//	├── run.go       # 一次性 Run 便捷函数
//	└── errors.go    # 公共错误
package cdnopt
