package probe

import (
	"context"
	"net"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("probe")

// dialFunc 执行一次具体的连接尝试，成功时连接已关闭
type dialFunc func(ctx context.Context, addr string) error

// Prober 候选地址探测器
//
// Prober 无共享可变状态，可被多个 goroutine 并发使用。
type Prober struct {
	config Config
	clock  clock.Clock
	dialer *net.Dialer
	dial   dialFunc
}

// New 创建探测器
func New(config Config, clk clock.Clock) (*Prober, error) {
	if config.Network == "" {
		config.Network = NetworkTCP
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	p := &Prober{
		config: config,
		clock:  clk,
		dialer: &net.Dialer{},
	}

	switch config.Network {
	case NetworkTLS:
		p.dial = p.dialTLS
	case NetworkQUIC:
		p.dial = p.dialQUIC
	default:
		p.dial = p.dialTCP
	}

	return p, nil
}

// Config 返回探测器配置
func (p *Prober) Config() Config {
	return p.config
}

// Probe 对候选执行一次探测
//
// 耗时从开始解析地址起算，到连接（或握手）完成为止。
func (p *Prober) Probe(ctx context.Context, c types.Candidate) types.Attempt {
	start := p.clock.Now()

	addr, err := c.DialAddress(p.config.Port)
	if err != nil {
		return types.Attempt{Err: err}
	}

	err = p.dial(ctx, addr)
	latency := p.clock.Since(start)
	if latency < 0 {
		latency = 0
	}

	if err != nil {
		logger.Debug("probe failed",
			"addr", addr,
			"network", p.config.Network,
			"elapsed", latency,
			"err", err)
		return types.Attempt{Latency: latency, Err: err}
	}

	logger.Debug("probe succeeded",
		"addr", addr,
		"network", p.config.Network,
		"latency", latency)
	return types.Attempt{Latency: latency}
}

// dialTCP 建立 TCP 连接后立即关闭
func (p *Prober) dialTCP(ctx context.Context, addr string) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}
