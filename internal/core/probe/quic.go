package probe

import (
	"context"
	"errors"

	"github.com/quic-go/quic-go"
)

// dialQUIC 完成 QUIC 握手后关闭连接
func (p *Prober) dialQUIC(ctx context.Context, addr string) error {
	quicConf := &quic.Config{
		HandshakeIdleTimeout: p.config.QUICHandshakeIdleTimeout,
	}

	conn, err := quic.DialAddr(ctx, addr, p.tlsConfig(addr, "h3"), quicConf)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var transportErr *quic.TransportError
		var appErr *quic.ApplicationError
		if errors.As(err, &transportErr) || errors.As(err, &appErr) {
			return &HandshakeError{Network: NetworkQUIC, Err: err}
		}
		return err
	}

	_ = conn.CloseWithError(0, "probe done")
	return nil
}
