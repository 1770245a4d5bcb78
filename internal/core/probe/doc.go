// Package probe 实现单次候选地址连通性探测
//
// # 探测方式
//
//   - tcp:  TCP 三次握手完成即记为成功（默认）
//   - tls:  TCP 建立后完成 TLS 握手
//   - quic: 完成 QUIC 握手（ALPN 默认 h3）
//
// 每次探测只打开一个连接，测量完成后立即关闭，不交换应用数据。
//
// # 超时
//
// Prober 自身不设超时，由 internal/core/governor 通过取消 ctx 中止尝试；
// 所有拨号均使用 DialContext/HandshakeContext，取消即释放套接字。
//
// # 错误分类
//
// Classify 将拨号错误映射为 types.FailureReason：
// 连接被拒绝、网络不可达、主机宕机、连接重置、握手失败、取消、其他。
// errno 匹配在 unix 平台上基于 golang.org/x/sys/unix。
package probe
