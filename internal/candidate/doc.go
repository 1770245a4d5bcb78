// Package candidate 加载候选地址列表
//
// 每行一个条目，支持以下格式：
//
//	104.16.1.1
//	104.16.1.1:8443
//	[2606:4700::1]:443
//	104.16.0.0/24
//
// 空行与 # 注释被忽略，行尾注释同样被去除；无法解析的条目被跳过并记录在
// Result.Skipped 中。CIDR 按地址顺序展开，每个前缀最多 MaxPerPrefix 个地址。
// 输出保持输入顺序，重复地址只保留第一次出现。
package candidate
