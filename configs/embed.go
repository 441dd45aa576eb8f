// Package configs 提供随二进制发布的示例配置
package configs

import _ "embed"

// 示例配置，与 configs/proofhost.json 相同
//
//go:embed proofhost.json
var sampleConfig []byte

// Sample 返回示例配置内容的副本
func Sample() []byte {
	out := make([]byte, len(sampleConfig))
	copy(out, sampleConfig)
	return out
}
