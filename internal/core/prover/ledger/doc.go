// Package ledger 实现按请求指纹去重的任务台账
package ledger
