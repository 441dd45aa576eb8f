// Package event 定义进程内事件总线接口
//
// 🎯 **事件总线**
//
// 编排器在每次任务状态变更时发布事件，指标采集等旁路组件订阅事件，
// 彼此不直接依赖。处理器签名由发布方约定（见 pkg/types 中的事件类型注释）。
package event

import "github.com/weisyn/proofhost/pkg/types"

// EventType 兼容别名
type EventType = types.EventType

// EventBus 事件总线接口
type EventBus interface {
	// Subscribe 同步订阅，处理器在发布者的 goroutine 中执行
	Subscribe(eventType EventType, handler interface{}) error

	// SubscribeAsync 异步订阅；transactional 为 true 时同一处理器串行执行
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error

	// Unsubscribe 取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error

	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})

	// HasCallback 是否存在订阅者
	HasCallback(eventType EventType) bool

	// WaitAsync 等待所有异步处理器完成
	WaitAsync()
}
