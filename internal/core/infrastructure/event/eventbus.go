// 基于asaskevich/EventBus的事件总线实现

package event

import (
	"fmt"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/proofhost/pkg/interfaces/infrastructure/log"
)

// EventBus 是对 asaskevich/EventBus 的薄封装
//
// 在底层总线之上增加：关闭后静默丢弃发布、处理器 panic 隔离、发布计数。
type EventBus struct {
	bus    evbus.Bus
	logger log.Logger

	closed    atomic.Bool
	published atomic.Uint64
}

// New 创建事件总线
func New(logger log.Logger) *EventBus {
	return &EventBus{
		bus:    evbus.New(),
		logger: logger,
	}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// Publish 实现发布
//
// 订阅者的 panic 不会传播到发布者（编排器状态机不能因旁路组件出错而中断）。
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if eb.closed.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil && eb.logger != nil {
			eb.logger.Errorf("事件处理器异常: topic=%s, panic=%v", eventType, r)
		}
	}()
	eb.published.Add(1)
	eb.bus.Publish(string(eventType), args...)
}

// HasCallback 检查是否有回调
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	return eb.bus.HasCallback(string(eventType))
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	eb.bus.WaitAsync()
}

// Published 已发布事件数
func (eb *EventBus) Published() uint64 {
	return eb.published.Load()
}

// Close 停止接收新事件并等待异步处理器退出
func (eb *EventBus) Close() {
	if eb.closed.Swap(true) {
		return
	}
	eb.bus.WaitAsync()
}

var _ event.EventBus = (*EventBus)(nil)
