package notifier

import (
	"sync"

	"solwatch/internal/logger"
)

// Dispatcher 将消息异步扇出到多个通道。
// 发送失败只记日志，绝不向调用方回传错误，
// 保证风控状态流转不被通知链路阻塞。

type Dispatcher struct {
	channels []TextNotifier
	wg       sync.WaitGroup
}

func NewDispatcher(channels ...TextNotifier) *Dispatcher {
	out := make([]TextNotifier, 0, len(channels))
	for _, ch := range channels {
		if ch != nil {
			out = append(out, ch)
		}
	}
	return &Dispatcher{channels: out}
}

// Dispatch 异步发送，立即返回。
func (d *Dispatcher) Dispatch(text string) {
	for _, ch := range d.channels {
		d.wg.Add(1)
		go func(n TextNotifier) {
			defer d.wg.Done()
			if err := n.SendText(text); err != nil {
				logger.Warnf("通知发送失败: %v", err)
			}
		}(ch)
	}
}

// Wait 等待在途消息发完，用于进程退出前的收尾。
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
