package realtime

import (
	"context"
	"sync"
	"time"
)

// maxWaitWindows 首个待发变更之后最多等待的窗口数
const maxWaitWindows = 4

// Coalesce 合并一个或多个变更流：窗口内连续到达的通知只在安静 window 之后产生一次信号。
// 持续不断的变更流最迟在首个待发变更后 maxWaitWindows*window 发出信号。
//
// ctx 结束或所有来源关闭时返回的通道关闭；来源关闭前未发出的信号会先补发。
func Coalesce(ctx context.Context, window time.Duration, sources ...<-chan Change) <-chan struct{} {
	out := make(chan struct{}, 1)
	merged := make(chan Change)

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src <-chan Change) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case c, ok := <-src:
					if !ok {
						return
					}
					select {
					case merged <- c:
					case <-ctx.Done():
						return
					}
				}
			}
		}(src)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	go func() {
		defer close(out)

		var (
			fire     <-chan time.Time // nil 表示没有待发信号
			deadline <-chan time.Time
		)

		signal := func() {
			fire, deadline = nil, nil
			select {
			case out <- struct{}{}:
			default: // 上一个信号尚未被消费，合并
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-merged:
				if !ok {
					if fire != nil {
						signal()
					}
					return
				}
				fire = time.After(window)
				if deadline == nil {
					deadline = time.After(maxWaitWindows * window)
				}
			case <-fire:
				signal()
			case <-deadline:
				signal()
			}
		}
	}()

	return out
}
