package gateway

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnqueueConcurrentWithShutdown(t *testing.T) {
	// 转发方和关闭方并发：不允许 panic，shutdown 之后投递必须报错
	payload := []byte(`{"event":"draw_update"}`)
	for i := 0; i < 50; i++ {
		c := newTestClient("c1", "alice")

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 200; k++ {
					_ = c.enqueue(payload)
				}
			}()
		}
		c.shutdown()
		c.shutdown() // 幂等
		wg.Wait()

		assert.Error(t, c.enqueue(payload))
	}
}

func TestShutdownDropsQueuedFrames(t *testing.T) {
	c := NewClient("c1", nil, 4)
	c.UserID = "alice"
	for i := 0; i < 3; i++ {
		assert.NoError(t, c.enqueue([]byte("x")))
	}
	c.shutdown()
	// 信号之后拒收，缓冲里的残帧随写协程退出丢弃
	assert.Error(t, c.enqueue([]byte("y")))
}
