package ids

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateMonotonicAndUnique(t *testing.T) {
	prev := Generate()
	for i := 0; i < 5000; i++ {
		id := Generate()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestGenerateConcurrentUnique(t *testing.T) {
	const workers, perWorker = 8, 500

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := Generate()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestSetNodeIDBounds(t *testing.T) {
	SetNodeID(42)
	assert.Equal(t, int64(42), nodeID)

	SetNodeID(maxNode + 1) // 越界回落
	assert.Equal(t, int64(1), nodeID)

	SetNodeID(-5)
	assert.Equal(t, int64(1), nodeID)
}
