package ids

import (
	"strconv"
	"sync"
	"time"
)

// 进程内唯一ID：毫秒时间戳 + 节点号 + 序列号。
// 连接ID和用户ID都从这里出，字符串形式按时间有序，日志里好对账。

const (
	nodeBits = 10
	seqBits  = 12
	maxNode  = (1 << nodeBits) - 1
	maxSeq   = (1 << seqBits) - 1
)

var (
	epochMS = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

	mu     sync.Mutex
	nodeID int64 = 1
	seq    int64
	lastMS int64
)

// SetNodeID 区分部署实例（0~1023）；越界回落到 1。main 初始化时调用。
func SetNodeID(n int64) {
	mu.Lock()
	defer mu.Unlock()
	if n < 0 || n > maxNode {
		n = 1
	}
	nodeID = n
}

// Generate 下一个ID。同毫秒靠序列号区分，序列用尽自旋到下一毫秒；
// 时钟回拨时沿用上一次的毫秒值，单调性优先于物理时间。
func Generate() int64 {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UnixMilli()
	if now < lastMS {
		now = lastMS
	}
	if now == lastMS {
		seq = (seq + 1) & maxSeq
		if seq == 0 {
			for now <= lastMS {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		seq = 0
	}
	lastMS = now

	return (now-epochMS)<<(nodeBits+seqBits) | nodeID<<seqBits | seq
}

func GenerateString() string {
	return strconv.FormatInt(Generate(), 10)
}
