package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnManagerAddRemove(t *testing.T) {
	m := NewConnManager("gw-test")
	defer m.Close()

	c1 := newTestClient("c1", "alice")
	c2 := newTestClient("c2", "alice")
	require.NoError(t, m.Add(c1))
	require.NoError(t, m.Add(c2))

	assert.Equal(t, 2, m.CountConns())
	assert.True(t, m.UserOnline("alice"))
	assert.Len(t, m.ListUser("alice"), 2)

	m.Remove("c1")
	assert.True(t, m.UserOnline("alice")) // 还剩一条连接
	m.Remove("c2")
	assert.False(t, m.UserOnline("alice"))
	assert.Equal(t, 0, m.CountConns())

	m.Remove("c2") // 幂等
}

func TestConnManagerRejectsAnonymous(t *testing.T) {
	m := NewConnManager("gw-test")
	defer m.Close()

	assert.Error(t, m.Add(nil))
	assert.Error(t, m.Add(NewClient("c1", nil, 1))) // 未附身份不登记
}

func TestConnManagerSweepExpired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	m := NewConnManagerWithConf(ManagerConf{
		IdleTTL:    time.Minute,
		SweepEvery: time.Hour, // 测试里手动触发
		Clock:      clock,
	}, "gw-test")
	defer m.Close()

	c1 := newTestClient("c1", "alice")
	c2 := newTestClient("c2", "bob")
	require.NoError(t, m.Add(c1))
	require.NoError(t, m.Add(c2))

	// c2 在 TTL 过半时有心跳续期
	now = now.Add(40 * time.Second)
	m.Heartbeat("c2")

	m.sweepOnce(now.Add(30 * time.Second))
	_, ok := m.GetByConn("c1")
	assert.False(t, ok, "idle conn should be swept")
	_, ok = m.GetByConn("c2")
	assert.True(t, ok, "recently heartbeated conn stays")

	// 被清理的连接出站队列已关闭
	assert.Error(t, c1.enqueue([]byte("x")))
}
