package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(connID, userID string) *Client {
	c := NewClient(connID, nil, 16)
	c.UserID = userID
	c.Email = userID + "@example.com"
	return c
}

func TestRoomName(t *testing.T) {
	assert.Equal(t, "whiteboard:b1", RoomName("b1"))
}

func TestJoinLeaveReplay(t *testing.T) {
	rt := NewRoomTable()
	c := newTestClient("c1", "alice")

	// 任意 join/leave 序列后，成员集合等于逻辑重放结果
	rt.Join("b1", c)
	rt.Join("b2", c)
	rt.Join("b1", c) // 重复 join 幂等
	rt.Leave("b1", c)

	assert.False(t, rt.IsMember("alice", "b1"))
	assert.True(t, rt.IsMember("alice", "b2"))
	assert.ElementsMatch(t, []string{"b2"}, rt.Boards("alice"))

	rt.Leave("b2", c)
	assert.Empty(t, rt.Boards("alice"))
}

func TestLeaveNeverJoinedIsNoop(t *testing.T) {
	rt := NewRoomTable()
	c := newTestClient("c1", "alice")

	// 退从未加入的房间不报错、不产生脏状态
	rt.Leave("b1", c)
	assert.False(t, rt.IsMember("alice", "b1"))
	assert.Equal(t, 0, rt.Occupancy("b1"))
}

func TestEnsureEntryIdempotent(t *testing.T) {
	rt := NewRoomTable()
	c1 := newTestClient("c1", "alice")

	rt.EnsureEntry("alice")
	rt.Join("b1", c1)

	// 同用户第二条连接认证时的种表不能清掉第一条的成员关系
	rt.EnsureEntry("alice")
	assert.True(t, rt.IsMember("alice", "b1"))
}

func TestPeersExcludesSender(t *testing.T) {
	rt := NewRoomTable()
	a := newTestClient("c1", "alice")
	b := newTestClient("c2", "bob")
	rt.Join("b1", a)
	rt.Join("b1", b)

	peers := rt.Peers("b1", a.ConnID)
	require.Len(t, peers, 1)
	assert.Equal(t, "c2", peers[0].ConnID)

	// 房间只有自己时对端为空：独自编辑是合法状态
	rt2 := NewRoomTable()
	rt2.Join("b1", a)
	assert.Empty(t, rt2.Peers("b1", a.ConnID))
}

func TestOccupancyDedupByUser(t *testing.T) {
	rt := NewRoomTable()
	a1 := newTestClient("c1", "alice")
	a2 := newTestClient("c2", "alice") // 同用户第二条连接
	b := newTestClient("c3", "bob")
	rt.Join("b1", a1)
	rt.Join("b1", a2)
	rt.Join("b1", b)

	assert.Equal(t, 2, rt.Occupancy("b1"))
	assert.Len(t, rt.Peers("b1", ""), 3)
}

func TestDropConnWipesUserEntry(t *testing.T) {
	rt := NewRoomTable()
	c := newTestClient("c1", "alice")
	rt.Join("b1", c)
	rt.Join("b2", c)

	boards := rt.DropConn(c)
	assert.ElementsMatch(t, []string{"b1", "b2"}, boards)
	assert.False(t, rt.IsMember("alice", "b1"))
	assert.False(t, rt.IsMember("alice", "b2"))
	assert.Empty(t, rt.Boards("alice"))
	assert.Equal(t, 0, rt.Occupancy("b1"))
}

func TestDropConnUserLevelSimplification(t *testing.T) {
	rt := NewRoomTable()
	a1 := newTestClient("c1", "alice")
	a2 := newTestClient("c2", "alice")
	rt.Join("b1", a1)
	rt.Join("b1", a2)

	// 既定行为：任一连接断开即整体清掉该用户的成员条目（见设计笔记），
	// 但另一条连接的传输层注册保留
	boards := rt.DropConn(a1)
	assert.ElementsMatch(t, []string{"b1"}, boards)
	assert.False(t, rt.IsMember("alice", "b1"))
	assert.Len(t, rt.Peers("b1", ""), 1)
}
