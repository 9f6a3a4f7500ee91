package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cm := NewConnManager("gw-test")
	t.Cleanup(cm.Close)
	return NewServer("gw-test", Conf{SendQueueSize: 16}, nil, nil, cm)
}

func drainOne(t *testing.T, c *Client) (string, map[string]any) {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f.Event, f.Data
	default:
		t.Fatalf("expected a frame queued for conn %s", c.ConnID)
		return "", nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("conn %s should not receive anything, got %s", c.ConnID, raw)
	default:
	}
}

func TestDisconnectCleansUpAndNotifiesPeers(t *testing.T) {
	s := newTestServer(t)

	alice := newTestClient("c1", "alice")
	bob := newTestClient("c2", "bob")
	require.NoError(t, s.ConnMgr().Add(alice))
	require.NoError(t, s.ConnMgr().Add(bob))
	s.Rooms().Join("b1", alice)
	s.Rooms().Join("b1", bob)
	s.Rooms().Join("b2", alice)

	s.disconnect(alice)

	// 成员表与连接索引同时清掉
	assert.False(t, s.Rooms().IsMember("alice", "b1"))
	assert.False(t, s.Rooms().IsMember("alice", "b2"))
	assert.False(t, s.ConnMgr().UserOnline("alice"))

	// b1 的对端收到 user_left；b2 没别人，无广播
	evt, data := drainOne(t, bob)
	assert.Equal(t, EvtUserLeft, evt)
	assert.Equal(t, "alice", data["userId"])
	assert.Equal(t, "b1", data["whiteboardId"])
	assertNoFrame(t, bob)

	// 断开连接的队列已关闭
	assert.Error(t, s.WriteTo(alice, []byte("x")))
}

func TestDisconnectUnauthenticatedIsLogOnly(t *testing.T) {
	s := newTestServer(t)

	anon := NewClient("c9", nil, 16) // 从未认证
	s.disconnect(anon)               // 不应 panic，不应触碰任何表

	assert.Equal(t, 0, s.ConnMgr().CountConns())
}

func TestDisconnectIdleUserNoBroadcast(t *testing.T) {
	s := newTestServer(t)

	alice := newTestClient("c1", "alice")
	bob := newTestClient("c2", "bob")
	require.NoError(t, s.ConnMgr().Add(alice))
	require.NoError(t, s.ConnMgr().Add(bob))
	s.Rooms().EnsureEntry("alice") // 认证了但没加入任何画板
	s.Rooms().Join("b1", bob)

	s.disconnect(alice)

	assertNoFrame(t, bob)
	assert.False(t, s.ConnMgr().UserOnline("alice"))
}

func TestRelayConcurrentWithDisconnect(t *testing.T) {
	// 对端正被 disconnect 清理时转发仍在跑：不允许 panic，
	// 且断开方的成员状态必须清理完整（不留半截）
	payload := []byte(`{"event":"draw_update","data":{"updateType":"stroke"}}`)
	for i := 0; i < 20; i++ {
		s := newTestServer(t)
		alice := newTestClient("a1", "alice")
		bob := newTestClient("b1", "bob")
		require.NoError(t, s.ConnMgr().Add(alice))
		require.NoError(t, s.ConnMgr().Add(bob))
		s.Rooms().Join("board-1", alice)
		s.Rooms().Join("board-1", bob)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for k := 0; k < 200; k++ {
				for _, peer := range s.Rooms().Peers("board-1", alice.ConnID) {
					_ = s.WriteTo(peer, payload)
				}
			}
		}()
		s.disconnect(bob)
		<-done

		assert.False(t, s.Rooms().IsMember("bob", "board-1"))
		assert.False(t, s.ConnMgr().UserOnline("bob"))
		assert.Empty(t, s.Rooms().Peers("board-1", alice.ConnID))
		assert.Error(t, s.WriteTo(bob, payload))
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	s := newTestServer(t)
	c := newTestClient("c1", "alice")

	err := s.Disp().Dispatch(&Context{S: s}, &Frame{Event: "no_such_event"}, c)
	require.Error(t, err)
	assert.Nil(t, s.Disp().GetHandler("no_such_event"))
}
