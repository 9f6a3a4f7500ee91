package gateway

import (
	"sync"
)

const roomPrefix = "whiteboard:"

// RoomName 由画板ID确定性地推导广播组名
func RoomName(boardID string) string { return roomPrefix + boardID }

// RoomTable 是成员关系的唯一事实：
//
//	members: userID -> 已准入的画板集合（按用户，不按连接）
//	rooms:   房间名 -> connID -> client（传输层注册，按连接）
//
// 写入只通过本结构的方法（单写者归属，见设计笔记）；其他组件只读或发更新请求。
type RoomTable struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
	rooms   map[string]map[string]*Client
}

func NewRoomTable() *RoomTable {
	return &RoomTable{
		members: make(map[string]map[string]struct{}),
		rooms:   make(map[string]map[string]*Client),
	}
}

// EnsureEntry 认证成功后给用户种一个空成员集合。
// 幂等：同一用户的第二条连接绝不能清掉第一条已有的成员关系。
func (t *RoomTable) EnsureEntry(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.members[userID] == nil {
		t.members[userID] = make(map[string]struct{})
	}
}

// Join 准入之后调用：注册该连接的传输层房间并把画板记入用户成员集合。幂等。
func (t *RoomTable) Join(boardID string, c *Client) {
	room := RoomName(boardID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.members[c.UserID] == nil {
		t.members[c.UserID] = make(map[string]struct{})
	}
	t.members[c.UserID][boardID] = struct{}{}

	if t.rooms[room] == nil {
		t.rooms[room] = make(map[string]*Client)
	}
	t.rooms[room][c.ConnID] = c
}

// Leave 退出房间。从未加入也算成功（no-op）。
// 成员关系按用户记账，所以这里整体摘掉该用户对这块画板的资格（源行为，见设计笔记）。
func (t *RoomTable) Leave(boardID string, c *Client) {
	room := RoomName(boardID)
	t.mu.Lock()
	defer t.mu.Unlock()

	if conns := t.rooms[room]; conns != nil {
		delete(conns, c.ConnID)
		if len(conns) == 0 {
			delete(t.rooms, room)
		}
	}
	if set := t.members[c.UserID]; set != nil {
		delete(set, boardID)
	}
}

// DropConn 断开路径专用：把该连接从所有房间注销，并整体删除该用户的成员条目
// （用户级成员表的既定简化——另一条同用户连接的资格也随之失效，见设计笔记）。
// 返回该连接曾注册过的画板ID，供断开通知用。
func (t *RoomTable) DropConn(c *Client) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var boards []string
	for room, conns := range t.rooms {
		if _, ok := conns[c.ConnID]; !ok {
			continue
		}
		delete(conns, c.ConnID)
		if len(conns) == 0 {
			delete(t.rooms, room)
		}
		boards = append(boards, room[len(roomPrefix):])
	}
	delete(t.members, c.UserID)
	return boards
}

// IsMember 当前成员资格（每次处理事件都重新查表，不信任 await 之前的快照）
func (t *RoomTable) IsMember(userID, boardID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set, ok := t.members[userID]
	if !ok {
		return false
	}
	_, ok = set[boardID]
	return ok
}

// Boards 用户当前已加入的画板
func (t *RoomTable) Boards(userID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.members[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	return out
}

// Peers 房间里除 exceptConnID 以外的所有连接（发送者自己永远不收自己的转发）
func (t *RoomTable) Peers(boardID, exceptConnID string) []*Client {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conns := t.rooms[RoomName(boardID)]
	if len(conns) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(conns))
	for id, c := range conns {
		if id == exceptConnID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Occupancy 房间人数（按用户去重，观测用）
func (t *RoomTable) Occupancy(boardID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conns := t.rooms[RoomName(boardID)]
	if len(conns) == 0 {
		return 0
	}
	users := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		users[c.UserID] = struct{}{}
	}
	return len(users)
}
