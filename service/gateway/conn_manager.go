package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"WBProject/tools/safe"
)

// ===== 配置 =====

type ManagerConf struct {
	IdleTTL    time.Duration    // 无心跳连接的 TTL（如 2m）
	SweepEvery time.Duration    // 清理周期（如 30s）
	Clock      func() time.Time // 可注入时钟（单测用）；nil => time.Now
}

func (c *ManagerConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 30 * time.Second
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 2 * time.Minute
	}
}

// ConnManager 连接索引：byConn 主索引，byUser 辅助索引。
// 只管连接本身；房间成员关系归 RoomTable。
type ConnManager struct {
	mu     sync.RWMutex
	byConn map[string]*Client            // connID -> client
	byUser map[string]map[string]*Client // userID -> (connID -> client)
	beat   map[string]time.Time          // connID -> 最近心跳

	conf     ManagerConf
	stopOnce sync.Once
	stopCh   chan struct{}
	gwID     string // 节点ID
}

func NewConnManager(gwID string) *ConnManager {
	return NewConnManagerWithConf(ManagerConf{}, gwID)
}

func NewConnManagerWithConf(conf ManagerConf, gwID string) *ConnManager {
	conf.norm()
	m := &ConnManager{
		byConn: make(map[string]*Client),
		byUser: make(map[string]map[string]*Client),
		beat:   make(map[string]time.Time),
		conf:   conf,
		gwID:   gwID,
		stopCh: make(chan struct{}),
	}
	safe.SafeGo(m.sweeper)
	return m
}

func (m *ConnManager) GwID() string { return m.gwID }

func (m *ConnManager) Close() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byConn {
		c.shutdown()
	}
	m.byConn = map[string]*Client{}
	m.byUser = map[string]map[string]*Client{}
	m.beat = map[string]time.Time{}
}

// Add 登记已认证连接；幂等（同 connID 重复登记直接覆盖）
func (m *ConnManager) Add(c *Client) error {
	if c == nil || c.ConnID == "" || c.UserID == "" {
		return errors.New("conn/user empty")
	}
	now := m.conf.Clock()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byConn[c.ConnID] = c
	if m.byUser[c.UserID] == nil {
		m.byUser[c.UserID] = make(map[string]*Client)
	}
	m.byUser[c.UserID][c.ConnID] = c
	m.beat[c.ConnID] = now
	return nil
}

// Remove 移除单条连接；幂等
func (m *ConnManager) Remove(connID string) {
	if connID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(connID)
}

func (m *ConnManager) removeLocked(connID string) {
	c, ok := m.byConn[connID]
	if !ok {
		return
	}
	delete(m.byConn, connID)
	delete(m.beat, connID)
	if mm := m.byUser[c.UserID]; mm != nil {
		delete(mm, connID)
		if len(mm) == 0 {
			delete(m.byUser, c.UserID)
		}
	}
}

func (m *ConnManager) GetByConn(connID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byConn[connID]
	return c, ok
}

// ListUser 用户所有连接
func (m *ConnManager) ListUser(userID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mm := m.byUser[userID]
	if len(mm) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(mm))
	for _, c := range mm {
		out = append(out, c)
	}
	return out
}

// UserOnline 用户是否还有活跃连接
func (m *ConnManager) UserOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser[userID]) > 0
}

func (m *ConnManager) CountConns() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byConn)
}

// Heartbeat 刷新某条连接的心跳
func (m *ConnManager) Heartbeat(connID string) {
	now := m.conf.Clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byConn[connID]; ok {
		m.beat[connID] = now
	}
}

// AttachPongHandler 绑定 gorilla/websocket 的 PongHandler，自动心跳续期。
// 握手成功后调用。
func (m *ConnManager) AttachPongHandler(conn *websocket.Conn, connID string) {
	if conn == nil || connID == "" {
		return
	}
	conn.SetPongHandler(func(appData string) error {
		m.Heartbeat(connID) // 连接可能刚好被清理，无所谓
		return nil
	})
}

// ===== 清理协程 =====

func (m *ConnManager) sweeper() {
	t := time.NewTicker(m.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case now := <-t.C:
			m.sweepOnce(now)
		}
	}
}

func (m *ConnManager) sweepOnce(now time.Time) {
	var expired []*Client

	m.mu.Lock()
	for id, last := range m.beat {
		if now.Sub(last) > m.conf.IdleTTL {
			if c, ok := m.byConn[id]; ok {
				expired = append(expired, c)
			}
			m.removeLocked(id)
		}
	}
	m.mu.Unlock()

	// 收集后统一关闭，避免持锁期间关 socket；
	// shutdown 触发 writePump 收尾，读循环随之退出并走正常 disconnect 清理
	for _, c := range expired {
		c.shutdown()
	}
}
