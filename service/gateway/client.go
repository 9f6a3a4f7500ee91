package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"WBProject/logger"
	"WBProject/tools/errs"
)

// Client represents one live connection admitted to the gateway.
// A single user may have multiple connections, each maintained separately;
// identity fields are attached once during authentication and never mutated after.
type Client struct {
	ConnID   string          // Unique connection ID (unique within the local gateway)
	UserID   string          // determined during authentication
	Email    string
	Nickname string
	WS       *websocket.Conn
	Send     chan []byte // Outbound queue (consumed by a single writer goroutine)

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient creates a new client connection object.
func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		closed: make(chan struct{}),
	}
}

func (c *Client) Authorized() bool { return c.UserID != "" }

// enqueue 非阻塞投递；慢客户端队列打满视为转发失败（不影响其他接收者）。
// Send 永远不 close：转发方和关闭方并发跑，往已关 channel 投递会 panic，
// 所以关闭只靠 closed 信号，shutdown 之后投进缓冲的帧随 writePump 退出一起丢弃。
func (c *Client) enqueue(payload []byte) error {
	select {
	case <-c.closed:
		return errs.ErrRelayFailure.WrapMsg("connection closed", "connID", c.ConnID)
	default:
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		return errs.ErrRelayFailure.WrapMsg("send queue full", "connID", c.ConnID)
	}
}

// shutdown 发出关闭信号；幂等
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

const (
	writeDeadline = 5 * time.Second
	pingEvery     = 25 * time.Second
)

// writePump 单写协程：只它碰 WS 写端，退出时关 socket
func (c *Client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		_ = c.WS.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.WS.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeDeadline))
			return
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[WS] write err connID=%s err=%v", c.ConnID, err)
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
