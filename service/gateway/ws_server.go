package gateway

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"WBProject/logger"
	midsec "WBProject/middleware/security"
	usermodel "WBProject/module/user/model"
	"WBProject/service/storage"
	"WBProject/tools/errs"
	"WBProject/tools/ids"
	"WBProject/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS 连接生命周期入口：认证 -> 登记 -> 读循环 -> 断开清理。
// 状态机：Connecting -> Authenticated -> {Idle, InRoom} -> Disconnected。
func (s *Server) HandleWS(c *gin.Context) {
	// 路由上的守卫先跑；有些绑定方式钩子顺序没保证，这里兜底再认证一次。
	// 同一份解析逻辑两处调用，不复制提取/校验代码。
	ident := midsec.IdentityFrom(c)
	if ident == nil {
		var err error
		ident, err = s.authenticate(c.Request)
		if err != nil {
			// 认证失败对连接是致命的：升级之前直接拒绝
			logger.Infof("[HandleWS] reject unauthenticated conn remote=%s err=%v",
				c.Request.RemoteAddr, err)
			status := http.StatusUnauthorized
			if ce := errs.AsCodeError(err); ce != nil {
				c.JSON(status, ce)
			} else {
				c.Status(status)
			}
			return
		}
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// 常见：非 WebSocket 请求/握手失败
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), ws, s.conf.SendQueueSize)
	client.UserID = ident.UserID
	client.Email = ident.Email
	client.Nickname = ident.Nickname

	if err := s.connMgr.Add(client); err != nil {
		logger.Errorf("[HandleWS] register conn err: %v", err)
		_ = ws.Close()
		return
	}
	s.connMgr.AttachPongHandler(ws, client.ConnID)

	// 认证成功：种空成员集合（幂等——同用户第二条连接不得清掉第一条的成员关系）
	s.rooms.EnsureEntry(client.UserID)

	// redis 在线镜像，失败只记日志
	s.mirrorOnline(client.UserID)

	safe.SafeGo(client.writePump)

	logger.Infof("[HandleWS] connected connID=%s user=%s remote=%v",
		client.ConnID, client.UserID, ws.RemoteAddr())

	s.readLoop(client)
	s.disconnect(client)
}

// authenticate 手动重认证兜底（守卫没跑到时）
func (s *Server) authenticate(r *http.Request) (*usermodel.User, error) {
	cred, err := midsec.ExtractCredential(r, midsec.DefaultOptions())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	return s.resolver.Resolve(ctx, cred)
}

// readLoop 只读不写；出错即退出（写协程收尾）
func (s *Server) readLoop(client *Client) {
	for {
		mt, data, rerr := client.WS.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed connID=%s err=%v", client.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout connID=%s err=%v", client.ConnID, rerr)
			} else {
				logger.Infof("[WS] read err connID=%s err=%v", client.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.connMgr.Heartbeat(client.ConnID)

		frame, perr := ParseFrame(data)
		if perr != nil {
			// 坏外壳只记日志不回帧：协议没有通用错误事件，
			// 连 event 名都解不出来就没有对应的 *_error 可回。连接保持。
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] ParseFrame err connID=%s err=%v sample=%q len=%d",
				client.ConnID, perr, sample, len(data))
			continue
		}

		if err := s.disp.Dispatch(&Context{S: s}, frame, client); err != nil {
			// 事件级错误不落到连接：handler 已经给发送者回了私有错误帧
			logger.Infof("[WS] dispatch event=%s connID=%s err=%v", frame.Event, client.ConnID, err)
		}
	}
}

// disconnect 断开清理：传输层房间注销 + 成员表整体删除，二者必须同时完成。
// 未认证的断开只记日志（不会走到这里注册的状态）。
func (s *Server) disconnect(client *Client) {
	if !client.Authorized() {
		logger.Infof("[WS] unauthenticated disconnect connID=%s", client.ConnID)
		client.shutdown()
		return
	}

	boards := s.rooms.DropConn(client)
	s.connMgr.Remove(client.ConnID)

	// 先把本地状态清干净再广播离开，离线用户绝不会再出现在任何广播里
	for _, boardID := range boards {
		for _, peer := range s.rooms.Peers(boardID, client.ConnID) {
			if err := peer.enqueue(BuildUserLeft(boardID, client.UserID, client.Email)); err != nil {
				logger.Infof("[WS] user_left notify err board=%s peer=%s err=%v",
					boardID, peer.ConnID, err)
			}
		}
	}

	s.mirrorOffline(client.UserID, boards)

	client.shutdown()
	logger.Infof("[WS] disconnected connID=%s user=%s boards=%d",
		client.ConnID, client.UserID, len(boards))
}

// ---- redis 观测镜像（失败只记日志，绝不影响事件处理）----

func (s *Server) mirrorOnline(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := storage.PresenceOnline(ctx, userID, s.gwID, s.conf.PresenceTTL); err != nil {
		logger.Debugf("[presence] online mirror err user=%s: %v", userID, err)
	}
}

func (s *Server) mirrorOffline(userID string, boards []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// 同用户还有别的连接在线就不摘在线键
	if !s.connMgr.UserOnline(userID) {
		if err := storage.PresenceOffline(ctx, userID); err != nil {
			logger.Debugf("[presence] offline mirror err user=%s: %v", userID, err)
		}
	}
	for _, boardID := range boards {
		if err := storage.RoomLeave(ctx, boardID, userID); err != nil {
			logger.Debugf("[presence] room leave mirror err board=%s: %v", boardID, err)
		}
	}
}
