package gateway

import (
	"context"
	"time"

	usermodel "WBProject/module/user/model"
)

// IdentityResolver 凭证 -> 用户。
// 失败语义：ErrInvalidCredential / ErrUnknownIdentity（均为连接级致命）。
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*usermodel.User, error)
}

// AccessChecker 画板准入裁决（外部协作方，网关只消费不拥有）。
// nil = Allowed；ErrBoardNotFound / ErrAccessDenied = 拒绝准入。
type AccessChecker interface {
	CheckAccess(ctx context.Context, boardID, userID string) error
}

type Conf struct {
	SendQueueSize int           // 每连接出站队列长度
	PresenceTTL   time.Duration // redis 在线镜像 TTL
}

func (c *Conf) norm() {
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.PresenceTTL <= 0 {
		c.PresenceTTL = 2 * time.Minute
	}
}

type Server struct {
	gwID     string
	conf     Conf
	resolver IdentityResolver
	access   AccessChecker
	connMgr  *ConnManager
	rooms    *RoomTable
	disp     *Dispatcher
}

func NewServer(gwID string, conf Conf, resolver IdentityResolver, access AccessChecker, connMgr *ConnManager) *Server {
	conf.norm()
	return &Server{
		gwID:     gwID,
		conf:     conf,
		resolver: resolver,
		access:   access,
		connMgr:  connMgr,
		rooms:    NewRoomTable(),
		disp:     NewDispatcher(),
	}
}

func (s *Server) GwID() string { return s.gwID }

func (s *Server) ConnMgr() *ConnManager { return s.connMgr }

func (s *Server) Rooms() *RoomTable { return s.rooms }

func (s *Server) Disp() *Dispatcher { return s.disp }

func (s *Server) Access() AccessChecker { return s.access }

func (s *Server) Resolver() IdentityResolver { return s.resolver }

// WriteTo 给单个连接投递一帧；投不进去只记日志（对端要么慢要么已走）
func (s *Server) WriteTo(c *Client, payload []byte) error {
	return c.enqueue(payload)
}
