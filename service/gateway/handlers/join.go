package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"WBProject/logger"
	"WBProject/service/gateway"
	"WBProject/service/storage"
	"WBProject/tools/decode"
	"WBProject/tools/errs"
)

const accessCheckTimeout = 3 * time.Second

type JoinHandler struct{}

func NewJoinHandler() gateway.Handler { return &JoinHandler{} }

func (h *JoinHandler) Event() string { return gateway.EvtJoin }

func (h *JoinHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	p, err := decode.DecodeMap[gateway.JoinPayload](f.Data)
	if err != nil || p.WhiteboardID == "" {
		// 事件级错误：私有回执，连接保持
		_ = ctx.S.WriteTo(c, gateway.BuildJoinError("", "malformed join_whiteboard payload"))
		return nil
	}
	boardID := p.WhiteboardID
	if _, perr := uuid.Parse(boardID); perr != nil {
		_ = ctx.S.WriteTo(c, gateway.BuildJoinError(boardID, "whiteboardId must be a uuid"))
		return nil
	}

	if err := checkAccess(ctx.S, boardID, c.UserID); err != nil {
		// NotFound / Forbidden 同样拒绝准入，但给可区分的消息；无广播，不罚重试
		_ = ctx.S.WriteTo(c, gateway.BuildJoinError(boardID, denialMessage(err)))
		return nil
	}

	return admit(ctx.S, boardID, c)
}

// admit 准入成功后的共同路径：注册 -> 私有成功回执 -> user_joined 广播（排除加入者）。
// draw 的隐式补入也走这里。
func admit(s *gateway.Server, boardID string, c *gateway.Client) error {
	// 裁决是异步IO，回来之后按当前表重新注册，不信任 await 之前的快照
	s.Rooms().Join(boardID, c)

	mctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := storage.RoomJoin(mctx, boardID, c.UserID); err != nil {
		logger.Debugf("[join] room mirror err board=%s: %v", boardID, err)
	}
	cancel()

	if err := s.WriteTo(c, gateway.BuildJoinAck(boardID)); err != nil {
		logger.Infof("[join] ack err connID=%s: %v", c.ConnID, err)
	}

	notice := gateway.BuildUserJoined(boardID, c.UserID, c.Email)
	for _, peer := range s.Rooms().Peers(boardID, c.ConnID) {
		if err := s.WriteTo(peer, notice); err != nil {
			logger.Infof("[join] user_joined notify err peer=%s: %v", peer.ConnID, err)
		}
	}

	logger.Infof("[join] user=%s board=%s occupancy=%d", c.UserID, boardID, s.Rooms().Occupancy(boardID))
	return nil
}

func checkAccess(s *gateway.Server, boardID, userID string) error {
	cctx, cancel := context.WithTimeout(context.Background(), accessCheckTimeout)
	defer cancel()
	return s.Access().CheckAccess(cctx, boardID, userID)
}

func denialMessage(err error) string {
	switch {
	case errs.ErrBoardNotFound.Is(err):
		return "whiteboard not found"
	case errs.ErrAccessDenied.Is(err):
		return "you do not have access to this whiteboard"
	default:
		return "access check failed, try again"
	}
}
