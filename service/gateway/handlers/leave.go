package handlers

import (
	"context"
	"time"

	"WBProject/logger"
	"WBProject/service/gateway"
	"WBProject/service/storage"
	"WBProject/tools/decode"
)

type LeaveHandler struct{}

func NewLeaveHandler() gateway.Handler { return &LeaveHandler{} }

func (h *LeaveHandler) Event() string { return gateway.EvtLeave }

func (h *LeaveHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	p, err := decode.DecodeMap[gateway.JoinPayload](f.Data)
	if err != nil || p.WhiteboardID == "" {
		_ = ctx.S.WriteTo(c, gateway.BuildJoinError("", "malformed leave_whiteboard payload"))
		return nil
	}
	boardID := p.WhiteboardID

	// 退没加入过的房间也算成功（幂等）
	ctx.S.Rooms().Leave(boardID, c)

	mctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if merr := storage.RoomLeave(mctx, boardID, c.UserID); merr != nil {
		logger.Debugf("[leave] room mirror err board=%s: %v", boardID, merr)
	}
	cancel()

	if err := ctx.S.WriteTo(c, gateway.BuildLeftAck(boardID)); err != nil {
		logger.Infof("[leave] ack err connID=%s: %v", c.ConnID, err)
	}

	notice := gateway.BuildUserLeft(boardID, c.UserID, c.Email)
	for _, peer := range ctx.S.Rooms().Peers(boardID, c.ConnID) {
		if err := ctx.S.WriteTo(peer, notice); err != nil {
			logger.Infof("[leave] user_left notify err peer=%s: %v", peer.ConnID, err)
		}
	}

	logger.Infof("[leave] user=%s board=%s", c.UserID, boardID)
	return nil
}
