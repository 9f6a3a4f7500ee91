package handlers

import (
	"time"

	"WBProject/logger"
	"WBProject/service/gateway"
	"WBProject/tools/decode"
)

type DrawHandler struct{}

func NewDrawHandler() gateway.Handler { return &DrawHandler{} }

func (h *DrawHandler) Event() string { return gateway.EvtDraw }

func (h *DrawHandler) Handle(ctx *gateway.Context, f *gateway.Frame, c *gateway.Client) error {
	p, err := decode.DecodeMap[gateway.DrawPayload](f.Data)
	if err != nil || p.WhiteboardID == "" || p.UpdateType == "" {
		// 只校验外壳字段；data 内容不做语义解释
		_ = ctx.S.WriteTo(c, gateway.BuildDrawError("", "malformed draw_update payload"))
		return nil
	}
	boardID := p.WhiteboardID

	// 客户端可能在 join 回执落地前就开画：没有成员资格先隐式补一次 Join（自愈）。
	// 可用性优先于客户端观察到的事件顺序。
	if !ctx.S.Rooms().IsMember(c.UserID, boardID) {
		if aerr := checkAccess(ctx.S, boardID, c.UserID); aerr != nil {
			_ = ctx.S.WriteTo(c, gateway.BuildDrawError(boardID, denialMessage(aerr)))
			return nil
		}
		if err := admit(ctx.S, boardID, c); err != nil {
			return err
		}
	}

	// 裁决是异步IO，回来后按当前表取对端；发送者自己排除在转发之外
	out := gateway.BuildDrawUpdate(p, c.UserID, time.Now().UnixMilli())
	peers := ctx.S.Rooms().Peers(boardID, c.ConnID)

	var relayErr error
	for _, peer := range peers {
		if err := ctx.S.WriteTo(peer, out); err != nil {
			// 单个接收者失败不影响已发出去的其他接收者
			relayErr = err
			logger.Infof("[draw] relay err board=%s peer=%s: %v", boardID, peer.ConnID, err)
		}
	}

	// 零对端是合法状态（独自编辑），不算错误；
	// 真正的转发失败只报给发送者，绝不断连接
	if relayErr != nil {
		_ = ctx.S.WriteTo(c, gateway.BuildDrawError(boardID, "failed to relay update to some peers"))
	}
	return nil
}
