package gateway

import (
	"encoding/json"

	"WBProject/tools/errs"
)

// 事件名（C→S / S→C）
const (
	EvtJoin       = "join_whiteboard"
	EvtJoined     = "joined_whiteboard"
	EvtJoinError  = "join_error"
	EvtUserJoined = "user_joined"

	EvtLeave    = "leave_whiteboard"
	EvtLeft     = "left_whiteboard"
	EvtUserLeft = "user_left"

	EvtDraw      = "draw_update"
	EvtDrawError = "draw_update_error"
)

// Frame 事件封包：{"event": "...", "data": {...}}
// data 的内容按事件各自解码；网关只校验外壳。
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// ParseFrame 解析外壳。坏外壳 -> ErrMalformedEvent（只拒绝本事件，连接保持）。
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.ErrMalformedEvent.WrapMsg(err.Error())
	}
	if f.Event == "" {
		return nil, errs.ErrMalformedEvent.WrapMsg("missing event name")
	}
	return &f, nil
}

func MarshalFrame(event string, data any) []byte {
	payload, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		// data 全是我们自己构造的可序列化结构，进到这里属于编码bug
		payload, _ = json.Marshal(map[string]any{"event": event})
	}
	return payload
}

// ---- C→S 负载 ----

type JoinPayload struct {
	WhiteboardID string `json:"whiteboardId"`
}

// DrawPayload updateType 语义上是 stroke/rectangle/circle/arrow/line/text/clear/delete，
// 但网关不认识的类型也原样转发（只做外壳校验，向前兼容新画法）。
type DrawPayload struct {
	WhiteboardID string         `json:"whiteboardId"`
	UpdateType   string         `json:"updateType"`
	Data         map[string]any `json:"data,omitempty"`
}

// ---- S→C 构造 ----

func BuildJoinAck(boardID string) []byte {
	return MarshalFrame(EvtJoined, map[string]any{
		"success":      true,
		"whiteboardId": boardID,
		"message":      "joined whiteboard",
	})
}

func BuildJoinError(boardID, message string) []byte {
	return MarshalFrame(EvtJoinError, map[string]any{
		"success":      false,
		"whiteboardId": boardID,
		"message":      message,
	})
}

func BuildUserJoined(boardID, userID, email string) []byte {
	return MarshalFrame(EvtUserJoined, map[string]any{
		"userId":       userID,
		"userEmail":    email,
		"whiteboardId": boardID,
	})
}

func BuildLeftAck(boardID string) []byte {
	return MarshalFrame(EvtLeft, map[string]any{
		"success":      true,
		"whiteboardId": boardID,
		"message":      "left whiteboard",
	})
}

func BuildUserLeft(boardID, userID, email string) []byte {
	return MarshalFrame(EvtUserLeft, map[string]any{
		"userId":       userID,
		"userEmail":    email,
		"whiteboardId": boardID,
	})
}

// BuildDrawUpdate 转发帧带上发送者身份和服务端时间戳（毫秒）
func BuildDrawUpdate(p *DrawPayload, senderID string, tsMillis int64) []byte {
	return MarshalFrame(EvtDraw, map[string]any{
		"whiteboardId": p.WhiteboardID,
		"updateType":   p.UpdateType,
		"data":         p.Data,
		"userId":       senderID,
		"timestamp":    tsMillis,
	})
}

func BuildDrawError(boardID, message string) []byte {
	return MarshalFrame(EvtDrawError, map[string]any{
		"success":      false,
		"whiteboardId": boardID,
		"message":      message,
	})
}
