package gateway

import (
	"WBProject/logger"
	"WBProject/tools/errs"
)

type Context struct {
	S *Server
}

type Handler interface {
	Event() string
	Handle(ctx *Context, f *Frame, c *Client) error
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

// Dispatch 未知事件名返回错误给读循环记日志；不回帧，理由同坏外壳
func (d *Dispatcher) Dispatch(ctx *Context, f *Frame, c *Client) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return errs.ErrMalformedEvent.WrapMsg("no handler for event", "event", f.Event)
	}
	return h.Handle(ctx, f, c)
}

func (d *Dispatcher) GetHandler(event string) Handler {
	h, ok := d.handlers[event]
	if !ok {
		logger.Infof("no handler for event=%s", event)
		return nil
	}
	return h
}
