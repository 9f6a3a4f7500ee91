package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"WBProject/logger"
	midsec "WBProject/middleware/security"
	"WBProject/service/storage"
	"WBProject/tools/errs"
)

// RoomStats 观测口径的房间占用
type RoomStats struct {
	WhiteboardID string `json:"whiteboardId"`
	Occupancy    int    `json:"occupancy"` // 按用户去重
	Connections  int    `json:"connections"`
}

// Stats 本进程内存表的占用快照
func (s *Server) Stats(boardID string) RoomStats {
	return RoomStats{
		WhiteboardID: boardID,
		Occupancy:    s.rooms.Occupancy(boardID),
		Connections:  len(s.rooms.Peers(boardID, "")),
	}
}

// HandlePresence GET /api/whiteboards/:id/presence
// 需要准入：非成员不能偷看房间人数
func (s *Server) HandlePresence(c *gin.Context) {
	ident := midsec.IdentityFrom(c)
	if ident == nil {
		cerr := errs.ErrNoCredential
		c.JSON(http.StatusUnauthorized, &cerr)
		return
	}
	boardID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := s.access.CheckAccess(ctx, boardID, ident.UserID); err != nil {
		status := http.StatusForbidden
		if errs.ErrBoardNotFound.Is(err) {
			status = http.StatusNotFound
		}
		if ce := errs.AsCodeError(err); ce != nil {
			c.JSON(status, ce)
		} else {
			c.Status(status)
		}
		return
	}

	stats := s.Stats(boardID)

	// redis 镜像口径一并给出，便于跨进程观测比对；失败忽略
	if n, err := storage.RoomOccupancy(ctx, boardID); err == nil {
		c.JSON(http.StatusOK, gin.H{"local": stats, "mirror": n})
		return
	} else {
		logger.Debugf("[presence] mirror occupancy err board=%s: %v", boardID, err)
	}
	c.JSON(http.StatusOK, gin.H{"local": stats})
}
