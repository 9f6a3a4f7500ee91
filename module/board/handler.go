package board

import (
	"net/http"

	"github.com/gin-gonic/gin"

	midsec "WBProject/middleware/security"
	"WBProject/module/board/service"
	usermodel "WBProject/module/user/model"
	"WBProject/tools/errs"
)

// REST CRUD 面：薄壳，准入判断全在 service 里
type Handler struct {
	boards *service.Service
}

func NewHandler(boards *service.Service) *Handler {
	return &Handler{boards: boards}
}

func (h *Handler) ident(c *gin.Context) *usermodel.User {
	u := midsec.IdentityFrom(c)
	if u == nil {
		e := errs.ErrNoCredential
		c.AbortWithStatusJSON(http.StatusUnauthorized, &e)
	}
	return u
}

type createReq struct {
	Title string `json:"title"`
}

func (h *Handler) HandlerCreate(c *gin.Context) {
	u := h.ident(c)
	if u == nil {
		return
	}
	var req createReq
	_ = c.ShouldBindJSON(&req)
	b, err := h.boards.Create(c.Request.Context(), u.UserID, req.Title)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"whiteboard": b})
}

func (h *Handler) HandlerList(c *gin.Context) {
	u := h.ident(c)
	if u == nil {
		return
	}
	list, err := h.boards.ListForUser(c.Request.Context(), u.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"whiteboards": list})
}

func (h *Handler) HandlerGet(c *gin.Context) {
	u := h.ident(c)
	if u == nil {
		return
	}
	boardID := c.Param("id")
	if err := h.boards.CheckAccess(c.Request.Context(), boardID, u.UserID); err != nil {
		writeErr(c, err)
		return
	}
	b, err := h.boards.Get(c.Request.Context(), boardID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"whiteboard": b})
}

func (h *Handler) HandlerDelete(c *gin.Context) {
	u := h.ident(c)
	if u == nil {
		return
	}
	if err := h.boards.Delete(c.Request.Context(), c.Param("id"), u.UserID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type inviteReq struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handler) HandlerInvite(c *gin.Context) {
	u := h.ident(c)
	if u == nil {
		return
	}
	var req inviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		e := errs.ErrArgs.WithDetail(err.Error())
		c.JSON(http.StatusBadRequest, &e)
		return
	}
	if err := h.boards.AddCollaborator(c.Request.Context(), c.Param("id"), u.UserID, req.UserID); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type snapshotReq struct {
	Elements []map[string]any `json:"elements"`
}

// HandlerSaveSnapshot 显式保存：实时事件流永不落库，只有这条路径写快照
func (h *Handler) HandlerSaveSnapshot(c *gin.Context) {
	u := h.ident(c)
	if u == nil {
		return
	}
	var req snapshotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		e := errs.ErrArgs.WithDetail(err.Error())
		c.JSON(http.StatusBadRequest, &e)
		return
	}
	snap, err := h.boards.SaveSnapshot(c.Request.Context(), c.Param("id"), u.UserID, req.Elements)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap})
}

func (h *Handler) HandlerLatestSnapshot(c *gin.Context) {
	u := h.ident(c)
	if u == nil {
		return
	}
	snap, err := h.boards.LatestSnapshot(c.Request.Context(), c.Param("id"), u.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap})
}

func writeErr(c *gin.Context, err error) {
	if ce := errs.AsCodeError(err); ce != nil {
		status := http.StatusBadRequest
		switch ce.Code {
		case errs.BoardNotFoundCode, errs.RecordNotFoundCode:
			status = http.StatusNotFound
		case errs.AccessDeniedCode:
			status = http.StatusForbidden
		case errs.InternalCode:
			status = http.StatusInternalServerError
		}
		c.JSON(status, ce)
		return
	}
	e := errs.ErrInternal.WithDetail(err.Error())
	c.JSON(http.StatusInternalServerError, &e)
}
