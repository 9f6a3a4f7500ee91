package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	midsec "WBProject/middleware/security"
	"WBProject/module/user/service"
	"WBProject/tools/errs"
)

type Handler struct {
	auth *service.AuthService
}

func NewHandler(auth *service.AuthService) *Handler {
	return &Handler{auth: auth}
}

type registerReq struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) HandlerRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		e := errs.ErrArgs.WithDetail(err.Error())
		c.JSON(http.StatusBadRequest, &e)
		return
	}
	u, err := h.auth.Register(c.Request.Context(), req.Nickname, req.Email, req.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		e := errs.ErrArgs.WithDetail(err.Error())
		c.JSON(http.StatusBadRequest, &e)
		return
	}
	token, u, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": u.UserID, "nickname": u.Nickname, "email": u.Email},
	})
}

// HandlerMe 守卫之后直接读 context 身份
func (h *Handler) HandlerMe(c *gin.Context) {
	u := midsec.IdentityFrom(c)
	if u == nil {
		e := errs.ErrNoCredential
		c.JSON(http.StatusUnauthorized, &e)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func writeErr(c *gin.Context, err error) {
	if ce := errs.AsCodeError(err); ce != nil {
		status := http.StatusBadRequest
		switch ce.Code {
		case errs.InvalidCredentialCode, errs.NoCredentialCode, errs.UnknownIdentityCode:
			status = http.StatusUnauthorized
		case errs.RecordNotFoundCode:
			status = http.StatusNotFound
		case errs.InternalCode:
			status = http.StatusInternalServerError
		}
		c.JSON(status, ce)
		return
	}
	e := errs.ErrInternal.WithDetail(err.Error())
	c.JSON(http.StatusInternalServerError, &e)
}
