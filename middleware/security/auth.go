package security

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	usermodel "WBProject/module/user/model"
	"WBProject/tools/errs"
)

// —— context key ——
// 后续模块统一用这个 key 读取已解析身份
const CtxIdentityKey = "wbIdentity"

// ResolveFunc 把原始凭证解析成用户。由 user 服务提供实现。
type ResolveFunc func(ctx context.Context, credential string) (*usermodel.User, error)

type Options struct {
	HeaderToken               string // 握手字段，默认 "x-auth-token"
	QueryToken                string // 默认 "token"
	CookieToken               string // 默认 "wb_token"
	EnableAuthorizationBearer bool   // 默认 true
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "x-auth-token",
		QueryToken:                "token",
		CookieToken:               "wb_token",
		EnableAuthorizationBearer: true,
	}
}

// ExtractCredential 按固定优先级提取凭证，先到先得：
// (a) 握手头字段 -> (b) 查询参数 -> (c) cookie -> (d) Authorization: Bearer。
// 四处全无 -> ErrNoCredential。
// 单独提出来，守卫中间件和连接打开时的兜底走同一份逻辑。
func ExtractCredential(r *http.Request, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if tok := strings.TrimSpace(r.Header.Get(opts.HeaderToken)); tok != "" {
		return tok, nil
	}
	if tok := strings.TrimSpace(r.URL.Query().Get(opts.QueryToken)); tok != "" {
		return tok, nil
	}
	if ck, err := r.Cookie(opts.CookieToken); err == nil {
		if tok := strings.TrimSpace(ck.Value); tok != "" {
			return tok, nil
		}
	}
	if opts.EnableAuthorizationBearer {
		if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				if tok := strings.TrimSpace(authz[len("bearer "):]); tok != "" {
					return tok, nil
				}
			}
		}
	}
	return "", errs.ErrNoCredential.Wrap()
}

// Middleware 前置守卫：提取+解析凭证，把身份写进 gin context。
// 解析失败直接 401 中止（认证失败对连接是致命的）。
func Middleware(opts *Options, resolve ResolveFunc) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token, err := ExtractCredential(c.Request, opts)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		u, err := resolve(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		c.Set(CtxIdentityKey, u)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	if ce := errs.AsCodeError(err); ce != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ce)
		return
	}
	cerr := errs.ErrInvalidCredential
	c.AbortWithStatusJSON(http.StatusUnauthorized, &cerr)
}

// IdentityFrom 从 gin context 取已解析身份；守卫没跑到就是 nil
func IdentityFrom(c *gin.Context) *usermodel.User {
	v, ok := c.Get(CtxIdentityKey)
	if !ok {
		return nil
	}
	u, _ := v.(*usermodel.User)
	return u
}
