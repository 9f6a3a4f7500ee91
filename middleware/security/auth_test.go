package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usermodel "WBProject/module/user/model"
	"WBProject/tools/errs"
)

func reqWith(t *testing.T, mod func(r *http.Request)) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if mod != nil {
		mod(r)
	}
	return r
}

func TestExtractCredentialPriority(t *testing.T) {
	opts := DefaultOptions()

	// 四处齐备时握手字段优先
	r := reqWith(t, func(r *http.Request) {
		r.Header.Set("x-auth-token", "tok-header")
		r.URL.RawQuery = "token=tok-query"
		r.AddCookie(&http.Cookie{Name: "wb_token", Value: "tok-cookie"})
		r.Header.Set("Authorization", "Bearer tok-bearer")
	})
	tok, err := ExtractCredential(r, opts)
	require.NoError(t, err)
	assert.Equal(t, "tok-header", tok)

	// 去掉握手字段 -> 查询参数
	r.Header.Del("x-auth-token")
	tok, err = ExtractCredential(r, opts)
	require.NoError(t, err)
	assert.Equal(t, "tok-query", tok)

	// 去掉查询参数 -> cookie
	r.URL.RawQuery = ""
	tok, err = ExtractCredential(r, opts)
	require.NoError(t, err)
	assert.Equal(t, "tok-cookie", tok)

	// 只剩 Bearer
	r = reqWith(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer tok-bearer")
	})
	tok, err = ExtractCredential(r, opts)
	require.NoError(t, err)
	assert.Equal(t, "tok-bearer", tok)
}

func TestExtractCredentialMissing(t *testing.T) {
	r := reqWith(t, nil)
	_, err := ExtractCredential(r, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errs.ErrNoCredential.Is(err))
}

func TestExtractCredentialSkipsEmptyValues(t *testing.T) {
	// 空白值当不存在，继续往低优先级找
	r := reqWith(t, func(r *http.Request) {
		r.Header.Set("x-auth-token", "   ")
		r.URL.RawQuery = "token=tok-query"
	})
	tok, err := ExtractCredential(r, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "tok-query", tok)
}

func guardedRouter(resolve ResolveFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", Middleware(nil, resolve), func(c *gin.Context) {
		u := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"userId": u.UserID})
	})
	return r
}

func TestMiddlewareSetsIdentity(t *testing.T) {
	router := guardedRouter(func(_ context.Context, credential string) (*usermodel.User, error) {
		require.Equal(t, "tok-good", credential)
		return &usermodel.User{UserID: "alice"}, nil
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, reqWith(t, func(r *http.Request) {
		r.Header.Set("x-auth-token", "tok-good")
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestMiddlewareRejects(t *testing.T) {
	router := guardedRouter(func(_ context.Context, _ string) (*usermodel.User, error) {
		return nil, errs.ErrInvalidCredential.Wrap()
	})

	// 无凭证
	w := httptest.NewRecorder()
	router.ServeHTTP(w, reqWith(t, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 有凭证但解析失败
	w = httptest.NewRecorder()
	router.ServeHTTP(w, reqWith(t, func(r *http.Request) {
		r.Header.Set("x-auth-token", "tok-bad")
	}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
