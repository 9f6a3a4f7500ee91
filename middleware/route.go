package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "WBProject/middleware/security"
)

// RouteOpt 配置选项
type RouteOpt struct {
	IsAuth bool
}

var authMiddleware gin.HandlerFunc

// ConfigAuth 注入鉴权中间件（main 初始化时调用一次）
func ConfigAuth(resolve midsec.ResolveFunc) {
	authMiddleware = midsec.Middleware(midsec.DefaultOptions(), resolve)
}

// guard 取鉴权中间件。要求鉴权但 ConfigAuth 没先调用时直接 panic：
// 漏配只能让路由注册失败，绝不能把受保护的路径裸着放出去。
func guard(opt RouteOpt) gin.HandlerFunc {
	if !opt.IsAuth {
		return nil
	}
	if authMiddleware == nil {
		panic("middleware: ConfigAuth must be called before registering IsAuth routes")
	}
	return authMiddleware
}

// POST 封装
func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if mw := guard(opt); mw != nil {
		r.POST(path, mw, handler)
	} else {
		r.POST(path, handler)
	}
}

// GET 封装
func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if mw := guard(opt); mw != nil {
		r.GET(path, mw, handler)
	} else {
		r.GET(path, handler)
	}
}

// DELETE 封装
func DELETE(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if mw := guard(opt); mw != nil {
		r.DELETE(path, mw, handler)
	} else {
		r.DELETE(path, handler)
	}
}
