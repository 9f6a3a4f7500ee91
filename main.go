package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"WBProject/global"
	"WBProject/logger"
	mid "WBProject/middleware"
	board "WBProject/module/board"
	boardsvc "WBProject/module/board/service"
	user "WBProject/module/user"
	usersvc "WBProject/module/user/service"
	"WBProject/service/gateway"
	"WBProject/service/gateway/handlers"
	"WBProject/service/mgo"
	jwtlib "WBProject/tools/security"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	global.ConfigAll(ctx)

	// 画板/用户存取都在 mongo：等首连成功再开门
	wctx, wcancel := context.WithTimeout(ctx, 30*time.Second)
	if err := mgo.WaitReady(wctx, mgo.Manager()); err != nil {
		wcancel()
		logger.Errorf("[main] mongo not ready: %v", err)
		os.Exit(1)
	}
	wcancel()
	db := mgo.Manager().DB()

	// 1) 协作方服务：身份解析 + 准入裁决
	jwtOpts := jwtlib.DefaultOptions(global.GetJwtSecret())
	authSvc := usersvc.NewAuthService(jwtOpts, usersvc.NewMongoStore(db))
	boardSvc := boardsvc.NewService(db)

	mid.ConfigAuth(authSvc.Resolve)

	// 2) 网关实例
	gwID := os.Getenv("WB_GATEWAY_ID")
	if gwID == "" {
		gwID = "wb_gw-1"
	}
	connMgr := gateway.NewConnManager(gwID)
	defer connMgr.Close()

	g := gateway.NewServer(gwID, gateway.Conf{}, authSvc, boardSvc, connMgr)
	g.Disp().Register(handlers.NewJoinHandler())
	g.Disp().Register(handlers.NewLeaveHandler())
	g.Disp().Register(handlers.NewDrawHandler())

	// 3) HTTP + WebSocket
	r := gin.New()
	r.Use(gin.Recovery())

	// 事件通道；守卫在前，HandleWS 里还有手动重认证兜底
	mid.GET(r, "/ws", g.HandleWS, mid.RouteOpt{IsAuth: true})

	userHandler := user.NewHandler(authSvc)
	mid.POST(r, "/api/auth/register", userHandler.HandlerRegister, mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/api/auth/login", userHandler.HandlerLogin, mid.RouteOpt{IsAuth: false})
	mid.GET(r, "/api/auth/me", userHandler.HandlerMe, mid.RouteOpt{IsAuth: true})

	boardHandler := board.NewHandler(boardSvc)
	mid.POST(r, "/api/whiteboards", boardHandler.HandlerCreate, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/whiteboards", boardHandler.HandlerList, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/whiteboards/:id", boardHandler.HandlerGet, mid.RouteOpt{IsAuth: true})
	mid.DELETE(r, "/api/whiteboards/:id", boardHandler.HandlerDelete, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/whiteboards/:id/collaborators", boardHandler.HandlerInvite, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/whiteboards/:id/snapshots", boardHandler.HandlerSaveSnapshot, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/whiteboards/:id/snapshots/latest", boardHandler.HandlerLatestSnapshot, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/whiteboards/:id/presence", g.HandlePresence, mid.RouteOpt{IsAuth: true})

	addr := os.Getenv("WB_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Infof("[HTTP] Listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Errorf("HTTP server failed: %v", err)
		os.Exit(1)
	}
}
