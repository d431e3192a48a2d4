package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.mahjong/internal/config"
	"sudooom.mahjong/internal/handler"
	"sudooom.mahjong/internal/health"
	"sudooom.mahjong/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	checker *health.Checker,
	wsHandler *handler.WSHandler,
	playerHandler *handler.PlayerHandler,
	roomHandler *handler.RoomHandler,
) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.GET("/ws", wsHandler.ServeWS)
	r.GET("/health", gin.WrapH(checker))
	r.GET("/ready", func(c *gin.Context) {
		if checker.IsHealthy(c.Request.Context()) {
			c.String(http.StatusOK, "OK")
			return
		}
		c.String(http.StatusServiceUnavailable, "Not Ready")
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		v1.POST("/players", playerHandler.Register)

		rooms := v1.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.GET("/:id/history", roomHandler.GetHistory)
		}
	}

	return r
}
