package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(roomController *RoomController, tokenController *TokenController, socketController *SocketController, stunServers []string) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	if roomController != nil {
		router.GET("/health", roomController.Health)
	}

	if socketController != nil {
		router.GET("/ws", socketController.Serve)
	}

	api := router.Group("/api")

	if roomController != nil {
		rooms := api.Group("/rooms")
		rooms.POST("", roomController.CreateRoom)
		rooms.GET("/waiting/status", roomController.WaitingStatus)
		rooms.GET("/:roomID", roomController.GetRoom)
		rooms.POST("/:roomID/end", roomController.EndRoom)

		api.GET("/online", roomController.OnlineCount)
	}

	if tokenController != nil {
		api.GET("/token", tokenController.GenerateToken)
	}

	api.GET("/webrtc/config", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"stunServers": stunServers})
	})

	return router
}
