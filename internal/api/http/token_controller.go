package http

import (
	"errors"
	"net/http"

	"github.com/RohanJose/Chat-APP/internal/service"
	"github.com/gin-gonic/gin"
)

type TokenController struct {
	tokens service.TokenInteractor
}

func NewTokenController(tokens service.TokenInteractor) *TokenController {
	return &TokenController{tokens: tokens}
}

// GenerateToken handles GET /api/token?roomName=&userName=: a media-server
// access token for the given room and identity.
func (c *TokenController) GenerateToken(ctx *gin.Context) {
	roomName := ctx.Query("roomName")
	userName := ctx.Query("userName")

	if roomName == "" || userName == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing roomName or userName"})
		return
	}

	token, err := c.tokens.CreateToken(roomName, userName)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrMediaNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, gin.H{"error": "Failed to generate token"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    token,
		"roomName": roomName,
		"userName": userName,
	})
}
