package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sudooom.mahjong/internal/auth"
	apperrors "sudooom.mahjong/pkg/errors"
	"sudooom.mahjong/pkg/response"
	"sudooom.mahjong/pkg/snowflake"
)

const maxNameLength = 32

// RegisterPlayerRequest 申请玩家身份
type RegisterPlayerRequest struct {
	Name string `json:"name" binding:"required"`
}

// RegisterPlayerResponse 玩家身份，未开启鉴权时不带 token
type RegisterPlayerResponse struct {
	PlayerID  string     `json:"playerId"`
	Name      string     `json:"name"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// PlayerHandler 玩家身份签发
type PlayerHandler struct {
	authService *auth.Service
	ids         *snowflake.Node
}

// NewPlayerHandler 创建玩家处理器
func NewPlayerHandler(authService *auth.Service, ids *snowflake.Node) *PlayerHandler {
	return &PlayerHandler{authService: authService, ids: ids}
}

// Register 分配稳定的玩家 ID，开启鉴权时一并签发 token
func (h *PlayerHandler) Register(c *gin.Context) {
	var req RegisterPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, apperrors.CodeInvalidParams, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLength {
		response.ErrorFromAppError(c, apperrors.ErrInvalidParams)
		return
	}

	resp := RegisterPlayerResponse{
		PlayerID: h.ids.Generate().String(),
		Name:     name,
	}

	if h.authService != nil {
		token, expiresAt, err := h.authService.GenerateToken(resp.PlayerID, name)
		if err != nil {
			response.ErrorFromAppError(c, apperrors.ErrServerError.Wrap(err))
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	response.Success(c, resp)
}
