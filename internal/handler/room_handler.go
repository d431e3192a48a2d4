package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.mahjong/internal/repository"
	"sudooom.mahjong/internal/room"
	apperrors "sudooom.mahjong/pkg/errors"
	"sudooom.mahjong/pkg/response"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryLister 查询房间历史对局
type HistoryLister interface {
	ListByRoom(ctx context.Context, roomID string, limit int) ([]repository.GameResult, error)
}

// RoomHandler 房间查询
type RoomHandler struct {
	roomService *room.Service
	history     HistoryLister // nil 表示未启用数据库
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(roomService *room.Service, history HistoryLister) *RoomHandler {
	return &RoomHandler{roomService: roomService, history: history}
}

// GetRoom 房间公开概况，不含任何手牌
func (h *RoomHandler) GetRoom(c *gin.Context) {
	summary, err := h.roomService.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	response.Success(c, summary)
}

// ListRooms 所有房间概况
func (h *RoomHandler) ListRooms(c *gin.Context) {
	summaries := make([]room.Summary, 0, h.roomService.Registry().Count())
	h.roomService.Registry().Range(func(r *room.Room) bool {
		summaries = append(summaries, r.Summary())
		return true
	})
	response.Success(c, summaries)
}

// GetHistory 房间最近的对局结果
func (h *RoomHandler) GetHistory(c *gin.Context) {
	if h.history == nil {
		response.ErrorFromAppError(c, apperrors.ErrHistoryUnavailable)
		return
	}

	limit := defaultHistoryLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			response.ErrorFromAppError(c, apperrors.ErrInvalidParams)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	results, err := h.history.ListByRoom(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.ErrorFromAppError(c, apperrors.ErrDBError.Wrap(err))
		return
	}
	response.Success(c, results)
}
