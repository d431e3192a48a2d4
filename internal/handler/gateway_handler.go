package handler

import (
	"context"
	"log/slog"

	"sudooom.mahjong/internal/room"
	"sudooom.mahjong/pkg/proto"
)

// Replier 把回复送回发起请求的连接
type Replier interface {
	Reply(endpoint room.Endpoint, playerID string, env proto.Envelope) error
}

// GatewayHandler 处理 Access 节点经 NATS 转发的上行消息
type GatewayHandler struct {
	game    *GameHandler
	replier Replier
	logger  *slog.Logger
}

// NewGatewayHandler 创建网关处理器
func NewGatewayHandler(game *GameHandler, replier Replier) *GatewayHandler {
	return &GatewayHandler{
		game:    game,
		replier: replier,
		logger:  slog.Default().With("component", "GatewayHandler"),
	}
}

// HandleGameRequest 实现 nats.MessageHandler
func (h *GatewayHandler) HandleGameRequest(ctx context.Context, req *proto.GameRequest, accessNodeId string, connId int64) {
	caller := Caller{
		Endpoint: room.Endpoint{Node: accessNodeId, ConnID: connId},
		PlayerID: req.PlayerId,
	}

	reply, playerID := h.game.Handle(ctx, caller, req.Request)
	if err := h.replier.Reply(caller.Endpoint, playerID, reply); err != nil {
		h.logger.Warn("Failed to reply",
			"accessNodeId", accessNodeId,
			"connId", connId,
			"type", reply.T,
			"error", err)
	}
}

// HandlePlayerOffline 实现 nats.MessageHandler
func (h *GatewayHandler) HandlePlayerOffline(ctx context.Context, event *proto.PlayerOffline, accessNodeId string) {
	h.game.Disconnect(ctx, Caller{
		Endpoint: room.Endpoint{Node: accessNodeId, ConnID: event.ConnId},
		PlayerID: event.PlayerId,
	})
}
