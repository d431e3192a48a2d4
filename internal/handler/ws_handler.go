package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sudooom.mahjong/internal/connection"
	"sudooom.mahjong/internal/room"
	apperrors "sudooom.mahjong/pkg/errors"
	"sudooom.mahjong/pkg/proto"
	"sudooom.mahjong/pkg/snowflake"
)

// WSHandler WebSocket 接入
type WSHandler struct {
	game     *GameHandler
	manager  *connection.Manager
	ids      *snowflake.Node
	opts     connection.Options
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler 创建 WebSocket 处理器
func NewWSHandler(game *GameHandler, manager *connection.Manager, ids *snowflake.Node, opts connection.Options) *WSHandler {
	return &WSHandler{
		game:    game,
		manager: manager,
		ids:     ids,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: slog.Default().With("component", "WSHandler"),
	}
}

// ServeWS 升级连接并阻塞直到连接关闭
func (h *WSHandler) ServeWS(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", "error", err, "remote", c.ClientIP())
		return
	}

	conn := connection.New(h.ids.Generate().Int64(), ws, h.opts)
	h.manager.Add(conn)
	defer h.manager.Remove(conn.ID())

	h.logger.Info("Connection established",
		"connId", conn.ID(),
		"remote", c.ClientIP(),
		"total", h.manager.Count())

	conn.Serve(context.Background(), h)
}

// HandleFrame 实现 connection.FrameHandler
func (h *WSHandler) HandleFrame(ctx context.Context, conn *connection.Connection, data []byte) {
	var req proto.Envelope
	if err := json.Unmarshal(data, &req); err != nil {
		h.reply(conn, errorReply("", apperrors.ErrInvalidParams.Wrap(err)))
		return
	}

	reply, playerID := h.game.Handle(ctx, callerOf(conn), req)
	if playerID != "" && playerID != conn.PlayerID() {
		conn.BindPlayer(playerID)
	}
	h.reply(conn, reply)
}

// HandleClose 实现 connection.FrameHandler
func (h *WSHandler) HandleClose(ctx context.Context, conn *connection.Connection) {
	h.logger.Info("Connection closed", "connId", conn.ID(), "playerId", conn.PlayerID())
	h.game.Disconnect(ctx, callerOf(conn))
}

func (h *WSHandler) reply(conn *connection.Connection, env proto.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("Failed to marshal reply", "connId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		h.logger.Warn("Failed to send reply", "connId", conn.ID(), "type", env.T, "error", err)
	}
}

func callerOf(conn *connection.Connection) Caller {
	return Caller{
		Endpoint: room.Endpoint{Node: room.LocalNode, ConnID: conn.ID()},
		PlayerID: conn.PlayerID(),
	}
}
