package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"sudooom.mahjong/internal/auth"
	"sudooom.mahjong/internal/game/tile"
	"sudooom.mahjong/internal/room"
	apperrors "sudooom.mahjong/pkg/errors"
	"sudooom.mahjong/pkg/proto"
	"sudooom.mahjong/pkg/snowflake"
)

// Caller 请求来源：连接端点 + 已绑定身份
type Caller struct {
	Endpoint room.Endpoint
	PlayerID string
}

// GameHandler 游戏请求处理器，WebSocket 与 NATS 网关共用
type GameHandler struct {
	roomService *room.Service
	authService *auth.Service // nil 表示不校验 token
	ids         *snowflake.Node
	logger      *slog.Logger
}

// NewGameHandler 创建游戏请求处理器
func NewGameHandler(roomService *room.Service, authService *auth.Service, ids *snowflake.Node) *GameHandler {
	return &GameHandler{
		roomService: roomService,
		authService: authService,
		ids:         ids,
		logger:      slog.Default().With("component", "GameHandler"),
	}
}

// Handle 处理一个客户端请求，返回给请求者的回复以及处理后连接应绑定的身份
func (h *GameHandler) Handle(ctx context.Context, caller Caller, req proto.Envelope) (reply proto.Envelope, playerID string) {
	playerID = caller.PlayerID

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic while handling request",
				"type", req.T,
				"reqId", req.ReqID,
				"playerId", caller.PlayerID,
				"panic", r)
			reply = errorReply(req.ReqID, apperrors.ErrServerError)
		}
	}()

	var (
		result any
		err    error
	)

	switch req.T {
	case proto.TypeJoin:
		var ack *proto.JoinAck
		ack, err = h.handleJoin(ctx, caller, req.P)
		if err == nil {
			playerID = ack.PlayerID
			result = ack
		}
	case proto.TypePlayTile:
		err = h.handlePlayTile(ctx, caller, req.P)
	case proto.TypeStartGame:
		err = h.handleStartGame(ctx, caller, req.P)
	case proto.TypePing:
		return proto.Envelope{T: proto.TypePong, ReqID: req.ReqID}, playerID
	default:
		h.logger.Debug("Unknown request type", "type", req.T, "endpoint", caller.Endpoint.String())
		err = apperrors.ErrInvalidParams
	}

	if err != nil {
		return errorReply(req.ReqID, err), playerID
	}

	reply, err = proto.NewEnvelope(proto.TypeOK, req.ReqID, result)
	if err != nil {
		return errorReply(req.ReqID, err), playerID
	}
	return reply, playerID
}

// Disconnect 连接断开
func (h *GameHandler) Disconnect(ctx context.Context, caller Caller) {
	if caller.PlayerID == "" {
		return
	}
	left := h.roomService.Disconnect(ctx, caller.PlayerID, caller.Endpoint)
	h.logger.Debug("Connection closed",
		"playerId", caller.PlayerID,
		"endpoint", caller.Endpoint.String(),
		"roomsLeft", left)
}

func (h *GameHandler) handleJoin(ctx context.Context, caller Caller, payload json.RawMessage) (*proto.JoinAck, error) {
	var req proto.JoinRequest
	if err := decode(payload, &req); err != nil {
		return nil, err
	}
	if req.RoomID == "" {
		return nil, apperrors.ErrInvalidParams
	}

	playerID, name, err := h.resolveIdentity(caller, req)
	if err != nil {
		return nil, err
	}

	res, err := h.roomService.Join(ctx, room.JoinParams{
		RoomID:   req.RoomID,
		PlayerID: playerID,
		Name:     name,
		Endpoint: caller.Endpoint,
	})
	if err != nil {
		return nil, err
	}

	return &proto.JoinAck{
		PlayerID: playerID,
		RoomID:   req.RoomID,
		Seat:     res.Seat,
		Rejoined: res.Rejoined,
	}, nil
}

// resolveIdentity 确定 JOIN 的玩家身份
// 开启鉴权时只认 token；否则依次为 playerId、连接已绑定身份、新分配 ID
// 连接一旦绑定身份就不能再换成别的身份
func (h *GameHandler) resolveIdentity(caller Caller, req proto.JoinRequest) (string, string, error) {
	playerID := req.PlayerID
	name := req.Name

	if h.authService != nil {
		if req.Token == "" {
			return "", "", apperrors.ErrUnauthorized
		}
		claims, err := h.authService.ValidateToken(req.Token)
		if err != nil {
			return "", "", err
		}
		playerID = claims.PlayerID
		if name == "" {
			name = claims.Name
		}
	}

	switch {
	case caller.PlayerID != "" && playerID != "" && playerID != caller.PlayerID:
		return "", "", apperrors.ErrInvalidParams.Wrap(
			fmt.Errorf("connection already bound to %s", caller.PlayerID))
	case playerID == "" && caller.PlayerID != "":
		playerID = caller.PlayerID
	case playerID == "":
		playerID = h.ids.Generate().String()
	}

	return playerID, name, nil
}

func (h *GameHandler) handlePlayTile(ctx context.Context, caller Caller, payload json.RawMessage) error {
	if caller.PlayerID == "" {
		return apperrors.ErrUnauthorized
	}

	var req proto.PlayTileRequest
	if err := decode(payload, &req); err != nil {
		return err
	}

	_, err := h.roomService.Play(ctx, room.PlayParams{
		RoomID:   req.RoomID,
		PlayerID: caller.PlayerID,
		Tile:     tile.Tile{Suit: tile.TileSuit(req.Tile.Suit), Value: req.Tile.Value},
		Slot:     req.Index,
	})
	return err
}

func (h *GameHandler) handleStartGame(ctx context.Context, caller Caller, payload json.RawMessage) error {
	if caller.PlayerID == "" {
		return apperrors.ErrUnauthorized
	}

	var req proto.StartGameRequest
	if err := decode(payload, &req); err != nil {
		return err
	}

	_, err := h.roomService.Start(ctx, req.RoomID, caller.PlayerID)
	return err
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return apperrors.ErrInvalidParams
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return apperrors.ErrInvalidParams.Wrap(err)
	}
	return nil
}

// errorReply 协议错误原样回复，其余错误只暴露通用错误码
func errorReply(reqID string, err error) proto.Envelope {
	code := apperrors.GetCode(err)
	msg := apperrors.GetMessage(err)
	if !apperrors.IsProtocolViolation(err) {
		code = apperrors.CodeServerError
		msg = apperrors.ErrServerError.Message
	}

	env, _ := proto.NewEnvelope(proto.TypeError, reqID, proto.ErrorPayload{Code: code, Msg: msg})
	return env
}
