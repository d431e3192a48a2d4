package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.mahjong/internal/auth"
	"sudooom.mahjong/internal/room"
	apperrors "sudooom.mahjong/pkg/errors"
	"sudooom.mahjong/pkg/proto"
)

func TestHandle_JoinIssuesIdentity(t *testing.T) {
	h := NewGameHandler(newRoomService(nopPusher{}), nil, newIDs(t))

	reply, playerID := h.Handle(context.Background(), localCaller(1, ""),
		request(t, proto.TypeJoin, "r-1", proto.JoinRequest{RoomID: "room-1", Name: "alice"}))

	ack := joinAck(t, reply)
	assert.Equal(t, "r-1", reply.ReqID)
	assert.NotEmpty(t, ack.PlayerID)
	assert.Equal(t, ack.PlayerID, playerID)
	assert.Equal(t, "room-1", ack.RoomID)
	assert.Equal(t, 0, ack.Seat)
	assert.False(t, ack.Rejoined)
}

func TestHandle_JoinWithPlayerIDAndRejoin(t *testing.T) {
	svc := newRoomService(nopPusher{})
	h := NewGameHandler(svc, nil, newIDs(t))
	ctx := context.Background()

	req := request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-1", Name: "bob", PlayerID: "bob"})
	reply, playerID := h.Handle(ctx, localCaller(1, ""), req)
	assert.Equal(t, "bob", joinAck(t, reply).PlayerID)
	assert.Equal(t, "bob", playerID)

	// 新连接以同一身份重连
	reply, _ = h.Handle(ctx, localCaller(2, ""), req)
	ack := joinAck(t, reply)
	assert.True(t, ack.Rejoined)
	assert.Equal(t, 0, ack.Seat)

	summary, err := svc.Summary(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, summary.Players, 1)
}

func TestHandle_BoundConnectionKeepsIdentity(t *testing.T) {
	h := NewGameHandler(newRoomService(nopPusher{}), nil, newIDs(t))
	ctx := context.Background()

	reply, playerID := h.Handle(ctx, localCaller(1, "carol"),
		request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-2"}))
	assert.Equal(t, "carol", joinAck(t, reply).PlayerID)
	assert.Equal(t, "carol", playerID)

	reply, playerID = h.Handle(ctx, localCaller(1, "carol"),
		request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-2", PlayerID: "mallory"}))
	assert.Equal(t, apperrors.CodeInvalidParams, errorCode(t, reply))
	assert.Equal(t, "carol", playerID)
}

func TestHandle_Rejections(t *testing.T) {
	h := NewGameHandler(newRoomService(nopPusher{}), nil, newIDs(t))

	tests := []struct {
		name   string
		caller Caller
		req    proto.Envelope
		code   int
	}{
		{
			name:   "play without identity",
			caller: localCaller(1, ""),
			req:    request(t, proto.TypePlayTile, "", proto.PlayTileRequest{RoomID: "room-1"}),
			code:   apperrors.CodeUnauthorized,
		},
		{
			name:   "start without identity",
			caller: localCaller(1, ""),
			req:    request(t, proto.TypeStartGame, "", proto.StartGameRequest{RoomID: "room-1"}),
			code:   apperrors.CodeUnauthorized,
		},
		{
			name:   "start unknown room",
			caller: localCaller(1, "p1"),
			req:    request(t, proto.TypeStartGame, "", proto.StartGameRequest{RoomID: "nowhere"}),
			code:   apperrors.CodeRoomNotFound,
		},
		{
			name:   "play unknown room",
			caller: localCaller(1, "p1"),
			req:    request(t, proto.TypePlayTile, "", proto.PlayTileRequest{RoomID: "nowhere"}),
			code:   apperrors.CodeRoomNotFound,
		},
		{
			name:   "join without room",
			caller: localCaller(1, ""),
			req:    request(t, proto.TypeJoin, "", proto.JoinRequest{Name: "x"}),
			code:   apperrors.CodeInvalidParams,
		},
		{
			name:   "missing payload",
			caller: localCaller(1, ""),
			req:    proto.Envelope{T: proto.TypeJoin},
			code:   apperrors.CodeInvalidParams,
		},
		{
			name:   "malformed payload",
			caller: localCaller(1, "p1"),
			req:    proto.Envelope{T: proto.TypePlayTile, P: []byte(`{"roomId":1}`)},
			code:   apperrors.CodeInvalidParams,
		},
		{
			name:   "unknown type",
			caller: localCaller(1, ""),
			req:    proto.Envelope{T: "DANCE"},
			code:   apperrors.CodeInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, _ := h.Handle(context.Background(), tt.caller, tt.req)
			assert.Equal(t, tt.code, errorCode(t, reply))
		})
	}
}

func TestHandle_Ping(t *testing.T) {
	h := NewGameHandler(newRoomService(nopPusher{}), nil, newIDs(t))

	reply, playerID := h.Handle(context.Background(), localCaller(1, "p1"), proto.Envelope{T: proto.TypePing, ReqID: "7"})
	assert.Equal(t, proto.TypePong, reply.T)
	assert.Equal(t, "7", reply.ReqID)
	assert.Equal(t, "p1", playerID)
}

func TestHandle_PanicBecomesServerError(t *testing.T) {
	h := NewGameHandler(nil, nil, newIDs(t))

	reply, _ := h.Handle(context.Background(), localCaller(1, ""),
		request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-1", PlayerID: "p1"}))
	assert.Equal(t, apperrors.CodeServerError, errorCode(t, reply))
}

func TestHandle_TokenRequiredWhenAuthEnabled(t *testing.T) {
	authSvc := auth.NewService("secret", time.Hour)
	h := NewGameHandler(newRoomService(nopPusher{}), authSvc, newIDs(t))
	ctx := context.Background()

	reply, _ := h.Handle(ctx, localCaller(1, ""),
		request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-1", PlayerID: "p1"}))
	assert.Equal(t, apperrors.CodeUnauthorized, errorCode(t, reply))

	reply, _ = h.Handle(ctx, localCaller(1, ""),
		request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-1", Token: "garbage"}))
	assert.Equal(t, apperrors.CodeTokenInvalid, errorCode(t, reply))

	token, _, err := authSvc.GenerateToken("p42", "dave")
	require.NoError(t, err)

	// token 中的身份优先于 playerId
	reply, playerID := h.Handle(ctx, localCaller(1, ""),
		request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-1", PlayerID: "p1", Token: token}))
	ack := joinAck(t, reply)
	assert.Equal(t, "p42", ack.PlayerID)
	assert.Equal(t, "p42", playerID)
}

func TestHandle_FullGameFlow(t *testing.T) {
	svc := newRoomService(nopPusher{})
	h := NewGameHandler(svc, nil, newIDs(t))
	ctx := context.Background()

	players := []string{"p1", "p2", "p3", "p4"}
	for i, id := range players {
		reply, _ := h.Handle(ctx, localCaller(int64(i+1), ""),
			request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-1", PlayerID: id}))
		assert.Equal(t, i, joinAck(t, reply).Seat)
	}

	views, err := svc.Snapshot(ctx, "room-1")
	require.NoError(t, err)
	require.Equal(t, room.PhaseInProgress, views[0].Phase)
	require.Equal(t, 0, views[0].TurnSeat)

	// 非当前玩家出牌被拒绝
	reply, _ := h.Handle(ctx, localCaller(2, "p2"), request(t, proto.TypePlayTile, "", proto.PlayTileRequest{
		RoomID: "room-1",
		Tile:   proto.Tile{Suit: int8(views[1].Hand[0].Suit), Value: views[1].Hand[0].Value},
		Index:  0,
	}))
	assert.Equal(t, apperrors.CodeNotYourTurn, errorCode(t, reply))

	// 牌与位置不符
	first := views[0].Hand[0]
	last := views[0].Hand[len(views[0].Hand)-1]
	if first != last {
		reply, _ = h.Handle(ctx, localCaller(1, "p1"), request(t, proto.TypePlayTile, "", proto.PlayTileRequest{
			RoomID: "room-1",
			Tile:   proto.Tile{Suit: int8(last.Suit), Value: last.Value},
			Index:  0,
		}))
		assert.Equal(t, apperrors.CodeTileMismatch, errorCode(t, reply))
	}

	reply, _ = h.Handle(ctx, localCaller(1, "p1"), request(t, proto.TypePlayTile, "", proto.PlayTileRequest{
		RoomID: "room-1",
		Tile:   proto.Tile{Suit: int8(first.Suit), Value: first.Value},
		Index:  0,
	}))
	assert.Equal(t, proto.TypeOK, reply.T)

	summary, err := svc.Summary(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, summary.Discards, 1)
	assert.Equal(t, first, summary.Discards[0].Tile)

	reply, _ = h.Handle(ctx, localCaller(1, "p1"), request(t, proto.TypeStartGame, "", proto.StartGameRequest{RoomID: "room-1"}))
	if summary.Phase == room.PhaseInProgress {
		assert.Equal(t, apperrors.CodeGameInProgress, errorCode(t, reply))
	}
}

func TestDisconnect_LeavesRooms(t *testing.T) {
	svc := newRoomService(nopPusher{})
	h := NewGameHandler(svc, nil, newIDs(t))
	ctx := context.Background()

	_, playerID := h.Handle(ctx, localCaller(1, ""),
		request(t, proto.TypeJoin, "", proto.JoinRequest{RoomID: "room-1", PlayerID: "p1"}))
	require.Equal(t, "p1", playerID)

	// 陌生连接断开不影响座位
	h.Disconnect(ctx, localCaller(9, "p1"))
	summary, err := svc.Summary(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, summary.Players, 1)

	h.Disconnect(ctx, localCaller(1, ""))
	h.Disconnect(ctx, localCaller(1, "p1"))
	summary, err = svc.Summary(ctx, "room-1")
	require.NoError(t, err)
	assert.Empty(t, summary.Players)
}
