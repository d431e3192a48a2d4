package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"sudooom.mahjong/internal/game/tile"
	"sudooom.mahjong/internal/room"
	"sudooom.mahjong/pkg/proto"
	"sudooom.mahjong/pkg/snowflake"
)

type nopPusher struct{}

func (nopPusher) Push(context.Context, []room.Recipient, string, string, []byte) error {
	return nil
}

func newRoomService(pusher room.Pusher) *room.Service {
	return room.NewService(room.NewRegistry(tile.NewSeededDeckGenerator(7)), pusher)
}

func newIDs(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func request(t *testing.T, typ string, reqID string, payload any) proto.Envelope {
	t.Helper()
	env, err := proto.NewEnvelope(typ, reqID, payload)
	require.NoError(t, err)
	return env
}

func errorCode(t *testing.T, env proto.Envelope) int {
	t.Helper()
	require.Equal(t, proto.TypeError, env.T)
	var p proto.ErrorPayload
	require.NoError(t, json.Unmarshal(env.P, &p))
	return p.Code
}

func joinAck(t *testing.T, env proto.Envelope) proto.JoinAck {
	t.Helper()
	require.Equal(t, proto.TypeOK, env.T, string(env.P))
	var ack proto.JoinAck
	require.NoError(t, json.Unmarshal(env.P, &ack))
	return ack
}

func localCaller(connID int64, playerID string) Caller {
	return Caller{
		Endpoint: room.Endpoint{Node: room.LocalNode, ConnID: connID},
		PlayerID: playerID,
	}
}
