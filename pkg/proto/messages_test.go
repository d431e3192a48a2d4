package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypeOK, "r1", nil)
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"OK","reqId":"r1"}`, string(data))

	env, err = NewEnvelope(TypeError, "", ErrorPayload{Code: 20501, Msg: "not your turn"})
	require.NoError(t, err)
	data, err = json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"ERROR","p":{"code":20501,"msg":"not your turn"}}`, string(data))

	// 已编码的载荷原样透传
	env, err = NewEnvelope("ROOM_UPDATED", "", []byte(`{"roomId":"r"}`))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"roomId":"r"}`), env.P)
}

func TestEnvelope_DecodesClientRequest(t *testing.T) {
	raw := `{"t":"PLAY_TILE","reqId":"7","p":{"roomId":"r1","tile":{"suit":2,"value":5},"index":3}}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, TypePlayTile, env.T)
	assert.Equal(t, "7", env.ReqID)

	var req PlayTileRequest
	require.NoError(t, json.Unmarshal(env.P, &req))
	assert.Equal(t, PlayTileRequest{RoomID: "r1", Tile: Tile{Suit: 2, Value: 5}, Index: 3}, req)
}
