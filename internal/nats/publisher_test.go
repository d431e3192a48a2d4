package nats

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.mahjong/pkg/proto"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	sent []published
	err  error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{subject: subject, data: data})
	return nil
}

func TestGatewayPublisher_PublishToAccess(t *testing.T) {
	conn := &fakeConn{}
	p := newGatewayPublisher(conn)

	msg := &proto.DownstreamMessage{
		PlayerId: "p1",
		ConnId:   42,
		Payload: proto.DownstreamPayload{
			GamePush: &proto.GamePush{Event: "TILE_DISCARDED", RoomId: "r1", Data: json.RawMessage(`{"seat":0}`)},
		},
	}
	require.NoError(t, p.PublishToAccess("access-1", msg))

	require.Len(t, conn.sent, 1)
	assert.Equal(t, "mahjong.access.access-1.downstream", conn.sent[0].subject)

	var got proto.DownstreamMessage
	require.NoError(t, json.Unmarshal(conn.sent[0].data, &got))
	assert.Equal(t, int64(42), got.ConnId)
	require.NotNil(t, got.Payload.GamePush)
	assert.Equal(t, "r1", got.Payload.GamePush.RoomId)
	assert.Nil(t, got.Payload.Reply)
}

func TestGatewayPublisher_Errors(t *testing.T) {
	conn := &fakeConn{}
	p := newGatewayPublisher(conn)
	msg := &proto.DownstreamMessage{PlayerId: "p1", Payload: proto.DownstreamPayload{
		Reply: &proto.Reply{Response: proto.Envelope{T: "OK", ReqID: "1"}},
	}}

	assert.ErrorIs(t, p.PublishToAccess("", msg), ErrEmptyNode)
	assert.Empty(t, conn.sent)

	conn.err = errors.New("nats: connection closed")
	assert.ErrorIs(t, p.PublishToAccess("access-1", msg), conn.err)
}

func TestDownstreamKind(t *testing.T) {
	tests := []struct {
		name string
		msg  *proto.DownstreamMessage
		want string
	}{
		{"push", &proto.DownstreamMessage{Payload: proto.DownstreamPayload{GamePush: &proto.GamePush{Event: "GAME_OVER"}}}, "push:GAME_OVER"},
		{"reply", &proto.DownstreamMessage{Payload: proto.DownstreamPayload{Reply: &proto.Reply{Response: proto.Envelope{T: "ERROR"}}}}, "reply:ERROR"},
		{"empty", &proto.DownstreamMessage{}, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, downstreamKind(tt.msg))
		})
	}
	assert.Equal(t, "mahjong-room-3", ConnectionName(3))
}
