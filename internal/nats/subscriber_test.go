package nats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.mahjong/pkg/proto"
)

type fakeHandler struct {
	requests []*proto.GameRequest
	nodes    []string
	connIDs  []int64
	offline  []*proto.PlayerOffline
	panics   bool
}

func (h *fakeHandler) HandleGameRequest(_ context.Context, req *proto.GameRequest, accessNodeId string, connId int64) {
	if h.panics {
		panic("boom")
	}
	h.requests = append(h.requests, req)
	h.nodes = append(h.nodes, accessNodeId)
	h.connIDs = append(h.connIDs, connId)
}

func (h *fakeHandler) HandlePlayerOffline(_ context.Context, event *proto.PlayerOffline, accessNodeId string) {
	h.offline = append(h.offline, event)
	h.nodes = append(h.nodes, accessNodeId)
}

func marshal(t *testing.T, msg proto.UpstreamMessage) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return data
}

func TestHandleUpstreamMessage_Routes(t *testing.T) {
	h := &fakeHandler{}
	s := NewMessageSubscriber(nil, h, SubscriberConfig{})
	ctx := context.Background()

	s.handleUpstreamMessage(ctx, marshal(t, proto.UpstreamMessage{
		AccessNodeId: "access-1",
		ConnId:       42,
		Payload: proto.UpstreamPayload{GameRequest: &proto.GameRequest{
			PlayerId: "p1",
			Request:  proto.Envelope{T: proto.TypeStartGame, ReqID: "9", P: json.RawMessage(`{"roomId":"r"}`)},
		}},
	}))
	s.handleUpstreamMessage(ctx, marshal(t, proto.UpstreamMessage{
		AccessNodeId: "access-2",
		Payload:      proto.UpstreamPayload{PlayerOffline: &proto.PlayerOffline{PlayerId: "p1", ConnId: 42}},
	}))

	require.Len(t, h.requests, 1)
	assert.Equal(t, "p1", h.requests[0].PlayerId)
	assert.Equal(t, proto.TypeStartGame, h.requests[0].Request.T)
	assert.JSONEq(t, `{"roomId":"r"}`, string(h.requests[0].Request.P))
	assert.Equal(t, []int64{42}, h.connIDs)

	require.Len(t, h.offline, 1)
	assert.Equal(t, int64(42), h.offline[0].ConnId)
	assert.Equal(t, []string{"access-1", "access-2"}, h.nodes)
}

func TestHandleUpstreamMessage_BadInputIsContained(t *testing.T) {
	h := &fakeHandler{panics: true}
	s := NewMessageSubscriber(nil, h, SubscriberConfig{WorkerCount: 1, BufferSize: 1})
	ctx := context.Background()

	assert.NotPanics(t, func() {
		s.handleUpstreamMessage(ctx, []byte("{not json"))
		s.handleUpstreamMessage(ctx, marshal(t, proto.UpstreamMessage{AccessNodeId: "a"}))
		s.handleUpstreamMessage(ctx, marshal(t, proto.UpstreamMessage{
			AccessNodeId: "a",
			Payload:      proto.UpstreamPayload{GameRequest: &proto.GameRequest{}},
		}))
	})
}

func TestBuildAccessDownstreamSubject(t *testing.T) {
	assert.Equal(t, "mahjong.access.node-7.downstream", BuildAccessDownstreamSubject("node-7"))
}
