package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"sudooom.mahjong/internal/room"
	"sudooom.mahjong/pkg/proto"
)

// ErrNoRoute 端点所在节点不可达
var ErrNoRoute = errors.New("no route to endpoint")

// LocalSender 本机 websocket 连接
type LocalSender interface {
	SendTo(connID int64, data []byte) error
}

// AccessPublisher 远端 Access 节点
type AccessPublisher interface {
	PublishToAccess(accessNodeId string, message *proto.DownstreamMessage) error
}

// Dispatcher 按端点把下行消息投递到本机连接或远端 Access 节点
type Dispatcher struct {
	local  LocalSender
	remote AccessPublisher
	logger *slog.Logger
}

// NewDispatcher 创建分发器，remote 为 nil 时只投递本机连接
func NewDispatcher(local LocalSender, remote AccessPublisher) *Dispatcher {
	return &Dispatcher{
		local:  local,
		remote: remote,
		logger: slog.Default().With("component", "Dispatcher"),
	}
}

// Push 推送房间事件，单个接收者失败不影响其他接收者
func (d *Dispatcher) Push(ctx context.Context, recipients []room.Recipient, event string, roomID string, payload []byte) error {
	var (
		localFrame []byte
		errs       []error
	)

	for _, r := range recipients {
		var err error
		if r.Endpoint.Node == room.LocalNode {
			if localFrame == nil {
				localFrame, err = json.Marshal(proto.Envelope{T: event, P: payload})
				if err != nil {
					return err
				}
			}
			err = d.sendLocal(r.Endpoint.ConnID, localFrame)
		} else {
			err = d.publish(r.Endpoint.Node, &proto.DownstreamMessage{
				PlayerId: r.PlayerID,
				ConnId:   r.Endpoint.ConnID,
				Payload: proto.DownstreamPayload{
					GamePush: &proto.GamePush{Event: event, RoomId: roomID, Data: payload},
				},
			})
		}

		if err != nil {
			d.logger.Warn("Failed to push event",
				"event", event,
				"roomId", roomID,
				"playerId", r.PlayerID,
				"endpoint", r.Endpoint.String(),
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", r.PlayerID, err))
		}
	}

	return errors.Join(errs...)
}

// Reply 回复单个请求
func (d *Dispatcher) Reply(endpoint room.Endpoint, playerID string, env proto.Envelope) error {
	if endpoint.Node == room.LocalNode {
		data, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return d.sendLocal(endpoint.ConnID, data)
	}

	return d.publish(endpoint.Node, &proto.DownstreamMessage{
		PlayerId: playerID,
		ConnId:   endpoint.ConnID,
		Payload: proto.DownstreamPayload{
			Reply: &proto.Reply{PlayerId: playerID, Response: env},
		},
	})
}

func (d *Dispatcher) sendLocal(connID int64, data []byte) error {
	if d.local == nil {
		return ErrNoRoute
	}
	return d.local.SendTo(connID, data)
}

func (d *Dispatcher) publish(node string, msg *proto.DownstreamMessage) error {
	if d.remote == nil {
		return fmt.Errorf("%w: node %s", ErrNoRoute, node)
	}
	return d.remote.PublishToAccess(node, msg)
}
