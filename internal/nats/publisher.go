package nats

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"

	"sudooom.mahjong/pkg/proto"
)

// ErrEmptyNode 端点没有接入节点
var ErrEmptyNode = errors.New("access node id is empty")

// rawPublisher *nats.Conn 的发布能力
type rawPublisher interface {
	Publish(subject string, data []byte) error
}

// GatewayPublisher 把房间事件和请求回复发回玩家连接所在的接入节点
// 每条下行消息只对应一个连接：mahjong.access.{nodeId}.downstream
type GatewayPublisher struct {
	conn   rawPublisher
	logger *slog.Logger
}

// NewGatewayPublisher 创建网关下行发布器
func NewGatewayPublisher(nc *nats.Conn) *GatewayPublisher {
	return newGatewayPublisher(nc)
}

func newGatewayPublisher(conn rawPublisher) *GatewayPublisher {
	return &GatewayPublisher{
		conn:   conn,
		logger: slog.Default().With("component", "GatewayPublisher"),
	}
}

// PublishToAccess 实现 dispatch.AccessPublisher
func (p *GatewayPublisher) PublishToAccess(accessNodeId string, message *proto.DownstreamMessage) error {
	if accessNodeId == "" {
		return ErrEmptyNode
	}

	kind := downstreamKind(message)
	data, err := json.Marshal(message)
	if err != nil {
		p.logger.Error("Failed to encode downstream message", "kind", kind, "playerId", message.PlayerId, "error", err)
		return err
	}

	if err := p.conn.Publish(BuildAccessDownstreamSubject(accessNodeId), data); err != nil {
		p.logger.Warn("Failed to forward to access node",
			"accessNodeId", accessNodeId,
			"kind", kind,
			"playerId", message.PlayerId,
			"connId", message.ConnId,
			"error", err)
		return err
	}

	p.logger.Debug("Forwarded to access node",
		"accessNodeId", accessNodeId,
		"kind", kind,
		"playerId", message.PlayerId,
		"connId", message.ConnId)
	return nil
}

// downstreamKind 日志用：push:<事件> 或 reply:<回复类型>
func downstreamKind(message *proto.DownstreamMessage) string {
	switch {
	case message.Payload.GamePush != nil:
		return "push:" + message.Payload.GamePush.Event
	case message.Payload.Reply != nil:
		return "reply:" + message.Payload.Reply.Response.T
	default:
		return "empty"
	}
}
