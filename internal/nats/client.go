package nats

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"sudooom.mahjong/internal/config"
)

// Client 网关模式下房间服务与接入节点之间的 NATS 链路
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewClient 连接 NATS，连接名带上雪花节点 ID，便于在 NATS 监控里区分房间服务实例
func NewClient(cfg config.NATSConfig, nodeID int64) (*Client, error) {
	logger := slog.Default().With("component", "NATSLink", "nodeId", nodeID)

	conn, err := nats.Connect(cfg.URL,
		nats.Name(ConnectionName(nodeID)),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(10*time.Second),
		nats.DrainTimeout(10*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			// 断线期间远端玩家收不到推送，本机连接不受影响
			logger.Warn("Gateway link lost, remote players will miss room events", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Gateway link restored", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("Gateway link closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}

	return &Client{conn: conn, logger: logger}, nil
}

// ConnectionName NATS 连接名
func ConnectionName(nodeID int64) string {
	return fmt.Sprintf("mahjong-room-%d", nodeID)
}

// Conn 返回底层连接
func (c *Client) Conn() *nats.Conn {
	return c.conn
}

// Close 排空在途的上行请求与下行推送后关闭
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("Failed to drain gateway link", "error", err)
		c.conn.Close()
	}
}
