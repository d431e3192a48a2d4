package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrConnectionClosed   = errors.New("connection closed")
	ErrSendBufferFull     = errors.New("send buffer full")
	ErrConnectionNotFound = errors.New("connection not found")
)

// Options websocket 连接参数
type Options struct {
	ReadLimit    int64
	WriteTimeout time.Duration
	PingInterval time.Duration
	PongWait     time.Duration
	SendBuffer   int
}

// FrameHandler 处理一个连接上收到的帧
type FrameHandler interface {
	HandleFrame(ctx context.Context, c *Connection, data []byte)
	HandleClose(ctx context.Context, c *Connection)
}

// Connection 表示一个 websocket 客户端连接
type Connection struct {
	id       int64
	ws       *websocket.Conn
	opts     Options
	playerID atomic.Value // string，JOIN 成功后绑定
	logger   *slog.Logger

	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once

	createTime time.Time
}

// New 包装一个已升级的 websocket 连接
func New(id int64, ws *websocket.Conn, opts Options) *Connection {
	c := &Connection{
		id:         id,
		ws:         ws,
		opts:       opts,
		logger:     slog.Default().With("component", "Connection", "connId", id),
		sendChan:   make(chan []byte, opts.SendBuffer),
		closeChan:  make(chan struct{}),
		createTime: time.Now(),
	}
	c.playerID.Store("")
	return c
}

func (c *Connection) ID() int64 {
	return c.id
}

// PlayerID 已绑定的玩家身份，未加入房间时为空
func (c *Connection) PlayerID() string {
	return c.playerID.Load().(string)
}

// BindPlayer 绑定玩家身份
func (c *Connection) BindPlayer(playerID string) {
	c.playerID.Store(playerID)
}

func (c *Connection) CreateTime() time.Time {
	return c.createTime
}

// Send 非阻塞写入发送队列
func (c *Connection) Send(data []byte) error {
	select {
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.sendChan <- data:
		return nil
	case <-c.closeChan:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// Serve 运行读写循环直到连接断开，返回前回调 HandleClose
func (c *Connection) Serve(ctx context.Context, handler FrameHandler) {
	go c.writeLoop()

	defer func() {
		c.Close()
		handler.HandleClose(ctx, c)
	}()

	if c.opts.ReadLimit > 0 {
		c.ws.SetReadLimit(c.opts.ReadLimit)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		handler.HandleFrame(ctx, c, data)
	}
}

// writeLoop 发送队列 + 定时 ping
func (c *Connection) writeLoop() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.sendChan:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteTimeout))
			return
		}
	}
}

// Close 关闭连接，可重复调用
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		_ = c.ws.Close()
	})
}
