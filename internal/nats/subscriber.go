package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"sudooom.mahjong/pkg/proto"
)

// MessageHandler 上行消息处理器
type MessageHandler interface {
	HandleGameRequest(ctx context.Context, req *proto.GameRequest, accessNodeId string, connId int64)
	HandlePlayerOffline(ctx context.Context, event *proto.PlayerOffline, accessNodeId string)
}

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int // Worker 数量
	BufferSize  int // 消息缓冲区大小
}

// MessageSubscriber 上行消息订阅器
// 队列组订阅 + 固定数量 worker，单条消息处理中的 panic 不影响其他消息
type MessageSubscriber struct {
	nc           *nats.Conn
	handler      MessageHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	msgChan      chan *nats.Msg
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewMessageSubscriber 创建消息订阅器
func NewMessageSubscriber(nc *nats.Conn, handler MessageHandler, config SubscriberConfig) *MessageSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 16
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 4096
	}

	return &MessageSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "NATSSubscriber"),
		config:  config,
	}
}

// Start 启动订阅
func (s *MessageSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	sub, err := s.nc.QueueSubscribe(SubjectLogicUpstream, QueueGroupLogic, func(msg *nats.Msg) {
		select {
		case s.msgChan <- msg:
		default:
			s.logger.Warn("Message buffer full, dropping message", "bufferSize", s.config.BufferSize)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS subscriber started",
		"subject", SubjectLogicUpstream,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

// worker 工作协程
func (s *MessageSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgChan:
			if !ok {
				return
			}
			s.handleUpstreamMessage(ctx, msg.Data)
		}
	}
}

// handleUpstreamMessage 处理上行消息
func (s *MessageSubscriber) handleUpstreamMessage(ctx context.Context, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while handling upstream message", "panic", r)
		}
	}()

	var message proto.UpstreamMessage
	if err := json.Unmarshal(data, &message); err != nil {
		s.logger.Error("Failed to unmarshal message", "error", err)
		return
	}

	switch {
	case message.Payload.GameRequest != nil:
		s.handler.HandleGameRequest(ctx, message.Payload.GameRequest, message.AccessNodeId, message.ConnId)
	case message.Payload.PlayerOffline != nil:
		s.handler.HandlePlayerOffline(ctx, message.Payload.PlayerOffline, message.AccessNodeId)
	default:
		s.logger.Warn("Upstream message without payload", "accessNodeId", message.AccessNodeId)
	}
}

// Stop 停止订阅
func (s *MessageSubscriber) Stop() error {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.wg.Wait()

	s.logger.Info("NATS subscriber stopped")
	return nil
}

// GetBufferUsage 获取缓冲区使用情况（用于监控）
func (s *MessageSubscriber) GetBufferUsage() (current int, capacity int) {
	if s.msgChan == nil {
		return 0, 0
	}
	return len(s.msgChan), cap(s.msgChan)
}
