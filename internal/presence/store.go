package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.mahjong/internal/room"
)

// Store 基于 Redis 的玩家座位位置
// 一个玩家可能同时坐在多个房间，每个房间一个 Hash field
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewStore 创建位置存储
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "PresenceStore"),
	}
}

// SetSeat 记录玩家所在座位，重连时覆盖旧端点
func (s *Store) SetSeat(ctx context.Context, loc room.SeatLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}

	key := BuildPlayerLocationKey(loc.PlayerID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, loc.RoomID, data)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Registered seat location",
		"playerId", loc.PlayerID,
		"roomId", loc.RoomID,
		"seat", loc.Seat,
		"endpoint", loc.Endpoint.String())
	return nil
}

// ClearSeat 移除玩家在某个房间的位置
func (s *Store) ClearSeat(ctx context.Context, playerID string, roomID string) error {
	return s.client.HDel(ctx, BuildPlayerLocationKey(playerID), roomID).Err()
}

// Locations 玩家当前所有座位
func (s *Store) Locations(ctx context.Context, playerID string) ([]room.SeatLocation, error) {
	fields, err := s.client.HGetAll(ctx, BuildPlayerLocationKey(playerID)).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]room.SeatLocation, 0, len(fields))
	for roomID, data := range fields {
		var loc room.SeatLocation
		if err := json.Unmarshal([]byte(data), &loc); err != nil {
			s.logger.Warn("Failed to unmarshal seat location",
				"playerId", playerID,
				"roomId", roomID,
				"error", err)
			continue
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

// Refresh 续期
func (s *Store) Refresh(ctx context.Context, playerID string) error {
	return s.client.Expire(ctx, BuildPlayerLocationKey(playerID), s.ttl).Err()
}
