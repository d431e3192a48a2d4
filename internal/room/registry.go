package room

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry 房间注册表
// 首次引用时创建房间；默认不销毁，开启 RunEviction 后淘汰长时间空闲的空房间
//
// 使用示例：
//
//	registry := NewRegistry(tile.NewDeckGenerator())
//	r := registry.GetOrCreate("room1")
type Registry struct {
	rooms   sync.Map // roomId -> *Room
	builder WallBuilder
	logger  *slog.Logger
	now     func() time.Time
}

// NewRegistry 创建房间注册表
func NewRegistry(builder WallBuilder) *Registry {
	return &Registry{
		builder: builder,
		logger:  slog.Default().With("component", "RoomRegistry"),
		now:     time.Now,
	}
}

// GetOrCreate 获取或创建房间
func (m *Registry) GetOrCreate(roomID string) *Room {
	if val, ok := m.rooms.Load(roomID); ok {
		return val.(*Room)
	}

	actual, loaded := m.rooms.LoadOrStore(roomID, NewRoom(roomID, m.builder))
	if !loaded {
		m.logger.Info("Created room", "roomId", roomID)
	}
	return actual.(*Room)
}

// Get 获取房间
func (m *Registry) Get(roomID string) (*Room, bool) {
	val, ok := m.rooms.Load(roomID)
	if !ok {
		return nil, false
	}
	return val.(*Room), true
}

// RoomsOf 玩家在座的所有房间
func (m *Registry) RoomsOf(playerID string) []*Room {
	var rooms []*Room
	m.rooms.Range(func(_, value any) bool {
		r := value.(*Room)
		if r.HasPlayer(playerID) {
			rooms = append(rooms, r)
		}
		return true
	})
	return rooms
}

// Range 遍历所有房间
func (m *Registry) Range(fn func(r *Room) bool) {
	m.rooms.Range(func(_, value any) bool {
		return fn(value.(*Room))
	})
}

// Count 返回当前房间数
func (m *Registry) Count() int {
	count := 0
	m.rooms.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// RunEviction 定期淘汰空闲的空房间，阻塞直到 ctx 结束
func (m *Registry) RunEviction(ctx context.Context, interval time.Duration, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(idle)
		}
	}
}

// EvictIdle 淘汰没有玩家且超过 idle 未活跃的房间，返回淘汰数量
func (m *Registry) EvictIdle(idle time.Duration) int {
	now := m.now()
	evicted := 0

	m.rooms.Range(func(key, value any) bool {
		r := value.(*Room)
		if r.retireIfIdle(now, idle) && m.rooms.CompareAndDelete(key, r) {
			evicted++
			m.logger.Info("Evicted inactive room", "roomId", r.ID(), "lastActive", r.LastActiveTime())
		}
		return true
	})

	return evicted
}
