package room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"sudooom.mahjong/internal/game/tile"
	apperrors "sudooom.mahjong/pkg/errors"
)

// Pusher 下行推送通道
type Pusher interface {
	Push(ctx context.Context, recipients []Recipient, event string, roomID string, payload []byte) error
}

// HistoryRecorder 对局结果记录
type HistoryRecorder interface {
	RecordOutcome(ctx context.Context, roomID string, outcome *Outcome, players []PublicSeat) error
}

// SeatLocation 玩家所在的房间与端点
type SeatLocation struct {
	PlayerID string   `json:"playerId"`
	RoomID   string   `json:"roomId"`
	Seat     int      `json:"seat"`
	Endpoint Endpoint `json:"endpoint"`
}

// PresenceStore 玩家位置存储
type PresenceStore interface {
	SetSeat(ctx context.Context, loc SeatLocation) error
	ClearSeat(ctx context.Context, playerID string, roomID string) error
}

// JoinParams 加入参数
type JoinParams struct {
	RoomID   string
	PlayerID string
	Name     string
	Endpoint Endpoint
}

// PlayParams 出牌参数
type PlayParams struct {
	RoomID   string
	PlayerID string
	Tile     tile.Tile
	Slot     int
}

// Service 房间服务
// 把入站动作路由到房间。一次动作的状态变更与它产生的广播、单播在房间动作锁内完成，
// 同一房间的下一个动作要等前一个动作的推送全部发出后才会被处理
type Service struct {
	registry *Registry
	pusher   Pusher
	history  HistoryRecorder
	presence PresenceStore
	logger   *slog.Logger
}

// NewService 创建房间服务
func NewService(registry *Registry, pusher Pusher) *Service {
	return &Service{
		registry: registry,
		pusher:   pusher,
		logger:   slog.Default().With("component", "RoomService"),
	}
}

// SetHistoryRecorder 设置对局记录（可选）
func (s *Service) SetHistoryRecorder(h HistoryRecorder) {
	s.history = h
}

// SetPresenceStore 设置位置存储（可选）
func (s *Service) SetPresenceStore(p PresenceStore) {
	s.presence = p
}

// Registry 返回房间注册表
func (s *Service) Registry() *Registry {
	return s.registry
}

// Join 加入房间，第四人入座时自动开局
func (s *Service) Join(ctx context.Context, p JoinParams) (*JoinResult, error) {
	if p.RoomID == "" || p.PlayerID == "" {
		return nil, apperrors.ErrInvalidParams
	}

	for {
		r := s.registry.GetOrCreate(p.RoomID)
		res, err := s.join(ctx, r, p)
		if errors.Is(err, errRoomRetired) {
			// 并发淘汰，重新取一个新房间
			continue
		}
		if err != nil {
			return nil, err
		}
		if res.Outcome != nil {
			s.record(ctx, p.RoomID, res.Outcome, res.Summary.Players)
		}
		return res, nil
	}
}

func (s *Service) join(ctx context.Context, r *Room, p JoinParams) (*JoinResult, error) {
	r.actions.Lock()
	defer r.actions.Unlock()

	res, err := r.Join(p.PlayerID, p.Name, p.Endpoint)
	if errors.Is(err, errRoomRetired) {
		return nil, err
	}
	if err != nil {
		if apperrors.Is(err, apperrors.ErrRoomFull) && res != nil {
			s.broadcast(ctx, r.ID(), recipientsOf(res.Views), EventRoomUpdated, res.Summary)
		}
		s.logFailure("join", r.ID(), p.PlayerID, err)
		return nil, err
	}

	s.logger.Info("Player joined room",
		"roomId", r.ID(),
		"playerId", p.PlayerID,
		"seat", res.Seat,
		"rejoined", res.Rejoined,
		"endpoint", p.Endpoint.String())

	s.syncPresence(ctx, res.Views)
	s.broadcast(ctx, r.ID(), recipientsOf(res.Views), EventRoomUpdated, res.Summary)

	if res.Started {
		s.publishStart(ctx, res.Summary, res.Views, res.Outcome)
	} else {
		s.pushStates(ctx, res.Views)
	}
	return res, nil
}

// Start 显式开局，发起者必须在座
func (s *Service) Start(ctx context.Context, roomID string, playerID string) (*StartResult, error) {
	r, ok := s.registry.Get(roomID)
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}

	res, err := s.start(ctx, r, playerID)
	if err != nil {
		return nil, err
	}
	if res.Outcome != nil {
		s.record(ctx, roomID, res.Outcome, res.Summary.Players)
	}
	return res, nil
}

func (s *Service) start(ctx context.Context, r *Room, playerID string) (*StartResult, error) {
	r.actions.Lock()
	defer r.actions.Unlock()

	res, err := r.StartGame(playerID)
	if err != nil {
		s.logFailure("start", r.ID(), playerID, err)
		return nil, err
	}

	s.publishStart(ctx, res.Summary, res.Views, res.Outcome)
	return res, nil
}

// Play 出牌
func (s *Service) Play(ctx context.Context, p PlayParams) (*PlayResult, error) {
	r, ok := s.registry.Get(p.RoomID)
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}

	res, err := s.play(ctx, r, p)
	if err != nil {
		return nil, err
	}
	if res.Outcome != nil {
		s.record(ctx, p.RoomID, res.Outcome, res.Summary.Players)
	}
	return res, nil
}

func (s *Service) play(ctx context.Context, r *Room, p PlayParams) (*PlayResult, error) {
	r.actions.Lock()
	defer r.actions.Unlock()

	res, err := r.PlayTile(p.PlayerID, p.Tile, p.Slot)
	if err != nil {
		s.logFailure("play", p.RoomID, p.PlayerID, err)
		return nil, err
	}

	recipients := recipientsOf(res.Views)
	s.broadcast(ctx, p.RoomID, recipients, EventTileDiscarded, TileDiscarded{
		RoomID:       p.RoomID,
		PlayerID:     res.Discard.PlayerID,
		Seat:         res.Discard.Seat,
		Tile:         res.Discard.Tile,
		TurnSeat:     res.Summary.TurnSeat,
		TurnPlayerID: res.Summary.TurnPlayerID,
		WallCount:    res.Summary.WallCount,
	})
	s.pushStates(ctx, res.Views)

	if res.Outcome != nil {
		s.announceOver(ctx, p.RoomID, recipients, res.Outcome)
	}
	return res, nil
}

// Disconnect 连接断开：把玩家从所有绑定在该端点的座位上移除
func (s *Service) Disconnect(ctx context.Context, playerID string, endpoint Endpoint) int {
	left := 0
	for _, r := range s.registry.RoomsOf(playerID) {
		res, ok := s.leave(ctx, r, playerID, endpoint)
		if !ok {
			continue
		}
		left++

		if res.Outcome != nil {
			// 记录离开前的完整座位
			s.record(ctx, r.ID(), res.Outcome, res.Players)
		}
	}
	return left
}

func (s *Service) leave(ctx context.Context, r *Room, playerID string, endpoint Endpoint) (*LeaveResult, bool) {
	r.actions.Lock()
	defer r.actions.Unlock()

	res, ok := r.LeaveEndpoint(playerID, endpoint)
	if !ok {
		return nil, false
	}

	s.logger.Info("Player left room",
		"roomId", r.ID(),
		"playerId", playerID,
		"seat", res.Seat,
		"abandoned", res.Outcome != nil)

	if s.presence != nil {
		if err := s.presence.ClearSeat(ctx, playerID, r.ID()); err != nil {
			s.logger.Warn("Failed to clear seat location", "roomId", r.ID(), "playerId", playerID, "error", err)
		}
	}
	s.syncPresence(ctx, res.Views)

	recipients := recipientsOf(res.Views)
	s.broadcast(ctx, r.ID(), recipients, EventRoomUpdated, res.Summary)
	if res.Outcome != nil {
		s.pushStates(ctx, res.Views)
		s.announceOver(ctx, r.ID(), recipients, res.Outcome)
	}
	return res, true
}

// Snapshot 房间各座位视图
func (s *Service) Snapshot(ctx context.Context, roomID string) ([]SeatView, error) {
	r, ok := s.registry.Get(roomID)
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return r.Snapshot(), nil
}

// Summary 房间公开概况
func (s *Service) Summary(ctx context.Context, roomID string) (Summary, error) {
	r, ok := s.registry.Get(roomID)
	if !ok {
		return Summary{}, apperrors.ErrRoomNotFound
	}
	return r.Summary(), nil
}

// publishStart 开局广播 + 各自手牌；庄家起手胡则紧接着广播结果
func (s *Service) publishStart(ctx context.Context, summary Summary, views []SeatView, outcome *Outcome) {
	recipients := recipientsOf(views)

	started := GameStarted{
		RoomID:    summary.RoomID,
		Round:     summary.Round,
		WallCount: summary.WallCount,
		Players:   summary.Players,
	}
	if len(summary.Players) > 0 {
		started.DealerID = summary.Players[0].PlayerID
	}

	s.logger.Info("Game started", "roomId", summary.RoomID, "round", summary.Round)

	s.broadcast(ctx, summary.RoomID, recipients, EventGameStarted, started)
	s.pushStates(ctx, views)

	if outcome != nil {
		s.announceOver(ctx, summary.RoomID, recipients, outcome)
	}
}

// announceOver 广播对局结果
func (s *Service) announceOver(ctx context.Context, roomID string, recipients []Recipient, outcome *Outcome) {
	s.logger.Info("Game over",
		"roomId", roomID,
		"round", outcome.Round,
		"kind", outcome.Kind,
		"winnerId", outcome.WinnerID)

	s.broadcast(ctx, roomID, recipients, EventGameOver, GameOver{
		RoomID:  roomID,
		Outcome: outcome,
	})
}

// record 写入对局记录，在动作锁外执行，失败只记日志
func (s *Service) record(ctx context.Context, roomID string, outcome *Outcome, players []PublicSeat) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordOutcome(ctx, roomID, outcome, players); err != nil {
		s.logger.Warn("Failed to record game outcome", "roomId", roomID, "round", outcome.Round, "error", err)
	}
}

// pushStates 每个座位单播自己的视图
func (s *Service) pushStates(ctx context.Context, views []SeatView) {
	for _, v := range views {
		s.broadcast(ctx, v.RoomID, []Recipient{v.Recipient()}, EventGameState, v)
	}
}

func (s *Service) broadcast(ctx context.Context, roomID string, recipients []Recipient, event string, payload any) {
	if len(recipients) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal event data", "error", err, "event", event, "roomId", roomID)
		return
	}

	if err := s.pusher.Push(ctx, recipients, event, roomID, data); err != nil {
		s.logger.Warn("Failed to push to room", "error", err, "roomId", roomID, "event", event)
	}
}

func (s *Service) syncPresence(ctx context.Context, views []SeatView) {
	if s.presence == nil {
		return
	}
	for _, v := range views {
		loc := SeatLocation{
			PlayerID: v.PlayerID,
			RoomID:   v.RoomID,
			Seat:     v.Seat,
			Endpoint: v.Endpoint,
		}
		if err := s.presence.SetSeat(ctx, loc); err != nil {
			s.logger.Warn("Failed to store seat location", "roomId", v.RoomID, "playerId", v.PlayerID, "error", err)
		}
	}
}

// logFailure 协议错误只记 debug，状态不变量被破坏记 error
func (s *Service) logFailure(op, roomID, playerID string, err error) {
	if apperrors.IsProtocolViolation(err) {
		s.logger.Debug("Rejected room action", "op", op, "roomId", roomID, "playerId", playerID, "error", err)
		return
	}
	s.logger.Error("Room action failed", "op", op, "roomId", roomID, "playerId", playerID, "error", err)
}
