package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sudooom.mahjong/internal/game/tile"
	"sudooom.mahjong/internal/game/winning"
	apperrors "sudooom.mahjong/pkg/errors"
)

const (
	// Capacity 每个房间的座位数
	Capacity = 4
	// InitialHandSize 起手张数
	InitialHandSize = 13
)

// WallBuilder 牌墙来源
type WallBuilder interface {
	BuildShuffledWall() []tile.Tile
}

// Room 房间实例
// 所有操作在房间锁内完整执行，包括生成快照；不同房间之间不共享可变状态
//
// 使用示例：
//
//	r := NewRoom("room1", tile.NewDeckGenerator())
//	res, err := r.Join("p1", "alice", endpoint)
//	play, err := r.PlayTile("p1", t, 3)
type Room struct {
	// actions 串行化一次完整的动作：状态变更以及它产生的推送
	// 持有顺序：actions 在前，mu 在后
	actions sync.Mutex
	mu      sync.RWMutex

	id      string
	builder WallBuilder

	players  []*Player // 座位顺序即出牌顺序
	wall     []tile.Tile
	discards []Discard
	turn     int
	phase    Phase

	round       int
	startedAt   time.Time
	lastOutcome *Outcome
	lastActive  time.Time
	retired     bool // 已从注册表淘汰，不再接受加入

	now func() time.Time
}

// errRoomRetired 房间已被淘汰，调用方应重新从注册表获取
var errRoomRetired = errors.New("room retired")

// JoinResult 加入结果
type JoinResult struct {
	Seat     int
	Rejoined bool     // 已在座，仅重新绑定端点
	Started  bool     // 本次加入凑满四人并开局
	Outcome  *Outcome // 开局即结束（庄家起手胡）
	Summary  Summary
	Views    []SeatView
}

// StartResult 开局结果
type StartResult struct {
	Outcome *Outcome // 非 nil 表示庄家起手胡，对局已结束
	Summary Summary
	Views   []SeatView
}

// PlayResult 出牌结果
type PlayResult struct {
	Discard Discard
	Slot    int
	Outcome *Outcome // 非 nil 表示对局结束
	Summary Summary
	Views   []SeatView
}

// LeaveResult 离开结果
type LeaveResult struct {
	Seat    int
	Outcome *Outcome     // 对局中离开时为 ABANDONED
	Players []PublicSeat // 离开前的在座玩家
	Summary Summary
	Views   []SeatView
}

// NewRoom 创建房间
func NewRoom(id string, builder WallBuilder) *Room {
	now := time.Now()
	return &Room{
		id:         id,
		builder:    builder,
		players:    make([]*Player, 0, Capacity),
		phase:      PhaseWaiting,
		lastActive: now,
		now:        time.Now,
	}
}

// ID 房间 ID
func (r *Room) ID() string {
	return r.id
}

// Join 加入房间
// 已在座的玩家只重新绑定端点（名字非空时一并更新），不会占用新座位。
// 房间已满时返回 ErrRoomFull，结果中仍带有当前的房间概况，用于广播占用情况。
func (r *Room) Join(playerID, name string, endpoint Endpoint) (*JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.retired {
		return nil, errRoomRetired
	}
	r.lastActive = r.now()

	if p, seat := r.findLocked(playerID); p != nil {
		p.Endpoint = endpoint
		if name != "" {
			p.Name = name
		}
		return &JoinResult{
			Seat:     seat,
			Rejoined: true,
			Summary:  r.summaryLocked(),
			Views:    r.viewsLocked(),
		}, nil
	}

	if len(r.players) >= Capacity {
		return &JoinResult{
			Seat:    -1,
			Summary: r.summaryLocked(),
			Views:   r.viewsLocked(),
		}, apperrors.ErrRoomFull
	}

	if name == "" {
		name = playerID
	}
	r.players = append(r.players, &Player{
		ID:       playerID,
		Name:     name,
		Endpoint: endpoint,
	})

	result := &JoinResult{Seat: len(r.players) - 1}

	if len(r.players) == Capacity && r.phase == PhaseWaiting {
		outcome, err := r.startLocked()
		if err != nil {
			return nil, err
		}
		result.Started = true
		result.Outcome = outcome
	}

	result.Summary = r.summaryLocked()
	result.Views = r.viewsLocked()
	return result, nil
}

// StartGame 开局：发起者必须在座，需要四人在座且当前没有进行中的对局
func (r *Room) StartGame(playerID string) (*StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, _ := r.findLocked(playerID); p == nil {
		return nil, apperrors.ErrNotInRoom
	}
	r.lastActive = r.now()

	outcome, err := r.startLocked()
	if err != nil {
		return nil, err
	}

	return &StartResult{
		Outcome: outcome,
		Summary: r.summaryLocked(),
		Views:   r.viewsLocked(),
	}, nil
}

// startLocked 洗牌、发牌并检查庄家起手胡，调用方持有写锁
func (r *Room) startLocked() (*Outcome, error) {
	if len(r.players) < Capacity {
		return nil, apperrors.ErrNotEnoughPlayers
	}
	if r.phase == PhaseInProgress {
		return nil, apperrors.ErrGameInProgress
	}

	wall := r.builder.BuildShuffledWall()
	if len(wall) != tile.SetSize {
		return nil, r.invariantError(fmt.Errorf("wall has %d tiles", len(wall)))
	}

	r.wall = wall
	r.discards = make([]Discard, 0, tile.SetSize-Capacity*InitialHandSize)
	r.turn = 0
	r.round++
	r.startedAt = r.now()
	r.lastOutcome = nil

	// 按座位顺序每人从牌墙尾部连续摸 13 张，庄家再多摸一张
	for _, p := range r.players {
		p.Hand = make([]tile.Tile, 0, InitialHandSize+1)
		for i := 0; i < InitialHandSize; i++ {
			p.Hand = append(p.Hand, r.popLocked())
		}
		tile.SortTiles(p.Hand)
	}
	dealer := r.players[0]
	drawn := r.popLocked()
	dealer.Hand = insertSorted(dealer.Hand, drawn)

	r.phase = PhaseInProgress

	if err := r.checkLocked(); err != nil {
		return nil, err
	}

	won, err := winning.IsWinningHand(dealer.Hand)
	if err != nil {
		return nil, r.invariantError(err)
	}
	if won {
		return r.finishLocked(Outcome{
			Kind:        OutcomeFirstTurnWin,
			WinnerID:    dealer.ID,
			WinnerName:  dealer.Name,
			WinnerSeat:  0,
			WinningTile: &drawn,
			Hand:        tile.CloneTiles(dealer.Hand),
		}), nil
	}

	return nil, nil
}

// PlayTile 出牌
// 依次检查对局状态、是否在座、是否轮到、slot 是否越界、牌是否一致；任何一项不满足都不改变状态。
// 出牌后按 下家、对家、上家 的顺序检查点炮，都不能胡则轮转到下家摸牌。
func (r *Room) PlayTile(playerID string, t tile.Tile, slot int) (*PlayResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseInProgress {
		return nil, apperrors.ErrGameNotInProgress
	}
	p, seat := r.findLocked(playerID)
	if p == nil {
		return nil, apperrors.ErrNotInRoom
	}
	if seat != r.turn {
		return nil, apperrors.ErrNotYourTurn
	}
	if slot < 0 || slot >= len(p.Hand) {
		return nil, apperrors.ErrInvalidSlot
	}
	if p.Hand[slot] != t {
		return nil, apperrors.ErrTileMismatch
	}

	r.lastActive = r.now()

	p.Hand = tile.RemoveAt(p.Hand, slot)
	discard := Discard{PlayerID: p.ID, Seat: seat, Tile: t}
	r.discards = append(r.discards, discard)

	result := &PlayResult{Discard: discard, Slot: slot}

	// 点炮：离出牌者最近的玩家优先
	for k := 1; k < len(r.players); k++ {
		s := (seat + k) % len(r.players)
		other := r.players[s]

		won, err := winning.CanWinWith(other.Hand, t)
		if err != nil {
			return nil, r.invariantError(err)
		}
		if !won {
			continue
		}

		claimed := t
		result.Outcome = r.finishLocked(Outcome{
			Kind:        OutcomeDiscardWin,
			WinnerID:    other.ID,
			WinnerName:  other.Name,
			WinnerSeat:  s,
			DiscarderID: p.ID,
			WinningTile: &claimed,
			Hand:        insertSorted(tile.CloneTiles(other.Hand), t),
		})
		break
	}

	if result.Outcome == nil {
		r.turn = (r.turn + 1) % len(r.players)
		next := r.players[r.turn]

		if len(r.wall) == 0 {
			result.Outcome = r.finishLocked(Outcome{
				Kind:       OutcomeExhaustiveDraw,
				WinnerSeat: -1,
			})
		} else {
			drawn := r.popLocked()
			next.Hand = insertSorted(next.Hand, drawn)

			won, err := winning.IsWinningHand(next.Hand)
			if err != nil {
				return nil, r.invariantError(err)
			}
			if won {
				result.Outcome = r.finishLocked(Outcome{
					Kind:        OutcomeSelfDrawnWin,
					WinnerID:    next.ID,
					WinnerName:  next.Name,
					WinnerSeat:  r.turn,
					WinningTile: &drawn,
					Hand:        tile.CloneTiles(next.Hand),
				})
			}
		}
	}

	if err := r.checkLocked(); err != nil {
		return nil, err
	}

	result.Summary = r.summaryLocked()
	result.Views = r.viewsLocked()
	return result, nil
}

// Leave 离开房间，玩家不在座时返回 false
func (r *Room) Leave(playerID string) (*LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, seat := r.findLocked(playerID)
	if p == nil {
		return nil, false
	}
	return r.leaveLocked(seat), true
}

// LeaveEndpoint 仅当玩家仍绑定在该端点时离开
// 重新加入后，旧连接关闭不会把新连接踢出房间
func (r *Room) LeaveEndpoint(playerID string, endpoint Endpoint) (*LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, seat := r.findLocked(playerID)
	if p == nil || p.Endpoint != endpoint {
		return nil, false
	}
	return r.leaveLocked(seat), true
}

// leaveLocked 移除座位；对局中离开则对局以 ABANDONED 结束
func (r *Room) leaveLocked(seat int) *LeaveResult {
	r.lastActive = r.now()

	result := &LeaveResult{Seat: seat, Players: r.summaryLocked().Players}

	leaver := r.players[seat]
	r.players = append(r.players[:seat], r.players[seat+1:]...)

	if r.phase == PhaseInProgress {
		result.Outcome = r.finishLocked(Outcome{
			Kind:       OutcomeAbandoned,
			WinnerSeat: -1,
			LeaverID:   leaver.ID,
		})
	}

	if r.turn >= len(r.players) {
		r.turn = 0
	}

	result.Summary = r.summaryLocked()
	result.Views = r.viewsLocked()
	return result
}

// finishLocked 记录结果并回到等待阶段
func (r *Room) finishLocked(o Outcome) *Outcome {
	o.Round = r.round
	o.Turns = len(r.discards)
	o.StartedAt = r.startedAt
	o.FinishedAt = r.now()

	r.phase = PhaseWaiting
	r.lastOutcome = &o
	return &o
}

// checkLocked 校验牌的守恒：手牌 + 牌墙 + 弃牌 = 136，对局中只有轮到的玩家持 14 张
func (r *Room) checkLocked() error {
	total := len(r.wall) + len(r.discards)
	for _, p := range r.players {
		total += len(p.Hand)
	}
	if total != tile.SetSize {
		return r.invariantError(fmt.Errorf("tile total %d, want %d", total, tile.SetSize))
	}

	if r.phase != PhaseInProgress {
		return nil
	}
	if r.turn < 0 || r.turn >= len(r.players) {
		return r.invariantError(fmt.Errorf("turn index %d out of range", r.turn))
	}
	for seat, p := range r.players {
		want := InitialHandSize
		if seat == r.turn {
			want = InitialHandSize + 1
		}
		if len(p.Hand) != want {
			return r.invariantError(fmt.Errorf("seat %d holds %d tiles, want %d", seat, len(p.Hand), want))
		}
	}
	return nil
}

func (r *Room) invariantError(err error) error {
	return apperrors.ErrInvariantViolation.Wrap(fmt.Errorf("room %s: %w", r.id, err))
}

// popLocked 从牌墙尾部取一张
func (r *Room) popLocked() tile.Tile {
	last := len(r.wall) - 1
	t := r.wall[last]
	r.wall = r.wall[:last]
	return t
}

func (r *Room) findLocked(playerID string) (*Player, int) {
	for i, p := range r.players {
		if p.ID == playerID {
			return p, i
		}
	}
	return nil, -1
}

// insertSorted 把牌插入有序手牌
func insertSorted(hand []tile.Tile, t tile.Tile) []tile.Tile {
	i := len(hand)
	for i > 0 && tile.Less(t, hand[i-1]) {
		i--
	}
	hand = append(hand, tile.Tile{})
	copy(hand[i+1:], hand[i:])
	hand[i] = t
	return hand
}

// Phase 当前阶段
func (r *Room) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// Endpoint 返回玩家绑定的端点
func (r *Room) Endpoint(playerID string) (Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, _ := r.findLocked(playerID)
	if p == nil {
		return Endpoint{}, false
	}
	return p.Endpoint, true
}

// HasPlayer 玩家是否在座
func (r *Room) HasPlayer(playerID string) bool {
	_, ok := r.Endpoint(playerID)
	return ok
}

// retireIfIdle 空房间超过 idle 未活跃时停用
func (r *Room) retireIfIdle(now time.Time, idle time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.retired {
		return true
	}
	if len(r.players) > 0 || now.Sub(r.lastActive) < idle {
		return false
	}
	r.retired = true
	return true
}

// LastActiveTime 获取最后活跃时间
func (r *Room) LastActiveTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive
}
