package room

import (
	"sudooom.mahjong/internal/game/tile"
)

// PublicSeat 对所有人可见的座位信息，不含手牌
type PublicSeat struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Seat     int    `json:"seat"`
	HandSize int    `json:"handSize"`
}

// Summary 房间概况（公开信息）
type Summary struct {
	RoomID       string       `json:"roomId"`
	Phase        Phase        `json:"phase"`
	Round        int          `json:"round"`
	Capacity     int          `json:"capacity"`
	Players      []PublicSeat `json:"players"`
	WallCount    int          `json:"wallCount"`
	TurnSeat     int          `json:"turnSeat"`
	TurnPlayerID string       `json:"turnPlayerId,omitempty"`
	Discards     []Discard    `json:"discards"`
	LastOutcome  *Outcome     `json:"lastOutcome,omitempty"`
}

// SeatView 单个座位看到的房间状态：公开信息 + 自己的手牌
type SeatView struct {
	Summary
	PlayerID string      `json:"playerId"`
	Seat     int         `json:"seat"`
	Hand     []tile.Tile `json:"hand"`
	IsMyTurn bool        `json:"isMyTurn"`

	Endpoint Endpoint `json:"-"`
}

// Recipient 该视图的推送目标
func (v SeatView) Recipient() Recipient {
	return Recipient{PlayerID: v.PlayerID, Endpoint: v.Endpoint}
}

// Snapshot 每个座位各自的视图
func (r *Room) Snapshot() []SeatView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewsLocked()
}

// Summary 房间公开概况
func (r *Room) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summaryLocked()
}

// Recipients 当前在座玩家的推送目标
func (r *Room) Recipients() []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return recipientsOf(r.viewsLocked())
}

func (r *Room) summaryLocked() Summary {
	seats := make([]PublicSeat, len(r.players))
	for i, p := range r.players {
		seats[i] = PublicSeat{
			PlayerID: p.ID,
			Name:     p.Name,
			Seat:     i,
			HandSize: len(p.Hand),
		}
	}

	s := Summary{
		RoomID:      r.id,
		Phase:       r.phase,
		Round:       r.round,
		Capacity:    Capacity,
		Players:     seats,
		WallCount:   len(r.wall),
		TurnSeat:    r.turn,
		Discards:    append([]Discard{}, r.discards...),
		LastOutcome: r.lastOutcome,
	}
	if r.turn < len(r.players) {
		s.TurnPlayerID = r.players[r.turn].ID
	}
	return s
}

func (r *Room) viewsLocked() []SeatView {
	summary := r.summaryLocked()

	views := make([]SeatView, len(r.players))
	for i, p := range r.players {
		views[i] = SeatView{
			Summary:  summary,
			PlayerID: p.ID,
			Seat:     i,
			Hand:     tile.CloneTiles(p.Hand),
			IsMyTurn: r.phase == PhaseInProgress && i == r.turn,
			Endpoint: p.Endpoint,
		}
	}
	return views
}

func recipientsOf(views []SeatView) []Recipient {
	recipients := make([]Recipient, len(views))
	for i, v := range views {
		recipients[i] = v.Recipient()
	}
	return recipients
}
