package room

import (
	"time"

	"sudooom.mahjong/internal/game/tile"
)

// Phase 房间阶段
type Phase string

const (
	PhaseWaiting    Phase = "WAITING"
	PhaseInProgress Phase = "IN_PROGRESS"
)

// OutcomeKind 对局结束方式
type OutcomeKind string

const (
	OutcomeFirstTurnWin   OutcomeKind = "FIRST_TURN_WIN"  // 庄家起手胡
	OutcomeSelfDrawnWin   OutcomeKind = "SELF_DRAWN_WIN"  // 自摸
	OutcomeDiscardWin     OutcomeKind = "DISCARD_WIN"     // 点炮
	OutcomeExhaustiveDraw OutcomeKind = "EXHAUSTIVE_DRAW" // 流局
	OutcomeAbandoned      OutcomeKind = "ABANDONED"       // 对局中有人离开
)

// IsWin 是否有人胡牌
func (k OutcomeKind) IsWin() bool {
	switch k {
	case OutcomeFirstTurnWin, OutcomeSelfDrawnWin, OutcomeDiscardWin:
		return true
	default:
		return false
	}
}

// Outcome 对局结果
type Outcome struct {
	Kind        OutcomeKind `json:"kind"`
	Round       int         `json:"round"`                 // 房间内第几局
	WinnerID    string      `json:"winnerId,omitempty"`    // 胡牌玩家
	WinnerName  string      `json:"winnerName,omitempty"`
	WinnerSeat  int         `json:"winnerSeat"`            // 无人胡牌时为 -1
	DiscarderID string      `json:"discarderId,omitempty"` // 点炮玩家
	WinningTile *tile.Tile  `json:"winningTile,omitempty"` // 胡的那张牌
	Hand        []tile.Tile `json:"hand,omitempty"`        // 亮出的 14 张
	LeaverID    string      `json:"leaverId,omitempty"`    // 中途离开的玩家
	Turns       int         `json:"turns"`                 // 本局打出的牌数
	StartedAt   time.Time   `json:"startedAt"`
	FinishedAt  time.Time   `json:"finishedAt"`
}
