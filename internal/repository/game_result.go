package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sudooom.mahjong/internal/room"
)

// Schema game_results 表结构，只追加不修改
const Schema = `
CREATE TABLE IF NOT EXISTS game_results (
	id           BIGSERIAL PRIMARY KEY,
	room_id      VARCHAR(64)  NOT NULL,
	round        INT          NOT NULL,
	kind         VARCHAR(32)  NOT NULL,
	winner_id    VARCHAR(64)  NOT NULL DEFAULT '',
	winner_seat  INT          NOT NULL DEFAULT -1,
	discarder_id VARCHAR(64)  NOT NULL DEFAULT '',
	leaver_id    VARCHAR(64)  NOT NULL DEFAULT '',
	winning_tile VARCHAR(8)   NOT NULL DEFAULT '',
	hand         JSONB        NOT NULL DEFAULT '[]',
	players      JSONB        NOT NULL DEFAULT '[]',
	turns        INT          NOT NULL DEFAULT 0,
	started_at   TIMESTAMPTZ  NOT NULL,
	finished_at  TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_room ON game_results (room_id, finished_at DESC);
`

// DB pgxpool.Pool 的子集
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GameResult 一局的结果记录
type GameResult struct {
	ID          int64             `json:"id"`
	RoomID      string            `json:"roomId"`
	Round       int               `json:"round"`
	Kind        room.OutcomeKind  `json:"kind"`
	WinnerID    string            `json:"winnerId,omitempty"`
	WinnerSeat  int               `json:"winnerSeat"`
	DiscarderID string            `json:"discarderId,omitempty"`
	LeaverID    string            `json:"leaverId,omitempty"`
	WinningTile string            `json:"winningTile,omitempty"`
	Hand        []string          `json:"hand"`
	Players     []room.PublicSeat `json:"players"`
	Turns       int               `json:"turns"`
	StartedAt   time.Time         `json:"startedAt"`
	FinishedAt  time.Time         `json:"finishedAt"`
}

// GameResultRepository 对局结果仓库
type GameResultRepository struct {
	db     DB
	logger *slog.Logger
}

// NewGameResultRepository 创建对局结果仓库
func NewGameResultRepository(db DB) *GameResultRepository {
	return &GameResultRepository{
		db:     db,
		logger: slog.Default().With("component", "GameResultRepository"),
	}
}

// EnsureSchema 建表
func (r *GameResultRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, Schema)
	return err
}

// RecordOutcome 实现 room.HistoryRecorder
func (r *GameResultRepository) RecordOutcome(ctx context.Context, roomID string, outcome *room.Outcome, players []room.PublicSeat) error {
	result := newGameResult(roomID, outcome, players)
	id, err := r.Create(ctx, result)
	if err != nil {
		return err
	}

	r.logger.Debug("Recorded game result", "id", id, "roomId", roomID, "round", outcome.Round, "kind", outcome.Kind)
	return nil
}

// Create 写入一条记录
func (r *GameResultRepository) Create(ctx context.Context, result *GameResult) (int64, error) {
	hand, err := json.Marshal(result.Hand)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal hand: %w", err)
	}
	players, err := json.Marshal(result.Players)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal players: %w", err)
	}

	query := `
		INSERT INTO game_results (room_id, round, kind, winner_id, winner_seat, discarder_id, leaver_id,
			winning_tile, hand, players, turns, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	var id int64
	err = r.db.QueryRow(ctx, query,
		result.RoomID,
		result.Round,
		string(result.Kind),
		result.WinnerID,
		result.WinnerSeat,
		result.DiscarderID,
		result.LeaverID,
		result.WinningTile,
		hand,
		players,
		result.Turns,
		result.StartedAt,
		result.FinishedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	result.ID = id
	return id, nil
}

// ListByRoom 房间最近的对局，按结束时间倒序
func (r *GameResultRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]GameResult, error) {
	query := `
		SELECT id, room_id, round, kind, winner_id, winner_seat, discarder_id, leaver_id,
			winning_tile, hand, players, turns, started_at, finished_at
		FROM game_results
		WHERE room_id = $1
		ORDER BY finished_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]GameResult, 0)
	for rows.Next() {
		var (
			res     GameResult
			kind    string
			hand    []byte
			players []byte
		)
		if err := rows.Scan(
			&res.ID,
			&res.RoomID,
			&res.Round,
			&kind,
			&res.WinnerID,
			&res.WinnerSeat,
			&res.DiscarderID,
			&res.LeaverID,
			&res.WinningTile,
			&hand,
			&players,
			&res.Turns,
			&res.StartedAt,
			&res.FinishedAt,
		); err != nil {
			return nil, err
		}

		res.Kind = room.OutcomeKind(kind)
		if err := json.Unmarshal(hand, &res.Hand); err != nil {
			return nil, fmt.Errorf("game result %d: bad hand: %w", res.ID, err)
		}
		if err := json.Unmarshal(players, &res.Players); err != nil {
			return nil, fmt.Errorf("game result %d: bad players: %w", res.ID, err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

func newGameResult(roomID string, outcome *room.Outcome, players []room.PublicSeat) *GameResult {
	hand := make([]string, len(outcome.Hand))
	for i, t := range outcome.Hand {
		hand[i] = t.String()
	}

	res := &GameResult{
		RoomID:      roomID,
		Round:       outcome.Round,
		Kind:        outcome.Kind,
		WinnerID:    outcome.WinnerID,
		WinnerSeat:  outcome.WinnerSeat,
		DiscarderID: outcome.DiscarderID,
		LeaverID:    outcome.LeaverID,
		Hand:        hand,
		Players:     players,
		Turns:       outcome.Turns,
		StartedAt:   outcome.StartedAt,
		FinishedAt:  outcome.FinishedAt,
	}
	if outcome.WinningTile != nil {
		res.WinningTile = outcome.WinningTile.String()
	}
	if res.Players == nil {
		res.Players = []room.PublicSeat{}
	}
	return res
}
