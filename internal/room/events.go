package room

import "sudooom.mahjong/internal/game/tile"

// 下行事件
const (
	EventRoomUpdated   = "ROOM_UPDATED"
	EventGameStarted   = "GAME_STARTED"
	EventGameState     = "GAME_STATE" // 单播，只含接收者自己的手牌
	EventTileDiscarded = "TILE_DISCARDED"
	EventGameOver      = "GAME_OVER"
)

// GameStarted 开局通知
type GameStarted struct {
	RoomID    string       `json:"roomId"`
	Round     int          `json:"round"`
	DealerID  string       `json:"dealerId"`
	WallCount int          `json:"wallCount"`
	Players   []PublicSeat `json:"players"`
}

// TileDiscarded 出牌通知
type TileDiscarded struct {
	RoomID       string    `json:"roomId"`
	PlayerID     string    `json:"playerId"`
	Seat         int       `json:"seat"`
	Tile         tile.Tile `json:"tile"`
	TurnSeat     int       `json:"turnSeat"`
	TurnPlayerID string    `json:"turnPlayerId,omitempty"`
	WallCount    int       `json:"wallCount"`
}

// GameOver 对局结束通知
type GameOver struct {
	RoomID string `json:"roomId"`
	*Outcome
}
