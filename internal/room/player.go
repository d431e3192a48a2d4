package room

import (
	"fmt"

	"sudooom.mahjong/internal/game/tile"
)

// LocalNode 本机 websocket 连接所在的节点名
// 通过 NATS 网关接入的玩家，Node 为 access 节点 ID
const LocalNode = "local"

// Endpoint 玩家当前绑定的传输端点
type Endpoint struct {
	Node   string `json:"node"`   // 接入节点
	ConnID int64  `json:"connId"` // 连接 ID
}

// IsZero 是否为空端点
func (e Endpoint) IsZero() bool {
	return e.Node == "" && e.ConnID == 0
}

// String 返回 node/connId 形式
func (e Endpoint) String() string {
	return fmt.Sprintf("%s/%d", e.Node, e.ConnID)
}

// Player 房间内的座位
// ID 是稳定身份，Endpoint 只在重新加入时被改写
type Player struct {
	ID       string
	Name     string
	Endpoint Endpoint
	Hand     []tile.Tile // 有序手牌，下标即出牌时的 slot
}

// Discard 弃牌记录
type Discard struct {
	PlayerID string    `json:"playerId"`
	Seat     int       `json:"seat"`
	Tile     tile.Tile `json:"tile"`
}

// Recipient 推送目标
type Recipient struct {
	PlayerID string
	Endpoint Endpoint
}
