package presence

import (
	"fmt"
	"time"
)

const (
	// PlayerLocationKeyPrefix 玩家位置 Redis Key 前缀
	PlayerLocationKeyPrefix = "mahjong:player:location:"

	// DefaultTTL 玩家位置 TTL
	DefaultTTL = 24 * time.Hour
)

// BuildPlayerLocationKey 构建玩家位置 Key
// Key: mahjong:player:location:{playerId}，Hash field 为 roomId
func BuildPlayerLocationKey(playerID string) string {
	return fmt.Sprintf("%s%s", PlayerLocationKeyPrefix, playerID)
}
