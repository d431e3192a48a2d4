// Package winning 胡牌判定
//
// 标准胡牌牌型：一对将 + 四组面子（刻子或同门顺子），字牌不能组成顺子。
package winning

import (
	"errors"
	"fmt"

	"sudooom.mahjong/internal/game/tile"
)

// FullHandSize 判定胡牌时的手牌张数
const FullHandSize = 14

var (
	// ErrInvalidHandSize 判定的牌不是 14 张
	ErrInvalidHandSize = errors.New("winning hand check requires exactly 14 tiles")

	// ErrInvalidTile 包含非法牌或某种牌超过 4 张
	ErrInvalidTile = errors.New("hand contains an invalid tile")
)

// IsWinningHand 判断 14 张牌能否组成一对将加四组面子
// 结果只取决于牌的多重集合，与输入顺序无关
func IsWinningHand(tiles []tile.Tile) (bool, error) {
	if len(tiles) != FullHandSize {
		return false, fmt.Errorf("%w: got %d", ErrInvalidHandSize, len(tiles))
	}

	counts, err := tile.CountsOf(tiles)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidTile, err)
	}

	return IsWinningCounts(&counts)
}

// CanWinWith 13 张手牌加上一张牌能否胡牌（点炮判定）
func CanWinWith(hand []tile.Tile, extra tile.Tile) (bool, error) {
	all := make([]tile.Tile, 0, len(hand)+1)
	all = append(all, hand...)
	all = append(all, extra)
	return IsWinningHand(all)
}

// IsWinningCounts 对计数表判定胡牌，counts 在返回时保持原值
func IsWinningCounts(counts *tile.Counts) (bool, error) {
	total := 0
	for i, n := range counts {
		if n < 0 || n > tile.CopiesPerKind {
			return false, fmt.Errorf("%w: %d copies of %s", ErrInvalidTile, n, tile.FromIndex(i))
		}
		total += n
	}
	if total != FullHandSize {
		return false, fmt.Errorf("%w: got %d", ErrInvalidHandSize, total)
	}

	// 尝试每一种可以做将的牌，贪心选将会漏判
	for i := range counts {
		if counts[i] < 2 {
			continue
		}

		counts[i] -= 2
		ok := decompose(counts, 0)
		counts[i] += 2

		if ok {
			return true, nil
		}
	}

	return false, nil
}

// decompose 检查剩余牌是否都能组成面子
// 最小的牌只能作为刻子或顺子的第一张，所以只需在它身上分支
func decompose(counts *tile.Counts, from int) bool {
	i := from
	for i < tile.NumKinds && counts[i] == 0 {
		i++
	}
	if i == tile.NumKinds {
		return true
	}

	// 尝试刻子
	if counts[i] >= 3 {
		counts[i] -= 3
		ok := decompose(counts, i)
		counts[i] += 3
		if ok {
			return true
		}
	}

	// 尝试顺子（仅万条筒，且点数 <= 7）
	if canStartRun(i) && counts[i+1] > 0 && counts[i+2] > 0 {
		counts[i]--
		counts[i+1]--
		counts[i+2]--
		ok := decompose(counts, i)
		counts[i]++
		counts[i+1]++
		counts[i+2]++
		if ok {
			return true
		}
	}

	return false
}

// canStartRun 该序号的牌能否作为顺子的第一张
func canStartRun(index int) bool {
	t := tile.FromIndex(index)
	return t.IsSuited() && t.Value <= tile.SuitedValues-2
}
