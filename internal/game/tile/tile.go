package tile

import (
	"fmt"
	"sort"
)

// TileSuit 牌的花色
type TileSuit int8

const (
	TileSuitWan    TileSuit = iota // 万
	TileSuitTiao                   // 条
	TileSuitTong                   // 筒
	TileSuitWind                   // 风 (东南西北)
	TileSuitDragon                 // 箭牌 (中发白)
)

const (
	// SuitedValues 数牌每门的点数
	SuitedValues = 9
	// WindValues 风牌种类数
	WindValues = 4
	// DragonValues 箭牌种类数
	DragonValues = 3
	// NumKinds 牌的种类数 (27 数牌 + 7 字牌)
	NumKinds = 3*SuitedValues + WindValues + DragonValues
	// CopiesPerKind 每种牌的张数
	CopiesPerKind = 4
	// SetSize 整副牌张数
	SetSize = NumKinds * CopiesPerKind
)

// String 返回花色的字符串表示
func (s TileSuit) String() string {
	switch s {
	case TileSuitWan:
		return "m"
	case TileSuitTiao:
		return "s"
	case TileSuitTong:
		return "p"
	case TileSuitWind:
		return "wind"
	case TileSuitDragon:
		return "dragon"
	default:
		return "unknown"
	}
}

// IsSuited 是否为数牌花色 (万条筒)
func (s TileSuit) IsSuited() bool {
	return s >= TileSuitWan && s <= TileSuitTong
}

// Tile 麻将牌
type Tile struct {
	Suit  TileSuit `json:"suit"`  // 花色
	Value int8     `json:"value"` // 值 (1-9, 风牌:1东2南3西4北, 箭牌:1中2发3白)
}

var (
	windNames   = [...]string{"E", "S", "W", "N"}
	dragonNames = [...]string{"Rd", "Gd", "Wd"}
)

// String 返回牌的字符串表示，如 3m、7s、E、Rd
func (t Tile) String() string {
	if !t.Valid() {
		return fmt.Sprintf("?%d/%d", t.Suit, t.Value)
	}
	switch t.Suit {
	case TileSuitWind:
		return windNames[t.Value-1]
	case TileSuitDragon:
		return dragonNames[t.Value-1]
	default:
		return fmt.Sprintf("%d%s", t.Value, t.Suit)
	}
}

// IsSuited 是否为数牌
func (t Tile) IsSuited() bool {
	return t.Suit.IsSuited()
}

// Valid 是否为 34 种牌之一
func (t Tile) Valid() bool {
	switch {
	case t.Suit.IsSuited():
		return t.Value >= 1 && t.Value <= SuitedValues
	case t.Suit == TileSuitWind:
		return t.Value >= 1 && t.Value <= WindValues
	case t.Suit == TileSuitDragon:
		return t.Value >= 1 && t.Value <= DragonValues
	default:
		return false
	}
}

// Index 返回牌在 0..33 中的序号，非法牌返回 -1
// 数牌: suit*9 + value-1；风牌: 27..30；箭牌: 31..33
func (t Tile) Index() int {
	if !t.Valid() {
		return -1
	}
	switch t.Suit {
	case TileSuitWind:
		return 3*SuitedValues + int(t.Value) - 1
	case TileSuitDragon:
		return 3*SuitedValues + WindValues + int(t.Value) - 1
	default:
		return int(t.Suit)*SuitedValues + int(t.Value) - 1
	}
}

// FromIndex 由序号还原牌
func FromIndex(i int) Tile {
	switch {
	case i < 0 || i >= NumKinds:
		return Tile{Suit: -1}
	case i < 3*SuitedValues:
		return Tile{Suit: TileSuit(i / SuitedValues), Value: int8(i%SuitedValues + 1)}
	case i < 3*SuitedValues+WindValues:
		return Tile{Suit: TileSuitWind, Value: int8(i - 3*SuitedValues + 1)}
	default:
		return Tile{Suit: TileSuitDragon, Value: int8(i - 3*SuitedValues - WindValues + 1)}
	}
}

// Kinds 返回按序号排列的 34 种牌
func Kinds() []Tile {
	kinds := make([]Tile, NumKinds)
	for i := range kinds {
		kinds[i] = FromIndex(i)
	}
	return kinds
}

// Less 按序号比较
func Less(a, b Tile) bool {
	return a.Index() < b.Index()
}

// SortTiles 对牌进行排序
func SortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		return Less(tiles[i], tiles[j])
	})
}

// CloneTiles 克隆牌组
func CloneTiles(tiles []Tile) []Tile {
	result := make([]Tile, len(tiles))
	copy(result, tiles)
	return result
}

// RemoveAt 移除指定位置的牌，返回新切片
func RemoveAt(tiles []Tile, index int) []Tile {
	result := make([]Tile, 0, len(tiles)-1)
	result = append(result, tiles[:index]...)
	return append(result, tiles[index+1:]...)
}

// Counts 牌种 -> 张数 的映射，按 Index 定位
type Counts [NumKinds]int

// CountsOf 统计牌组，遇到非法牌返回错误
func CountsOf(tiles []Tile) (Counts, error) {
	var c Counts
	for _, t := range tiles {
		i := t.Index()
		if i < 0 {
			return c, fmt.Errorf("invalid tile %s", t)
		}
		c[i]++
	}
	return c, nil
}

// Total 总张数
func (c *Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Tiles 展开为有序牌组
func (c *Counts) Tiles() []Tile {
	tiles := make([]Tile, 0, c.Total())
	for i, n := range c {
		for k := 0; k < n; k++ {
			tiles = append(tiles, FromIndex(i))
		}
	}
	return tiles
}
