package tile

import (
	"fmt"
	"strings"
)

var honorByName = map[string]Tile{
	"E":  {TileSuitWind, 1},
	"S":  {TileSuitWind, 2},
	"W":  {TileSuitWind, 3},
	"N":  {TileSuitWind, 4},
	"Rd": {TileSuitDragon, 1},
	"Gd": {TileSuitDragon, 2},
	"Wd": {TileSuitDragon, 3},
}

var suitBySuffix = map[byte]TileSuit{
	'm': TileSuitWan,
	's': TileSuitTiao,
	'p': TileSuitTong,
}

// ParseTiles 解析空白分隔的牌串，如 "123m 55p E Rd"
// 数牌写成若干点数加花色后缀，字牌每张单独一组
func ParseTiles(s string) ([]Tile, error) {
	var tiles []Tile
	for _, group := range strings.Fields(s) {
		if h, ok := honorByName[group]; ok {
			tiles = append(tiles, h)
			continue
		}

		suit, ok := suitBySuffix[group[len(group)-1]]
		if !ok || len(group) < 2 {
			return nil, fmt.Errorf("invalid tile group %q", group)
		}
		for _, d := range group[:len(group)-1] {
			if d < '1' || d > '9' {
				return nil, fmt.Errorf("invalid tile group %q", group)
			}
			tiles = append(tiles, Tile{Suit: suit, Value: int8(d - '0')})
		}
	}
	return tiles, nil
}

// MustParseTiles 同 ParseTiles，出错时 panic，用于常量牌型
func MustParseTiles(s string) []Tile {
	tiles, err := ParseTiles(s)
	if err != nil {
		panic(err)
	}
	return tiles
}
