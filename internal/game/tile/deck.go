package tile

import (
	"math/rand/v2"
	"sync"
)

// NewSet 生成一副按序号排列的完整牌 (34 种各 4 张，共 136 张)
func NewSet() []Tile {
	tiles := make([]Tile, 0, SetSize)
	for i := 0; i < NumKinds; i++ {
		t := FromIndex(i)
		for count := 0; count < CopiesPerKind; count++ {
			tiles = append(tiles, t)
		}
	}
	return tiles
}

// DeckGenerator 牌墙生成器
// 使用 Fisher-Yates 洗牌，每种排列等概率
type DeckGenerator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewDeckGenerator 创建随机种子的牌墙生成器
func NewDeckGenerator() *DeckGenerator {
	return NewSeededDeckGenerator(rand.Uint64())
}

// NewSeededDeckGenerator 创建固定种子的牌墙生成器（测试时可复现）
func NewSeededDeckGenerator(seed uint64) *DeckGenerator {
	return &DeckGenerator{
		rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// BuildShuffledWall 生成洗好的牌墙
func (d *DeckGenerator) BuildShuffledWall() []Tile {
	tiles := NewSet()
	d.Shuffle(tiles)
	return tiles
}

// Shuffle 原地洗牌
func (d *DeckGenerator) Shuffle(tiles []Tile) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rand.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})
}
