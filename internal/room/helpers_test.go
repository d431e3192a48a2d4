package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"sudooom.mahjong/internal/game/tile"
)

// 任何一张牌都无法让这些手牌胡
var scattered = [Capacity]string{
	"147m 258s 369p E S W N",
	"258m 369s 147p E S W N",
	"369m 147s 258p E S W N",
	"147m 258s 369p E S W N",
}

const (
	// 14 张，打出 5p
	discarderHand = "5p 147m 258s 369p E S W N"
	// 以下三手都听 5p
	waitingA = "123m 456m 789m 11s 46p"
	waitingB = "123s 456s 789s 22m 46p"
	waitingC = "789m 111p 333p 46p S S"
	// 不听任何牌
	idleHand = "258m 369s 147p E S W Rd"
)

type fixedWall struct {
	wall []tile.Tile
}

func (f fixedWall) BuildShuffledWall() []tile.Tile {
	return tile.CloneTiles(f.wall)
}

func mustTiles(t *testing.T, s string) []tile.Tile {
	t.Helper()
	tiles, err := tile.ParseTiles(s)
	require.NoError(t, err)
	return tiles
}

func mustTile(t *testing.T, s string) tile.Tile {
	t.Helper()
	tiles := mustTiles(t, s)
	require.Len(t, tiles, 1)
	return tiles[0]
}

// remainder 整副牌去掉 used 之后剩下的牌
func remainder(t *testing.T, used []tile.Tile) []tile.Tile {
	t.Helper()
	counts, err := tile.CountsOf(tile.NewSet())
	require.NoError(t, err)
	for _, u := range used {
		counts[u.Index()]--
		require.GreaterOrEqual(t, counts[u.Index()], 0, "too many copies of %s", u)
	}
	return counts.Tiles()
}

func reversed(tiles []tile.Tile) []tile.Tile {
	out := make([]tile.Tile, len(tiles))
	for i, tl := range tiles {
		out[len(tiles)-1-i] = tl
	}
	return out
}

// stackWall 构造牌墙，使发牌依次摸到 hands[0..3]、庄家第 14 张、之后的 draws
func stackWall(t *testing.T, hands [Capacity]string, extra string, draws string) []tile.Tile {
	t.Helper()

	var seq []tile.Tile
	for _, h := range hands {
		tiles := mustTiles(t, h)
		require.Len(t, tiles, InitialHandSize)
		seq = append(seq, tiles...)
	}
	seq = append(seq, mustTile(t, extra))
	seq = append(seq, mustTiles(t, draws)...)

	wall := append(remainder(t, seq), reversed(seq)...)
	require.Len(t, wall, tile.SetSize)
	return wall
}

func ep(connID int64) Endpoint {
	return Endpoint{Node: LocalNode, ConnID: connID}
}

func playerID(seat int) string {
	return fmt.Sprintf("p%d", seat+1)
}

// seatFour 让 p1..p4 依次入座，第四人入座时开局
func seatFour(t *testing.T, r *Room) *JoinResult {
	t.Helper()
	var last *JoinResult
	for seat := 0; seat < Capacity; seat++ {
		res, err := r.Join(playerID(seat), fmt.Sprintf("player%d", seat+1), ep(int64(seat+1)))
		require.NoError(t, err)
		require.Equal(t, seat, res.Seat)
		last = res
	}
	return last
}

// arrange 直接摆好一局进行中的状态：turn 座位持 14 张，draws 依次是接下来摸到的牌
func arrange(t *testing.T, r *Room, turn int, hands [Capacity]string, draws string) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.Len(t, r.players, Capacity)

	var used []tile.Tile
	for seat, h := range hands {
		tiles := mustTiles(t, h)
		want := InitialHandSize
		if seat == turn {
			want++
		}
		require.Len(t, tiles, want, "seat %d", seat)
		tile.SortTiles(tiles)
		r.players[seat].Hand = tiles
		used = append(used, tiles...)
	}
	drawTiles := mustTiles(t, draws)
	used = append(used, drawTiles...)

	r.wall = append(remainder(t, used), reversed(drawTiles)...)
	r.discards = nil
	r.turn = turn
	r.phase = PhaseInProgress
	r.lastOutcome = nil
	require.NoError(t, r.checkLocked())
}

// slotOf 返回牌在手牌中的位置
func slotOf(t *testing.T, hand []tile.Tile, tl tile.Tile) int {
	t.Helper()
	for i, h := range hand {
		if h == tl {
			return i
		}
	}
	require.Failf(t, "tile not in hand", "%s not in %v", tl, hand)
	return -1
}

// multiset 房间内所有牌的计数
func multiset(t *testing.T, r *Room) tile.Counts {
	t.Helper()

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := tile.CloneTiles(r.wall)
	for _, p := range r.players {
		all = append(all, p.Hand...)
	}
	for _, d := range r.discards {
		all = append(all, d.Tile)
	}
	c, err := tile.CountsOf(all)
	require.NoError(t, err)
	return c
}

func canonical(t *testing.T) tile.Counts {
	t.Helper()
	c, err := tile.CountsOf(tile.NewSet())
	require.NoError(t, err)
	return c
}

func handOf(r *Room, seat int) []tile.Tile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return tile.CloneTiles(r.players[seat].Hand)
}
