package mahjong

import (
	"fmt"
	"slices"
)

// MeldType 面子类型
type MeldType int

const (
	MeldPair MeldType = iota // 将
	MeldChow                 // 吃
	MeldPong                 // 碰
	MeldKong                 // 杠
)

var meldNames = [...]string{"pair", "chow", "pong", "kong"}

func (m MeldType) String() string {
	if m < MeldPair || m > MeldKong {
		return "unknown"
	}
	return meldNames[m]
}

func (m MeldType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Meld 一组面子；Source为吃碰杠来源座位，非吃碰来的为SeatNull
type Meld struct {
	Type    MeldType `json:"type"`
	Tiles   []Tile   `json:"tiles"`
	Exposed bool     `json:"exposed"`
	Source  int      `json:"source"`
}

// NewMeld 校验牌型后生成面子
func NewMeld(typ MeldType, tiles []Tile, exposed bool, source int) (Meld, error) {
	sorted := SortedTiles(tiles)
	if !validMeld(typ, sorted) {
		return Meld{}, fmt.Errorf("%w: %s [%s]", ErrIllegalMeld, typ, TilesString(tiles))
	}
	return Meld{Type: typ, Tiles: sorted, Exposed: exposed, Source: source}, nil
}

func validMeld(typ MeldType, tiles []Tile) bool {
	switch typ {
	case MeldPair:
		return len(tiles) == 2 && allMatch(tiles)
	case MeldPong:
		return len(tiles) == 3 && allMatch(tiles) && !tiles[0].IsBonus()
	case MeldKong:
		return len(tiles) == 4 && allMatch(tiles) && !tiles[0].IsBonus()
	case MeldChow:
		if len(tiles) != 3 || !tiles[0].IsSuited() {
			return false
		}
		for i := 1; i < 3; i++ {
			if tiles[i].Suit != tiles[0].Suit || tiles[i].Value != tiles[0].Value+i {
				return false
			}
		}
		return true
	}
	return false
}

func allMatch(tiles []Tile) bool {
	for _, t := range tiles[1:] {
		if !t.Match(tiles[0]) {
			return false
		}
	}
	return true
}

// Key 面子首张牌的牌型
func (m Meld) Key() TileKey {
	return m.Tiles[0].Key()
}

// IsSet 吃碰杠，不含将
func (m Meld) IsSet() bool {
	return m.Type != MeldPair
}

func (m Meld) IsPongOrKong() bool {
	return m.Type == MeldPong || m.Type == MeldKong
}

func (m Meld) Clone() Meld {
	m.Tiles = slices.Clone(m.Tiles)
	return m
}

func (m Meld) String() string {
	return fmt.Sprintf("%s[%s]", m.Type, TilesString(m.Tiles))
}

func cloneMelds(melds []Meld) []Meld {
	out := make([]Meld, len(melds))
	for i, m := range melds {
		out[i] = m.Clone()
	}
	return out
}

func meldTiles(melds []Meld) []Tile {
	var tiles []Tile
	for _, m := range melds {
		tiles = append(tiles, m.Tiles...)
	}
	return tiles
}
